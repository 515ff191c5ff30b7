package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultChannelPrefix = "giftswap:updates:"

// RedisConfig holds configuration for the Redis pub/sub publisher
type RedisConfig struct {
	RedisClient *redis.Client

	// ChannelPrefix is prepended to the game ID to form the channel name
	ChannelPrefix string
}

// RedisPublisher publishes snapshots on one Redis channel per game
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis pub/sub publisher
func NewRedis(cfg *RedisConfig) (*RedisPublisher, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = defaultChannelPrefix
	}

	return &RedisPublisher{
		client: cfg.RedisClient,
		prefix: prefix,
	}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, gameID string, game *models.Game) error {
	data, err := encodeSnapshot(game)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, p.channel(gameID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish game %s: %w", gameID, err)
	}
	return nil
}

// Relay subscribes to every game channel and hands each snapshot to target
// until ctx is cancelled. It lets each instance feed its own websocket hub.
func (p *RedisPublisher) Relay(ctx context.Context, target Publisher) error {
	sub := p.client.PSubscribe(ctx, p.prefix+"*")
	defer sub.Close()

	// Wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s*: %w", p.prefix, err)
	}

	log.Info().Str("pattern", p.prefix+"*").Msg("relaying game updates from Redis")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			game, err := decodeSnapshot([]byte(msg.Payload))
			if err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed game update")
				continue
			}

			if err := target.Publish(ctx, game.ID, game); err != nil {
				log.Warn().Err(err).Str("game_id", game.ID).Msg("failed to relay game update")
			}
		}
	}
}

func (p *RedisPublisher) channel(gameID string) string {
	return p.prefix + gameID
}
