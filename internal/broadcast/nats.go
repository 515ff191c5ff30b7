package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS publisher
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "giftswap.updates",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// natsConn is the part of *nats.Conn the publisher uses
type natsConn interface {
	PublishMsg(m *nats.Msg) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// NATSPublisher publishes snapshots on one NATS subject per game
type NATSPublisher struct {
	nc     natsConn
	config NATSConfig
}

// NewNATS connects to NATS and returns a publisher
func NewNATS(cfg NATSConfig) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url cannot be empty")
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultNATSConfig().SubjectPrefix
	}

	opts := []nats.Option{
		nats.Name("giftswap"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, config: cfg}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, gameID string, game *models.Game) error {
	data, err := encodeSnapshot(game)
	if err != nil {
		return err
	}

	msg := &nats.Msg{
		Subject: p.subject(gameID),
		Data:    data,
		Header: nats.Header{
			"Game-ID":      []string{gameID},
			"Game-Version": []string{strconv.FormatInt(game.Version, 10)},
		},
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish game %s: %w", gameID, err)
	}
	return nil
}

// Relay subscribes to every game subject and hands each snapshot to target
// until ctx is cancelled
func (p *NATSPublisher) Relay(ctx context.Context, target Publisher) error {
	sub, err := p.nc.Subscribe(p.config.SubjectPrefix+".>", p.handler(ctx, target))
	if err != nil {
		return fmt.Errorf("subscribe to %s.>: %w", p.config.SubjectPrefix, err)
	}

	log.Info().Str("subject", p.config.SubjectPrefix+".>").Msg("relaying game updates from NATS")

	<-ctx.Done()
	return sub.Unsubscribe()
}

// Close drains the connection
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

func (p *NATSPublisher) handler(ctx context.Context, target Publisher) nats.MsgHandler {
	return func(msg *nats.Msg) {
		game, err := decodeSnapshot(msg.Data)
		if err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed game update")
			return
		}

		if err := target.Publish(ctx, game.ID, game); err != nil {
			log.Warn().Err(err).Str("game_id", game.ID).Msg("failed to relay game update")
		}
	}
}

// subject maps a game ID onto a single subject token
func (p *NATSPublisher) subject(gameID string) string {
	token := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(gameID)
	return fmt.Sprintf("%s.%s", p.config.SubjectPrefix, token)
}
