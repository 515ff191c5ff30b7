package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	gameKeyPrefix  = "giftswap:game:"
	allGamesKey    = "giftswap:games"
	votingGamesKey = "giftswap:voting_games"
)

// Config holds configuration for the Redis game repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed game repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// GetGame retrieves a game by ID from Redis
func (r *redisRepository) GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	gameJSON, err := r.client.Get(ctx, gameKey(input.GameID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var game models.Game
	if err := json.Unmarshal(gameJSON, &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

// SaveGame writes the snapshot inside a WATCH/MULTI transaction so that a
// concurrent writer makes exactly one of the two saves fail
func (r *redisRepository) SaveGame(ctx context.Context, input *SaveGameInput) (*SaveGameOutput, error) {
	if input == nil || input.Game == nil {
		return nil, errors.New("input and game cannot be nil")
	}
	if input.Game.ID == "" {
		return nil, errors.New("game ID cannot be empty")
	}

	next := input.Game.Clone()
	next.Version = input.ExpectedVersion + 1

	gameJSON, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game: %w", err)
	}

	key := gameKey(next.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if input.ExpectedVersion != 0 {
				return ErrGameNotFound
			}
		case err != nil:
			return fmt.Errorf("failed to get game: %w", err)
		default:
			var current struct {
				Version int64 `json:"version"`
			}
			if err := json.Unmarshal(stored, &current); err != nil {
				return fmt.Errorf("failed to unmarshal game: %w", err)
			}
			if current.Version != input.ExpectedVersion {
				return fmt.Errorf("%w: game %s is at version %d, expected %d",
					exchange.ErrConcurrentModification, next.ID, current.Version, input.ExpectedVersion)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, 0)
			pipe.SAdd(ctx, allGamesKey, next.ID)

			// Voting games are indexed so deadlines can be rescheduled after a restart
			if next.Phase == models.GamePhaseVoting {
				pipe.SAdd(ctx, votingGamesKey, next.ID)
			} else {
				pipe.SRem(ctx, votingGamesKey, next.ID)
			}
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("%w: game %s changed during save", exchange.ErrConcurrentModification, next.ID)
	}
	if err != nil {
		if errors.Is(err, ErrGameNotFound) || errors.Is(err, exchange.ErrConcurrentModification) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	return &SaveGameOutput{
		Game: next,
	}, nil
}

// DeleteGame removes a game and its index entries from Redis
func (r *redisRepository) DeleteGame(ctx context.Context, input *DeleteGameInput) error {
	if input == nil || input.GameID == "" {
		return errors.New("input and game ID cannot be empty")
	}

	var deleted *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, gameKey(input.GameID))
		pipe.SRem(ctx, allGamesKey, input.GameID)
		pipe.SRem(ctx, votingGamesKey, input.GameID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	if deleted.Val() == 0 {
		return ErrGameNotFound
	}

	return nil
}

// ListGames retrieves every game in the games index
func (r *redisRepository) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	games, err := r.loadIndex(ctx, allGamesKey)
	if err != nil {
		return nil, err
	}

	return &ListGamesOutput{
		Games: games,
	}, nil
}

// ListVotingGames retrieves every game in the voting index
func (r *redisRepository) ListVotingGames(ctx context.Context, input *ListVotingGamesInput) (*ListVotingGamesOutput, error) {
	games, err := r.loadIndex(ctx, votingGamesKey)
	if err != nil {
		return nil, err
	}

	return &ListVotingGamesOutput{
		Games: games,
	}, nil
}

// loadIndex fetches all games whose IDs are members of the given set
func (r *redisRepository) loadIndex(ctx context.Context, indexKey string) ([]*models.Game, error) {
	gameIDs, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game IDs from %s: %w", indexKey, err)
	}

	if len(gameIDs) == 0 {
		return []*models.Game{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(gameIDs))
	for i, gameID := range gameIDs {
		cmds[i] = pipe.Get(ctx, gameKey(gameID))
	}

	// redis.Nil for a single key is reported per command below
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games := make([]*models.Game, 0, len(gameIDs))
	for i, cmd := range cmds {
		gameJSON, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Game was deleted between reading the index and fetching it
				continue
			}
			return nil, fmt.Errorf("failed to get game %s: %w", gameIDs[i], err)
		}

		var game models.Game
		if err := json.Unmarshal(gameJSON, &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game %s: %w", gameIDs[i], err)
		}
		games = append(games, &game)
	}

	sortGames(games)
	return games, nil
}

func gameKey(gameID string) string {
	return fmt.Sprintf("%s%s", gameKeyPrefix, gameID)
}

// sortGames orders games oldest first so listings are stable
func sortGames(games []*models.Game) {
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
}
