package game

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/KirkDiggler/giftswap/internal/broadcast"
	"github.com/KirkDiggler/giftswap/internal/common/clock"
	"github.com/KirkDiggler/giftswap/internal/common/uuid"
	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	gameRepo "github.com/KirkDiggler/giftswap/internal/repositories/game"
	"github.com/rs/zerolog/log"
)

const defaultMaxRetries = 3

var gameIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// service implements the Service interface
type service struct {
	gameRepo      gameRepo.Repository
	publisher     broadcast.Publisher
	clock         clock.Clock
	uuidGenerator uuid.UUID
	deadlines     DeadlineScheduler
	defaults      models.Settings
	maxRetries    int
}

// New creates a new game service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.GameRepo == nil {
		return nil, ErrNilGameRepo
	}

	if cfg.Publisher == nil {
		return nil, ErrNilPublisher
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	defaults := cfg.DefaultSettings
	if defaults == (models.Settings{}) {
		defaults = exchange.DefaultSettings()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &service{
		gameRepo:      cfg.GameRepo,
		publisher:     cfg.Publisher,
		clock:         cfg.Clock,
		uuidGenerator: cfg.UUIDGenerator,
		deadlines:     cfg.Deadlines,
		defaults:      defaults,
		maxRetries:    maxRetries,
	}, nil
}

// GetGame returns the stored snapshot, creating and saving a fresh game if
// none exists yet
func (s *service) GetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", exchange.ErrInvalidInput)
	}
	if err := validateGameID(input.GameID); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		game, err := s.gameRepo.GetGame(ctx, &gameRepo.GetGameInput{
			GameID: input.GameID,
		})
		if err == nil {
			return &GetGameOutput{Game: game}, nil
		}
		if !errors.Is(err, gameRepo.ErrGameNotFound) {
			return nil, fmt.Errorf("failed to get game %s: %w", input.GameID, err)
		}

		out, err := s.gameRepo.SaveGame(ctx, &gameRepo.SaveGameInput{
			Game:            exchange.NewGame(input.GameID, s.defaults, s.clock.Now()),
			ExpectedVersion: 0,
		})
		if errors.Is(err, exchange.ErrConcurrentModification) {
			// Someone else created it first, read theirs
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create game %s: %w", input.GameID, err)
		}

		log.Info().
			Str("game_id", input.GameID).
			Msg("game created")

		s.publish(ctx, out.Game)
		return &GetGameOutput{Game: out.Game, Created: true}, nil
	}

	return nil, fmt.Errorf("%w: could not create game %s", exchange.ErrConcurrentModification, input.GameID)
}

// ListGames returns a summary of every stored game, oldest first
func (s *service) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	if input == nil {
		input = &ListGamesInput{}
	}

	var games []*models.Game
	if input.Phase == models.GamePhaseVoting {
		out, err := s.gameRepo.ListVotingGames(ctx, &gameRepo.ListVotingGamesInput{})
		if err != nil {
			return nil, fmt.Errorf("failed to list voting games: %w", err)
		}
		games = out.Games
	} else {
		out, err := s.gameRepo.ListGames(ctx, &gameRepo.ListGamesInput{})
		if err != nil {
			return nil, fmt.Errorf("failed to list games: %w", err)
		}
		games = out.Games
	}

	summaries := make([]*GameSummary, 0, len(games))
	for _, game := range games {
		if input.Phase != "" && game.Phase != input.Phase {
			continue
		}
		summaries = append(summaries, &GameSummary{
			ID:               game.ID,
			Phase:            game.Phase,
			Version:          game.Version,
			ParticipantCount: len(game.Participants),
			GiftCount:        len(game.Gifts),
			CreatedAt:        game.CreatedAt,
			LastActivity:     game.LastActivity,
		})
	}

	return &ListGamesOutput{
		Games: summaries,
	}, nil
}

// DeleteGame removes a game and drops its voting deadline
func (s *service) DeleteGame(ctx context.Context, input *DeleteGameInput) (*DeleteGameOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", exchange.ErrInvalidInput)
	}
	if err := validateGameID(input.GameID); err != nil {
		return nil, err
	}

	err := s.gameRepo.DeleteGame(ctx, &gameRepo.DeleteGameInput{
		GameID: input.GameID,
	})
	if errors.Is(err, gameRepo.ErrGameNotFound) {
		return nil, fmt.Errorf("%w: game %s", exchange.ErrNotFound, input.GameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete game %s: %w", input.GameID, err)
	}

	if s.deadlines != nil {
		s.deadlines.Cancel(input.GameID)
	}

	log.Info().
		Str("game_id", input.GameID).
		Msg("game deleted")

	return &DeleteGameOutput{}, nil
}

// Apply runs load, apply and compare-and-swap save, retrying from a fresh
// load when another writer got there first. Rule violations are returned
// straight away and nothing is saved.
func (s *service) Apply(ctx context.Context, input *ApplyInput) (*ApplyOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", exchange.ErrInvalidInput)
	}
	if input.Action == nil {
		return nil, ErrNilAction
	}
	if err := validateGameID(input.GameID); err != nil {
		return nil, err
	}

	logger := log.With().
		Str("game_id", input.GameID).
		Str("action", input.Action.Kind()).
		Logger()

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		current, err := s.load(ctx, input.GameID)
		if err != nil {
			return nil, err
		}

		next, err := exchange.Apply(current, input.Action, exchange.Env{
			Now:      s.clock.Now(),
			IDs:      s.uuidGenerator,
			Defaults: s.defaults,
		})
		if err != nil {
			logger.Debug().Err(err).Msg("action rejected")
			return nil, err
		}

		out, err := s.gameRepo.SaveGame(ctx, &gameRepo.SaveGameInput{
			Game:            next,
			ExpectedVersion: current.Version,
		})
		if errors.Is(err, exchange.ErrConcurrentModification) || errors.Is(err, gameRepo.ErrGameNotFound) {
			logger.Debug().
				Err(err).
				Int("attempt", attempt).
				Int64("expected_version", current.Version).
				Msg("save lost a race, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save game %s: %w", input.GameID, err)
		}

		logger.Info().
			Int64("version", out.Game.Version).
			Str("phase", string(out.Game.Phase)).
			Msg("action applied")

		s.syncDeadline(out.Game)
		s.publish(ctx, out.Game)

		return &ApplyOutput{
			Game:     out.Game,
			Attempts: attempt,
		}, nil
	}

	logger.Warn().Int("attempts", s.maxRetries).Msg("giving up after repeated conflicts")
	return nil, fmt.Errorf("%w: game %s changed %d times in a row", exchange.ErrConcurrentModification, input.GameID, s.maxRetries)
}

// load returns the stored game, or an unsaved fresh one at version zero
func (s *service) load(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := s.gameRepo.GetGame(ctx, &gameRepo.GetGameInput{
		GameID: gameID,
	})
	if errors.Is(err, gameRepo.ErrGameNotFound) {
		return exchange.NewGame(gameID, s.defaults, s.clock.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}
	return game, nil
}

func (s *service) syncDeadline(game *models.Game) {
	if s.deadlines == nil {
		return
	}

	if game.Phase == models.GamePhaseVoting && game.VotingDeadline != nil {
		s.deadlines.Schedule(game.ID, *game.VotingDeadline)
		return
	}
	s.deadlines.Cancel(game.ID)
}

// publish is fire and forget; observers catch up on the next snapshot
func (s *service) publish(ctx context.Context, game *models.Game) {
	if err := s.publisher.Publish(ctx, game.ID, game); err != nil {
		log.Warn().
			Err(err).
			Str("game_id", game.ID).
			Int64("version", game.Version).
			Msg("failed to publish game")
	}
}

func validateGameID(gameID string) error {
	if !gameIDPattern.MatchString(gameID) {
		return fmt.Errorf("%w: %w: %q", exchange.ErrInvalidInput, ErrInvalidGameID, gameID)
	}
	return nil
}
