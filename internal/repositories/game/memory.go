package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
)

// memoryRepository keeps games in process. It is used when no Redis address is
// configured and in tests.
type memoryRepository struct {
	mu    sync.RWMutex
	games map[string]*models.Game
}

// NewMemory creates an empty in-memory game repository
func NewMemory() *memoryRepository {
	return &memoryRepository{
		games: make(map[string]*models.Game),
	}
}

func (r *memoryRepository) GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.games[input.GameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return game.Clone(), nil
}

func (r *memoryRepository) SaveGame(ctx context.Context, input *SaveGameInput) (*SaveGameOutput, error) {
	if input == nil || input.Game == nil {
		return nil, errors.New("input and game cannot be nil")
	}
	if input.Game.ID == "" {
		return nil, errors.New("game ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.games[input.Game.ID]
	if !ok && input.ExpectedVersion != 0 {
		return nil, ErrGameNotFound
	}
	if ok && current.Version != input.ExpectedVersion {
		return nil, fmt.Errorf("%w: game %s is at version %d, expected %d",
			exchange.ErrConcurrentModification, input.Game.ID, current.Version, input.ExpectedVersion)
	}

	next := input.Game.Clone()
	next.Version = input.ExpectedVersion + 1
	r.games[next.ID] = next

	return &SaveGameOutput{
		Game: next.Clone(),
	}, nil
}

func (r *memoryRepository) DeleteGame(ctx context.Context, input *DeleteGameInput) error {
	if input == nil || input.GameID == "" {
		return errors.New("input and game ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[input.GameID]; !ok {
		return ErrGameNotFound
	}
	delete(r.games, input.GameID)
	return nil
}

func (r *memoryRepository) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	return &ListGamesOutput{
		Games: r.filter(func(*models.Game) bool { return true }),
	}, nil
}

func (r *memoryRepository) ListVotingGames(ctx context.Context, input *ListVotingGamesInput) (*ListVotingGamesOutput, error) {
	return &ListVotingGamesOutput{
		Games: r.filter(func(g *models.Game) bool { return g.Phase == models.GamePhaseVoting }),
	}, nil
}

func (r *memoryRepository) filter(keep func(*models.Game) bool) []*models.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]*models.Game, 0, len(r.games))
	for _, game := range r.games {
		if keep(game) {
			games = append(games, game.Clone())
		}
	}
	sortGames(games)
	return games
}
