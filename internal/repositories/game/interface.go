package game

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/giftswap/internal/repositories/game Repository

import (
	"context"

	"github.com/KirkDiggler/giftswap/internal/models"
)

// Repository defines the interface for game snapshot persistence
type Repository interface {
	// GetGame retrieves a game by ID
	GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error)

	// SaveGame persists a game if the stored version still matches ExpectedVersion.
	// An ExpectedVersion of zero creates the game and fails if it already exists.
	SaveGame(ctx context.Context, input *SaveGameInput) (*SaveGameOutput, error)

	// DeleteGame removes a game
	DeleteGame(ctx context.Context, input *DeleteGameInput) error

	// ListGames retrieves every stored game
	ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error)

	// ListVotingGames retrieves the games currently collecting downvotes
	ListVotingGames(ctx context.Context, input *ListVotingGamesInput) (*ListVotingGamesOutput, error)
}
