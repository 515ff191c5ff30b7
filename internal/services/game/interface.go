package game

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/giftswap/internal/services/game Service

import "context"

// Service defines the interface for gift exchange operations
type Service interface {
	// GetGame returns the current snapshot, creating the game on first reference
	GetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error)

	// ListGames returns every stored game for the admin listing
	ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error)

	// DeleteGame removes a game entirely
	DeleteGame(ctx context.Context, input *DeleteGameInput) (*DeleteGameOutput, error)

	// Apply validates and applies one action, saves the result and publishes it
	Apply(ctx context.Context, input *ApplyInput) (*ApplyOutput, error)
}
