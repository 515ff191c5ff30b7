package messaging

import "context"

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/KirkDiggler/giftswap/internal/services/messaging Service

// Service turns game outcomes into text people read at the party
type Service interface {
	// GetRejectionMessage explains why an action was refused
	GetRejectionMessage(ctx context.Context, input *GetRejectionMessageInput) (*GetRejectionMessageOutput, error)

	// GetGameStatusMessage returns a one-liner describing where the game is at
	GetGameStatusMessage(ctx context.Context, input *GetGameStatusMessageInput) (*GetGameStatusMessageOutput, error)
}
