// Package broadcast pushes game snapshots to whoever is watching: websocket
// clients on this instance, other instances through Redis or NATS, and an
// optional Discord channel.
package broadcast

//go:generate mockgen -package=mocks -destination=mocks/mock_publisher.go github.com/KirkDiggler/giftswap/internal/broadcast Publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KirkDiggler/giftswap/internal/models"
)

// Publisher delivers a saved snapshot to observers
type Publisher interface {
	// Publish sends the snapshot for gameID. Delivery is best effort.
	Publish(ctx context.Context, gameID string, game *models.Game) error
}

// Multi publishes to every publisher in order and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, gameID string, game *models.Game) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, gameID, game); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func encodeSnapshot(game *models.Game) ([]byte, error) {
	if game == nil {
		return nil, errors.New("game cannot be nil")
	}

	data, err := json.Marshal(game)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*models.Game, error) {
	var game models.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}
	if game.ID == "" {
		return nil, errors.New("snapshot has no game ID")
	}
	return &game, nil
}
