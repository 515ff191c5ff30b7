package game

import (
	"time"

	"github.com/KirkDiggler/giftswap/internal/broadcast"
	"github.com/KirkDiggler/giftswap/internal/common/clock"
	"github.com/KirkDiggler/giftswap/internal/common/uuid"
	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	gameRepo "github.com/KirkDiggler/giftswap/internal/repositories/game"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_deadlines.go github.com/KirkDiggler/giftswap/internal/services/game DeadlineScheduler

// DeadlineScheduler is told about voting deadlines after every save
type DeadlineScheduler interface {
	// Schedule arranges for voting in gameID to expire at deadline
	Schedule(gameID string, deadline time.Time)

	// Cancel drops any pending deadline for gameID
	Cancel(gameID string)
}

// Config holds configuration for the game service
type Config struct {
	// Settings new games start with. Zero means exchange.DefaultSettings.
	DefaultSettings models.Settings

	// How many times a save that lost a race is retried. Zero means 3.
	MaxRetries int

	// Repository dependencies
	GameRepo gameRepo.Repository

	// Service dependencies
	Publisher     broadcast.Publisher
	Clock         clock.Clock
	UUIDGenerator uuid.UUID

	// Deadlines is optional
	Deadlines DeadlineScheduler
}

// GetGameInput contains parameters for loading a game
type GetGameInput struct {
	GameID string
}

// GetGameOutput contains the result of loading a game
type GetGameOutput struct {
	Game *models.Game

	// Created is true when this call created the game
	Created bool
}

// ListGamesInput contains parameters for listing games
type ListGamesInput struct {
	// Phase filters the listing when set
	Phase models.GamePhase
}

// ListGamesOutput contains the result of listing games
type ListGamesOutput struct {
	Games []*GameSummary
}

// GameSummary is the admin listing view of a game
type GameSummary struct {
	ID               string           `json:"id"`
	Phase            models.GamePhase `json:"phase"`
	Version          int64            `json:"version"`
	ParticipantCount int              `json:"participantCount"`
	GiftCount        int              `json:"giftCount"`
	CreatedAt        time.Time        `json:"createdAt"`
	LastActivity     time.Time        `json:"lastActivity"`
}

// DeleteGameInput contains parameters for deleting a game
type DeleteGameInput struct {
	GameID string
}

// DeleteGameOutput contains the result of deleting a game
type DeleteGameOutput struct {
}

// ApplyInput contains the action to apply to a game
type ApplyInput struct {
	GameID string
	Action exchange.Action
}

// ApplyOutput contains the saved snapshot after the action
type ApplyOutput struct {
	Game *models.Game

	// Attempts is how many load-apply-save rounds it took
	Attempts int
}
