package game

import (
	"errors"

	"github.com/KirkDiggler/giftswap/internal/models"
)

// ErrGameNotFound is returned when a game is not found
var ErrGameNotFound = errors.New("game not found")

type GetGameInput struct {
	GameID string
}

type SaveGameInput struct {
	Game            *models.Game
	ExpectedVersion int64
}

type SaveGameOutput struct {
	// Game is the stored snapshot with its new version
	Game *models.Game
}

type DeleteGameInput struct {
	GameID string
}

type ListGamesInput struct {
}

type ListGamesOutput struct {
	Games []*models.Game
}

type ListVotingGamesInput struct {
}

type ListVotingGamesOutput struct {
	Games []*models.Game
}
