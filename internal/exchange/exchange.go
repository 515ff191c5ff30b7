// Package exchange holds the gift exchange state machine. Every rule lives in an
// Action; Apply runs one action against a copy of a snapshot and returns the
// next snapshot or the reason it was rejected. Nothing here performs I/O.
package exchange

import (
	"fmt"
	"time"

	"github.com/KirkDiggler/giftswap/internal/common/uuid"
	"github.com/KirkDiggler/giftswap/internal/models"
)

// Env carries the inputs an action may need besides the snapshot
type Env struct {
	// Now is the time the action is applied
	Now time.Time

	// IDs generates identifiers for new gifts, participants, images and history entries
	IDs uuid.UUID

	// Defaults are the settings a reset game returns to. Zero means DefaultSettings.
	Defaults models.Settings
}

// Action is a single state transition
type Action interface {
	// Kind is a short identifier used in logs
	Kind() string

	apply(game *models.Game, env Env) error
}

// DefaultSettings returns the rules a game starts with when nothing is configured
func DefaultSettings() models.Settings {
	return models.Settings{
		MaxSteals:           3,
		TurnDurationSeconds: 60,
		ActivePlayerCount:   1,
	}
}

// NewGame returns an empty game in the active phase
func NewGame(id string, settings models.Settings, now time.Time) *models.Game {
	return &models.Game{
		ID:           id,
		Participants: []*models.Participant{},
		Gifts:        []*models.Gift{},
		Settings:     settings,
		CurrentTurn:  1,
		Phase:        models.GamePhaseActive,
		History:      []*models.HistoryEntry{},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Apply runs action against a deep copy of game. The input snapshot is never
// modified; on error the returned game is nil.
func Apply(game *models.Game, action Action, env Env) (*models.Game, error) {
	if game == nil {
		return nil, fmt.Errorf("%w: game", ErrNotFound)
	}
	if action == nil {
		return nil, fmt.Errorf("%w: action cannot be nil", ErrInvalidInput)
	}
	if env.IDs == nil {
		env.IDs = uuid.New()
	}

	next := game.Clone()

	before := make(map[string]bool)
	for _, p := range ActiveParticipants(next) {
		before[p.ID] = true
	}

	if err := action.apply(next, env); err != nil {
		return nil, err
	}

	// Anyone who just gained a slot starts their timer now
	for _, p := range ActiveParticipants(next) {
		if !before[p.ID] {
			now := env.Now
			p.TurnStartTime = &now
		}
	}

	next.LastActivity = env.Now
	return next, nil
}

// advanceTurn moves CurrentTurn to the lowest waiting, non-victim sequence at
// or after it. When nobody is left it moves past the last sequence.
func advanceTurn(game *models.Game) {
	next := -1
	last := 0
	for _, p := range game.Participants {
		if p.Sequence > last {
			last = p.Sequence
		}
		if p.Status != models.ParticipantStatusWaiting || p.IsVictim || p.Sequence < game.CurrentTurn {
			continue
		}
		if next == -1 || p.Sequence < next {
			next = p.Sequence
		}
	}

	if next == -1 {
		next = last + 1
		if next < game.CurrentTurn {
			next = game.CurrentTurn
		}
	}
	game.CurrentTurn = next
}

func record(game *models.Game, env Env, entry *models.HistoryEntry) {
	entry.ID = env.IDs.NewUUID()
	entry.At = env.Now
	game.History = append(game.History, entry)
}

func findParticipant(game *models.Game, id string) (*models.Participant, error) {
	p := game.FindParticipant(id)
	if p == nil {
		return nil, fmt.Errorf("%w: participant %q", ErrNotFound, id)
	}
	return p, nil
}

func findGift(game *models.Game, id string) (*models.Gift, error) {
	gift := game.FindGift(id)
	if gift == nil {
		return nil, fmt.Errorf("%w: gift %q", ErrNotFound, id)
	}
	return gift, nil
}

func requirePhase(game *models.Game, phase models.GamePhase, action string) error {
	if game.Phase != phase {
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidPhaseTransition, action, game.Phase)
	}
	return nil
}
