package models

import (
	"time"
)

// GamePhase represents the current phase of a gift exchange
type GamePhase string

const (
	// GamePhaseActive indicates gifts are being opened and stolen
	GamePhaseActive GamePhase = "active"

	// GamePhaseVoting indicates participants are downvoting gifts
	GamePhaseVoting GamePhase = "voting"

	// GamePhaseResults indicates the exchange is over and results are shown
	GamePhaseResults GamePhase = "results"
)

// IsActive returns true if gifts can still change hands
func (p GamePhase) IsActive() bool {
	return p == GamePhaseActive
}

// IsVoting returns true if downvotes are being collected
func (p GamePhase) IsVoting() bool {
	return p == GamePhaseVoting
}

// IsResults returns true if the results are being shown
func (p GamePhase) IsResults() bool {
	return p == GamePhaseResults
}

// CanTransitionTo reports whether the phase graph allows moving to target.
// Results may go back to voting when an administrator reopens it.
func (p GamePhase) CanTransitionTo(target GamePhase) bool {
	switch p {
	case GamePhaseActive:
		return target == GamePhaseVoting || target == GamePhaseResults
	case GamePhaseVoting:
		return target == GamePhaseResults
	case GamePhaseResults:
		return target == GamePhaseVoting
	default:
		return false
	}
}

// Settings are the per-game rules configured by the moderator
type Settings struct {
	// MaxSteals is how many times a gift can be stolen before it freezes
	MaxSteals int `json:"maxSteals" yaml:"max_steals"`

	// TurnDurationSeconds is the per-turn timer shown on the display
	TurnDurationSeconds int `json:"turnDurationSeconds" yaml:"turn_duration_seconds"`

	// ActivePlayerCount is how many queue slots can act at the same time
	ActivePlayerCount int `json:"activePlayerCount" yaml:"active_player_count"`

	// Paused freezes the turn timer display
	Paused bool `json:"paused" yaml:"paused"`
}

// Game is a full snapshot of one gift exchange session
type Game struct {
	// ID is the unique identifier for the game
	ID string `json:"id"`

	// Version increases by one on every successful save
	Version int64 `json:"version"`

	// Participants are everyone taking part, in no particular order
	Participants []*Participant `json:"participants"`

	// Gifts are all opened gifts
	Gifts []*Gift `json:"gifts"`

	// Settings are the rules for this game
	Settings Settings `json:"settings"`

	// CurrentTurn is the lowest sequence number still eligible for the queue
	CurrentTurn int `json:"currentTurn"`

	// Phase is the current phase of the game
	Phase GamePhase `json:"phase"`

	// VotingDeadline is when voting should close, if a duration was given
	VotingDeadline *time.Time `json:"votingDeadline,omitempty"`

	// VictimID is the participant most recently stolen from, if they have not acted yet
	VictimID string `json:"victimId,omitempty"`

	// History is the append-only action log
	History []*HistoryEntry `json:"history"`

	// CreatedAt is when the game was created
	CreatedAt time.Time `json:"createdAt"`

	// LastActivity is when the game last changed
	LastActivity time.Time `json:"lastActivity"`
}

// FindParticipant returns the participant with the given ID or nil
func (g *Game) FindParticipant(id string) *Participant {
	for _, p := range g.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindGift returns the gift with the given ID or nil
func (g *Game) FindGift(id string) *Gift {
	for _, gift := range g.Gifts {
		if gift.ID == id {
			return gift
		}
	}
	return nil
}

// GiftOwnedBy returns the gift currently held by a participant or nil
func (g *Game) GiftOwnedBy(participantID string) *Gift {
	for _, gift := range g.Gifts {
		if gift.OwnerID == participantID {
			return gift
		}
	}
	return nil
}

// NextSequence returns the sequence number for a newly added participant. It
// never falls below CurrentTurn, so a newcomer always lands in the queue.
func (g *Game) NextSequence() int {
	next := g.CurrentTurn
	if next < 1 {
		next = 1
	}
	for _, p := range g.Participants {
		if p.Sequence >= next {
			next = p.Sequence + 1
		}
	}
	return next
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}

	clone := *g
	clone.VotingDeadline = cloneTime(g.VotingDeadline)

	if g.Participants != nil {
		clone.Participants = make([]*Participant, len(g.Participants))
		for i, p := range g.Participants {
			cp := *p
			cp.TurnStartTime = cloneTime(p.TurnStartTime)
			clone.Participants[i] = &cp
		}
	}

	if g.Gifts != nil {
		clone.Gifts = make([]*Gift, len(g.Gifts))
		for i, gift := range g.Gifts {
			cg := *gift
			if gift.Images != nil {
				cg.Images = make([]*GiftImage, len(gift.Images))
				for j, img := range gift.Images {
					ci := *img
					cg.Images[j] = &ci
				}
			}
			if gift.Downvotes != nil {
				cg.Downvotes = make([]string, len(gift.Downvotes))
				copy(cg.Downvotes, gift.Downvotes)
			}
			clone.Gifts[i] = &cg
		}
	}

	if g.History != nil {
		clone.History = make([]*HistoryEntry, len(g.History))
		for i, h := range g.History {
			ch := *h
			clone.History[i] = &ch
		}
	}

	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
