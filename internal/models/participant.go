package models

import (
	"time"
)

// ParticipantStatus represents where a participant is in the exchange
type ParticipantStatus string

const (
	// ParticipantStatusWaiting indicates a participant still has to act
	ParticipantStatusWaiting ParticipantStatus = "waiting"

	// ParticipantStatusDone indicates a participant holds a gift and has nothing to do
	ParticipantStatusDone ParticipantStatus = "done"
)

// Participant represents one person in a gift exchange
type Participant struct {
	// ID is the unique identifier for the participant within the game
	ID string `json:"id"`

	// Name is the display name
	Name string `json:"name"`

	// Sequence is the participant's position in turn order
	Sequence int `json:"sequence"`

	// Status is the current state of the participant
	Status ParticipantStatus `json:"status"`

	// HeldGiftID is the gift the participant currently holds
	HeldGiftID string `json:"heldGiftId,omitempty"`

	// ForbiddenGiftID is the gift just stolen from them, which they may not steal straight back
	ForbiddenGiftID string `json:"forbiddenGiftId,omitempty"`

	// IsVictim is true between losing a gift and acting again
	IsVictim bool `json:"isVictim"`

	// TurnStartTime is when the participant's current turn started
	TurnStartTime *time.Time `json:"turnStartTime,omitempty"`

	// TimesStolenFrom counts how often gifts were taken from this participant
	TimesStolenFrom int `json:"timesStolenFrom"`
}

// IsDone returns true if the participant has nothing left to do
func (p *Participant) IsDone() bool {
	return p.Status == ParticipantStatusDone
}
