package models

import "time"

// HistoryType is the kind of event recorded in a game's history
type HistoryType string

const (
	HistoryTypeOpen              HistoryType = "open"
	HistoryTypeSteal             HistoryType = "steal"
	HistoryTypeSkip              HistoryType = "skip"
	HistoryTypeAddParticipant    HistoryType = "add_participant"
	HistoryTypeRemoveParticipant HistoryType = "remove_participant"
	HistoryTypeEdit              HistoryType = "edit"
	HistoryTypeSettings          HistoryType = "settings"
	HistoryTypePhase             HistoryType = "phase"
	HistoryTypeReset             HistoryType = "reset"
)

// HistoryEntry is one line of the game log
type HistoryEntry struct {
	ID       string      `json:"id"`
	Type     HistoryType `json:"type"`
	ActorID  string      `json:"actorId,omitempty"`
	TargetID string      `json:"targetId,omitempty"`
	GiftID   string      `json:"giftId,omitempty"`
	Message  string      `json:"message"`
	At       time.Time   `json:"at"`
}
