package messaging

import (
	"math/rand"

	"github.com/KirkDiggler/giftswap/internal/models"
)

// MessageTone represents the tone of a message
type MessageTone string

const (
	// ToneNeutral is a plain, explanatory tone
	ToneNeutral MessageTone = "neutral"

	// ToneFunny is a humorous tone
	ToneFunny MessageTone = "funny"
)

// RejectionKind groups rejections by the rule that was broken
type RejectionKind string

const (
	RejectionNotFound       RejectionKind = "not_found"
	RejectionNotActive      RejectionKind = "not_active"
	RejectionAlreadyHolding RejectionKind = "already_holding"
	RejectionGiftFrozen     RejectionKind = "gift_frozen"
	RejectionNoTakeBacks    RejectionKind = "no_take_backs"
	RejectionNoOwner        RejectionKind = "no_owner"
	RejectionOwnGift        RejectionKind = "own_gift"
	RejectionWrongPhase     RejectionKind = "wrong_phase"
	RejectionConflict       RejectionKind = "conflict"
	RejectionInvalidInput   RejectionKind = "invalid_input"
	RejectionUnknown        RejectionKind = "unknown"
)

// GetRejectionMessageInput is the input for GetRejectionMessage
type GetRejectionMessageInput struct {
	// Err is the error returned by the game service
	Err error

	// PreferredTone is the preferred tone for the message (optional)
	PreferredTone MessageTone
}

// GetRejectionMessageOutput is the output for GetRejectionMessage
type GetRejectionMessageOutput struct {
	Kind    RejectionKind
	Title   string
	Message string
	Tone    MessageTone
}

// GetGameStatusMessageInput is the input for GetGameStatusMessage
type GetGameStatusMessageInput struct {
	Phase            models.GamePhase
	ParticipantCount int
	GiftCount        int
	Tone             MessageTone
}

// GetGameStatusMessageOutput is the output for GetGameStatusMessage
type GetGameStatusMessageOutput struct {
	Message string
}

// ServiceConfig contains configuration for the messaging service
type ServiceConfig struct {
	// Rand picks between equivalent messages. Seeded from the clock when nil.
	Rand *rand.Rand
}
