package messaging

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
)

// service implements the Service interface
type service struct {
	rand *rand.Rand
}

// NewService creates a new messaging service
func NewService(config *ServiceConfig) (Service, error) {
	if config == nil {
		config = &ServiceConfig{}
	}

	r := config.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &service{
		rand: r,
	}, nil
}

type rejectionCopy struct {
	title   string
	neutral string
	funny   []string
}

var rejections = map[RejectionKind]rejectionCopy{
	RejectionNotFound: {
		title:   "Not Found",
		neutral: "That game, participant or gift doesn't exist.",
		funny: []string{
			"We looked under the tree. Nothing there.",
			"That one must have been re-gifted into the void.",
		},
	},
	RejectionNotActive: {
		title:   "Not Your Turn",
		neutral: "That participant doesn't have an active turn right now.",
		funny: []string{
			"Hands off the wrapping paper, it's not your turn yet!",
			"Patience! Your moment of gift-grabbing glory is coming.",
			"Easy there, Grinch. Wait your turn.",
		},
	},
	RejectionAlreadyHolding: {
		title:   "Hands Full",
		neutral: "That participant is already holding a gift.",
		funny: []string{
			"One gift per customer!",
			"You've already got something. Greedy much?",
		},
	},
	RejectionGiftFrozen: {
		title:   "Frozen Solid",
		neutral: "That gift has been stolen the maximum number of times and is locked.",
		funny: []string{
			"🧊 That gift is frozen. It has found its forever home.",
			"Too late, that one's been stolen enough for one night.",
		},
	},
	RejectionNoTakeBacks: {
		title:   "No Take-Backs",
		neutral: "You can't steal back the gift that was just taken from you.",
		funny: []string{
			"No take-backs! Let it go, let it goooo.",
			"Nice try. It's gone. Move on.",
		},
	},
	RejectionNoOwner: {
		title:   "Nobody Has That",
		neutral: "That gift isn't held by anyone, so it can't be stolen.",
		funny: []string{
			"You can't steal from nobody.",
		},
	},
	RejectionOwnGift: {
		title:   "Already Yours",
		neutral: "You already have that gift.",
		funny: []string{
			"Stealing from yourself? Bold strategy.",
		},
	},
	RejectionWrongPhase: {
		title:   "Wrong Time",
		neutral: "That can't be done in the current phase of the game.",
		funny: []string{
			"The party has moved on. Keep up!",
			"Wrong phase! Check the big screen.",
		},
	},
	RejectionConflict: {
		title:   "Too Slow",
		neutral: "Someone else changed the game at the same moment. Please try again.",
		funny: []string{
			"Someone beat you to it! Refresh and try again.",
		},
	},
	RejectionInvalidInput: {
		title:   "Hmm",
		neutral: "Some of that request didn't make sense.",
		funny: []string{
			"That doesn't look right. Check what you typed.",
		},
	},
	RejectionUnknown: {
		title:   "Something Went Wrong",
		neutral: "Something went wrong. Please try again.",
		funny: []string{
			"Santa's elves dropped something. Try again?",
		},
	},
}

// KindOf classifies an error from the game service
func KindOf(err error) RejectionKind {
	switch {
	case errors.Is(err, exchange.ErrNotFound):
		return RejectionNotFound
	case errors.Is(err, exchange.ErrNotActive):
		return RejectionNotActive
	case errors.Is(err, exchange.ErrAlreadyHolding):
		return RejectionAlreadyHolding
	case errors.Is(err, exchange.ErrGiftFrozen):
		return RejectionGiftFrozen
	case errors.Is(err, exchange.ErrNoTakeBacks):
		return RejectionNoTakeBacks
	case errors.Is(err, exchange.ErrNoOwner):
		return RejectionNoOwner
	case errors.Is(err, exchange.ErrOwnGift):
		return RejectionOwnGift
	case errors.Is(err, exchange.ErrInvalidPhaseTransition):
		return RejectionWrongPhase
	case errors.Is(err, exchange.ErrConcurrentModification):
		return RejectionConflict
	case errors.Is(err, exchange.ErrInvalidInput):
		return RejectionInvalidInput
	default:
		return RejectionUnknown
	}
}

// GetRejectionMessage explains why an action was refused
func (s *service) GetRejectionMessage(ctx context.Context, input *GetRejectionMessageInput) (*GetRejectionMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}
	if input.Err == nil {
		return nil, errors.New("error cannot be nil")
	}

	tone := input.PreferredTone
	if tone == "" {
		tone = ToneNeutral
	}

	kind := KindOf(input.Err)
	text := rejections[kind]

	message := text.neutral
	if tone == ToneFunny && len(text.funny) > 0 {
		message = text.funny[s.rand.Intn(len(text.funny))]
	}

	return &GetRejectionMessageOutput{
		Kind:    kind,
		Title:   text.title,
		Message: message,
		Tone:    tone,
	}, nil
}

// GetGameStatusMessage returns a one-liner describing where the game is at
func (s *service) GetGameStatusMessage(ctx context.Context, input *GetGameStatusMessageInput) (*GetGameStatusMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	var messages []string
	switch input.Phase {
	case models.GamePhaseActive:
		if input.ParticipantCount == 0 {
			messages = []string{
				"Nobody's signed up yet. Add some participants to get going!",
			}
			break
		}
		messages = []string{
			fmt.Sprintf("%d people, %d gifts unwrapped. Keep an eye on your loot!", input.ParticipantCount, input.GiftCount),
			fmt.Sprintf("The swap is on! %d of %d gifts are out in the wild.", input.GiftCount, input.ParticipantCount),
		}
	case models.GamePhaseVoting:
		messages = []string{
			"Voting is open! Downvote the gifts nobody should have to take home.",
			"Time to judge. Which gift is the real lump of coal?",
		}
	case models.GamePhaseResults:
		messages = []string{
			"The results are in! Thanks for playing.",
			"That's a wrap! Enjoy your loot (or re-gift it next year).",
		}
	default:
		return &GetGameStatusMessageOutput{
			Message: "Gift exchange in progress.",
		}, nil
	}

	if input.Tone == ToneNeutral {
		return &GetGameStatusMessageOutput{Message: messages[0]}, nil
	}

	return &GetGameStatusMessageOutput{
		Message: messages[s.rand.Intn(len(messages))],
	}, nil
}
