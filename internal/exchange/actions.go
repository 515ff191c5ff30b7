package exchange

import (
	"fmt"
	"strings"

	"github.com/KirkDiggler/giftswap/internal/models"
)

// OpenGift unwraps a new gift for an active participant
type OpenGift struct {
	ParticipantID string
	Description   string
}

func (a OpenGift) Kind() string { return "open_gift" }

func (a OpenGift) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseActive, "open a gift"); err != nil {
		return err
	}

	description := strings.TrimSpace(a.Description)
	if description == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
	}

	p, err := findParticipant(game, a.ParticipantID)
	if err != nil {
		return err
	}
	if !IsActive(game, p.ID) {
		return fmt.Errorf("%w: %s", ErrNotActive, p.Name)
	}
	if p.HeldGiftID != "" {
		return fmt.Errorf("%w: %s", ErrAlreadyHolding, p.Name)
	}

	gift := &models.Gift{
		ID:          env.IDs.NewUUID(),
		Description: description,
		OwnerID:     p.ID,
		Images:      []*models.GiftImage{},
		Downvotes:   []string{},
	}
	game.Gifts = append(game.Gifts, gift)

	p.HeldGiftID = gift.ID
	p.IsVictim = false
	p.Status = models.ParticipantStatusDone
	if game.VictimID == p.ID {
		game.VictimID = ""
	}

	advanceTurn(game)

	record(game, env, &models.HistoryEntry{
		Type:    models.HistoryTypeOpen,
		ActorID: p.ID,
		GiftID:  gift.ID,
		Message: fmt.Sprintf("%s opened %s", p.Name, gift.Description),
	})
	return nil
}

// StealGift takes an owned gift from another participant
type StealGift struct {
	ThiefID string
	GiftID  string
}

func (a StealGift) Kind() string { return "steal_gift" }

func (a StealGift) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseActive, "steal a gift"); err != nil {
		return err
	}

	thief, err := findParticipant(game, a.ThiefID)
	if err != nil {
		return err
	}
	gift, err := findGift(game, a.GiftID)
	if err != nil {
		return err
	}

	// Take-backs are reported even when the gift is frozen or the thief is inactive
	if thief.ForbiddenGiftID == gift.ID {
		return fmt.Errorf("%w: %s cannot steal %s straight back", ErrNoTakeBacks, thief.Name, gift.Description)
	}
	if !IsActive(game, thief.ID) {
		return fmt.Errorf("%w: %s", ErrNotActive, thief.Name)
	}
	if gift.IsFrozen {
		return fmt.Errorf("%w: %s", ErrGiftFrozen, gift.Description)
	}
	if gift.OwnerID == "" {
		return fmt.Errorf("%w: %s", ErrNoOwner, gift.Description)
	}
	if gift.OwnerID == thief.ID {
		return fmt.Errorf("%w: %s", ErrOwnGift, gift.Description)
	}
	if thief.HeldGiftID != "" {
		return fmt.Errorf("%w: %s", ErrAlreadyHolding, thief.Name)
	}
	victim := game.FindParticipant(gift.OwnerID)
	if victim == nil {
		return fmt.Errorf("%w: owner %q of %s is gone", ErrNoOwner, gift.OwnerID, gift.Description)
	}

	victim.HeldGiftID = ""
	victim.IsVictim = true
	victim.ForbiddenGiftID = gift.ID
	victim.TimesStolenFrom++
	victim.Status = models.ParticipantStatusWaiting

	gift.OwnerID = thief.ID
	gift.StealCount++
	if gift.StealCount >= game.Settings.MaxSteals {
		gift.IsFrozen = true
	}

	thief.HeldGiftID = gift.ID
	thief.IsVictim = false
	thief.ForbiddenGiftID = ""
	thief.Status = models.ParticipantStatusDone

	game.VictimID = victim.ID
	advanceTurn(game)

	message := fmt.Sprintf("%s stole %s from %s", thief.Name, gift.Description, victim.Name)
	if gift.IsFrozen {
		message += " (frozen)"
	}
	record(game, env, &models.HistoryEntry{
		Type:     models.HistoryTypeSteal,
		ActorID:  thief.ID,
		TargetID: victim.ID,
		GiftID:   gift.ID,
		Message:  message,
	})
	return nil
}

// AdvanceTurn skips the participant at the head of the waiting queue
type AdvanceTurn struct{}

func (a AdvanceTurn) Kind() string { return "advance_turn" }

func (a AdvanceTurn) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseActive, "advance the turn"); err != nil {
		return err
	}

	queue := WaitingQueue(game)
	if len(queue) == 0 {
		return fmt.Errorf("%w: nobody is waiting", ErrNotActive)
	}

	head := queue[0]
	game.CurrentTurn = head.Sequence + 1
	advanceTurn(game)

	record(game, env, &models.HistoryEntry{
		Type:    models.HistoryTypeSkip,
		ActorID: head.ID,
		Message: fmt.Sprintf("%s was skipped", head.Name),
	})
	return nil
}

// ResetTimer restarts a participant's turn timer
type ResetTimer struct {
	ParticipantID string
}

func (a ResetTimer) Kind() string { return "reset_timer" }

func (a ResetTimer) apply(game *models.Game, env Env) error {
	p, err := findParticipant(game, a.ParticipantID)
	if err != nil {
		return err
	}

	now := env.Now
	p.TurnStartTime = &now
	return nil
}

// EditGift changes a gift's description
type EditGift struct {
	GiftID      string
	Description string
}

func (a EditGift) Kind() string { return "edit_gift" }

func (a EditGift) apply(game *models.Game, env Env) error {
	description := strings.TrimSpace(a.Description)
	if description == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
	}

	gift, err := findGift(game, a.GiftID)
	if err != nil {
		return err
	}
	if gift.Description == description {
		return nil
	}

	previous := gift.Description
	gift.Description = description

	record(game, env, &models.HistoryEntry{
		Type:    models.HistoryTypeEdit,
		GiftID:  gift.ID,
		Message: fmt.Sprintf("%s renamed to %s", previous, description),
	})
	return nil
}
