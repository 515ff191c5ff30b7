package exchange

import (
	"fmt"
	"time"

	"github.com/KirkDiggler/giftswap/internal/models"
)

// EndGame stops active play. With a voting duration it opens voting until the
// deadline, otherwise it goes straight to results.
type EndGame struct {
	VotingDurationSeconds *int
}

func (a EndGame) Kind() string { return "end_game" }

func (a EndGame) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseActive, "end the game"); err != nil {
		return err
	}

	if a.VotingDurationSeconds == nil {
		return transition(game, env, models.GamePhaseResults, nil)
	}
	if *a.VotingDurationSeconds <= 0 {
		return fmt.Errorf("%w: voting duration must be positive", ErrInvalidInput)
	}

	deadline := env.Now.Add(time.Duration(*a.VotingDurationSeconds) * time.Second)
	return transition(game, env, models.GamePhaseVoting, &deadline)
}

// EndVoting closes voting early
type EndVoting struct{}

func (a EndVoting) Kind() string { return "end_voting" }

func (a EndVoting) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseVoting, "end voting"); err != nil {
		return err
	}
	return transition(game, env, models.GamePhaseResults, nil)
}

// ExpireVoting closes voting once its deadline has passed. Schedulers call it
// when they believe the deadline is due; it refuses if it is not.
type ExpireVoting struct{}

func (a ExpireVoting) Kind() string { return "expire_voting" }

func (a ExpireVoting) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseVoting, "expire voting"); err != nil {
		return err
	}
	if game.VotingDeadline == nil || env.Now.Before(*game.VotingDeadline) {
		return fmt.Errorf("%w: voting deadline has not passed", ErrInvalidPhaseTransition)
	}
	return transition(game, env, models.GamePhaseResults, nil)
}

// ReopenVoting moves results back to voting with a new deadline
type ReopenVoting struct {
	DurationSeconds int
}

func (a ReopenVoting) Kind() string { return "reopen_voting" }

func (a ReopenVoting) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseResults, "reopen voting"); err != nil {
		return err
	}
	if a.DurationSeconds <= 0 {
		return fmt.Errorf("%w: voting duration must be positive", ErrInvalidInput)
	}

	deadline := env.Now.Add(time.Duration(a.DurationSeconds) * time.Second)
	return transition(game, env, models.GamePhaseVoting, &deadline)
}

// Downvote toggles a participant's downvote on a gift
type Downvote struct {
	ParticipantID string
	GiftID        string
}

func (a Downvote) Kind() string { return "downvote" }

func (a Downvote) apply(game *models.Game, env Env) error {
	if err := requirePhase(game, models.GamePhaseVoting, "downvote"); err != nil {
		return err
	}

	p, err := findParticipant(game, a.ParticipantID)
	if err != nil {
		return err
	}
	gift, err := findGift(game, a.GiftID)
	if err != nil {
		return err
	}

	if gift.HasDownvote(p.ID) {
		kept := gift.Downvotes[:0]
		for _, id := range gift.Downvotes {
			if id != p.ID {
				kept = append(kept, id)
			}
		}
		gift.Downvotes = kept
		return nil
	}

	gift.Downvotes = append(gift.Downvotes, p.ID)
	return nil
}

// SetPhase moves the game to Target, picking EndGame, EndVoting or
// ReopenVoting from the current phase. Voting always needs a duration.
type SetPhase struct {
	Target          models.GamePhase
	DurationSeconds *int
}

func (a SetPhase) Kind() string { return "set_phase" }

func (a SetPhase) apply(game *models.Game, env Env) error {
	switch a.Target {
	case models.GamePhaseVoting:
		if a.DurationSeconds == nil {
			return fmt.Errorf("%w: voting needs a duration", ErrInvalidInput)
		}
		if game.Phase.IsResults() {
			return ReopenVoting{DurationSeconds: *a.DurationSeconds}.apply(game, env)
		}
		return EndGame{VotingDurationSeconds: a.DurationSeconds}.apply(game, env)
	case models.GamePhaseResults:
		if game.Phase.IsVoting() {
			return EndVoting{}.apply(game, env)
		}
		return EndGame{}.apply(game, env)
	case models.GamePhaseActive:
		return fmt.Errorf("%w: use a reset to start over", ErrInvalidPhaseTransition)
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, a.Target)
	}
}

func transition(game *models.Game, env Env, target models.GamePhase, deadline *time.Time) error {
	if !game.Phase.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidPhaseTransition, game.Phase, target)
	}

	previous := game.Phase
	game.Phase = target
	game.VotingDeadline = deadline

	message := fmt.Sprintf("%s ended, now %s", previous, target)
	if deadline != nil {
		message = fmt.Sprintf("%s until %s", message, deadline.UTC().Format(time.RFC3339))
	}
	record(game, env, &models.HistoryEntry{
		Type:    models.HistoryTypePhase,
		Message: message,
	})
	return nil
}
