// Package scheduler closes voting when its deadline passes. Deadlines are
// authoritative in the snapshot; the scheduler only decides when to ask the
// game service to expire them, so firing late or twice is harmless.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KirkDiggler/giftswap/internal/common/clock"
	"github.com/KirkDiggler/giftswap/internal/exchange"
	gameRepo "github.com/KirkDiggler/giftswap/internal/repositories/game"
	gameService "github.com/KirkDiggler/giftswap/internal/services/game"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const defaultQueueSize = 64

// Config holds configuration for the scheduler
type Config struct {
	Clock clock.Clock

	// GameRepo is used to reschedule voting games on start
	GameRepo gameRepo.Repository

	// QueueSize bounds how many fired deadlines can wait for processing
	QueueSize int
}

// Scheduler keeps one timer per game in the voting phase
type Scheduler struct {
	clock    clock.Clock
	gameRepo gameRepo.Repository

	mu      sync.Mutex
	timers  map[string]*deadlineTimer
	stopped bool

	workCh chan string
	done   chan struct{}
	wg     sync.WaitGroup
}

type deadlineTimer struct {
	deadline time.Time
	timer    clockwork.Timer
	stop     chan struct{}
}

// New creates a scheduler. Nothing expires until Start is running.
func New(cfg *Config) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	if cfg.GameRepo == nil {
		return nil, errors.New("game repository cannot be nil")
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Scheduler{
		clock:    cfg.Clock,
		gameRepo: cfg.GameRepo,
		timers:   make(map[string]*deadlineTimer),
		workCh:   make(chan string, queueSize),
		done:     make(chan struct{}),
	}, nil
}

// Schedule arranges for voting in gameID to be expired at deadline, replacing
// any earlier deadline for the game. Scheduling the same deadline twice, or
// after the scheduler has stopped, is a no-op.
func (s *Scheduler) Schedule(gameID string, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.timers[gameID]; ok {
		if existing.deadline.Equal(deadline) {
			return
		}
		existing.cancel()
		log.Debug().Str("game_id", gameID).Msg("replaced voting deadline")
	}

	duration := deadline.Sub(s.clock.Now())
	if duration < 0 {
		duration = 0
	}

	dt := &deadlineTimer{
		deadline: deadline,
		timer:    s.clock.NewTimer(duration),
		stop:     make(chan struct{}),
	}
	s.timers[gameID] = dt

	s.wg.Add(1)
	go s.wait(gameID, dt)

	log.Debug().
		Str("game_id", gameID).
		Time("deadline", deadline).
		Dur("duration", duration).
		Msg("scheduled voting deadline")
}

// Cancel drops the pending deadline for gameID, if any
func (s *Scheduler) Cancel(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dt, ok := s.timers[gameID]; ok {
		dt.cancel()
		delete(s.timers, gameID)
		log.Debug().Str("game_id", gameID).Msg("cancelled voting deadline")
	}
}

// Deadline returns the pending deadline for gameID
func (s *Scheduler) Deadline(gameID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt, ok := s.timers[gameID]
	if !ok {
		return time.Time{}, false
	}
	return dt.deadline, true
}

// Start reschedules every game currently voting, then expires deadlines as
// they fire until ctx is cancelled. It returns once every timer goroutine has
// exited; a stopped scheduler cannot be restarted.
func (s *Scheduler) Start(ctx context.Context, games gameService.Service) error {
	if games == nil {
		return errors.New("game service cannot be nil")
	}

	if err := s.recover(ctx); err != nil {
		return err
	}

	log.Info().Msg("voting deadline scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			s.wg.Wait()
			log.Info().Msg("voting deadline scheduler shutting down")
			return nil
		case gameID := <-s.workCh:
			s.expire(ctx, games, gameID)
		}
	}
}

func (s *Scheduler) recover(ctx context.Context) error {
	out, err := s.gameRepo.ListVotingGames(ctx, &gameRepo.ListVotingGamesInput{})
	if err != nil {
		return fmt.Errorf("failed to list voting games: %w", err)
	}

	for _, game := range out.Games {
		if game.VotingDeadline == nil {
			continue
		}
		s.Schedule(game.ID, *game.VotingDeadline)
	}

	log.Info().Int("games", len(out.Games)).Msg("recovered voting deadlines")
	return nil
}

func (s *Scheduler) expire(ctx context.Context, games gameService.Service, gameID string) {
	_, err := games.Apply(ctx, &gameService.ApplyInput{
		GameID: gameID,
		Action: exchange.ExpireVoting{},
	})

	switch {
	case err == nil:
		log.Info().Str("game_id", gameID).Msg("voting closed at deadline")
	case errors.Is(err, exchange.ErrInvalidPhaseTransition):
		// Voting already ended, or the deadline moved
		log.Debug().Err(err).Str("game_id", gameID).Msg("nothing to expire")
	default:
		log.Error().Err(err).Str("game_id", gameID).Msg("failed to expire voting")
	}
}

// wait hands gameID to the work queue when its timer fires
func (s *Scheduler) wait(gameID string, dt *deadlineTimer) {
	defer s.wg.Done()

	select {
	case <-dt.timer.Chan():
	case <-dt.stop:
		return
	}

	s.mu.Lock()
	if s.timers[gameID] != dt {
		// Cancelled or replaced while firing
		s.mu.Unlock()
		return
	}
	delete(s.timers, gameID)
	s.mu.Unlock()

	select {
	case s.workCh <- gameID:
		log.Debug().Str("game_id", gameID).Msg("voting deadline fired")
	case <-s.done:
	}
}

func (s *Scheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		s.stopped = true
		close(s.done)
	}

	for gameID, dt := range s.timers {
		dt.cancel()
		delete(s.timers, gameID)
	}
}

// cancel stops the timer and releases its goroutine. Callers hold s.mu.
func (dt *deadlineTimer) cancel() {
	if !dt.timer.Stop() {
		select {
		case <-dt.timer.Chan():
		default:
		}
	}
	close(dt.stop)
}
