package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_clock.go github.com/KirkDiggler/giftswap/internal/common/clock Clock

// Clock is the time source used by services and the deadline scheduler.
// In production it is clockwork's real clock; tests use clockwork.NewFakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// New returns a clock backed by the system time
func New() Clock {
	return clockwork.NewRealClock()
}
