package uuid

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_uuid.go github.com/KirkDiggler/giftswap/internal/common/uuid UUID

// UUID generates identifiers for new entities
type UUID interface {
	NewUUID() string
}

// DefaultUUID implements the UUID interface using random version 4 UUIDs
type DefaultUUID struct{}

func New() *DefaultUUID {
	return &DefaultUUID{}
}

// NewUUID returns a new UUID
func (d *DefaultUUID) NewUUID() string {
	return uuid.New().String()
}

// Sequential hands out predictable IDs ("prefix-1", "prefix-2", ...)
type Sequential struct {
	prefix string

	mu sync.Mutex
	n  int
}

// NewSequential creates a Sequential generator with the given prefix
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// NewUUID returns the next ID in the sequence
func (s *Sequential) NewUUID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}
