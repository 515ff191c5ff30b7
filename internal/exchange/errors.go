package exchange

// ExchangeError is the error kind returned when an action is rejected
type ExchangeError string

// Error implements the error interface
func (e ExchangeError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNotFound               ExchangeError = "not found"
	ErrNotActive              ExchangeError = "participant does not have an active turn"
	ErrAlreadyHolding         ExchangeError = "participant already holds a gift"
	ErrGiftFrozen             ExchangeError = "gift is frozen"
	ErrNoTakeBacks            ExchangeError = "no take-backs"
	ErrNoOwner                ExchangeError = "gift has no owner"
	ErrOwnGift                ExchangeError = "participant already owns this gift"
	ErrInvalidPhaseTransition ExchangeError = "invalid phase transition"
	ErrConcurrentModification ExchangeError = "game was modified concurrently"
	ErrInvalidInput           ExchangeError = "invalid input"
)
