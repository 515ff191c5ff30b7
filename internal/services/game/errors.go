package game

// GameError is a custom error type for game service errors
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNilConfig        GameError = "config cannot be nil"
	ErrNilGameRepo      GameError = "game repository cannot be nil"
	ErrNilPublisher     GameError = "publisher cannot be nil"
	ErrNilClock         GameError = "clock cannot be nil"
	ErrNilUUIDGenerator GameError = "UUID generator cannot be nil"
	ErrNilAction        GameError = "action cannot be nil"
	ErrInvalidGameID    GameError = "game ID must be 1-64 letters, digits, dashes or underscores"
)
