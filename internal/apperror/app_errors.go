package apperror

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session is full")
	ErrSessionExists   = errors.New("session already exists")
	ErrGameNotFound    = errors.New("game not found")
	ErrNotConnected    = errors.New("not connected to relay")
	ErrRelayNotAllowed = errors.New("relay not allowed")
)

// FromMessage - maps an error string received over the wire back to its sentinel.
func FromMessage(message string) error {
	for _, err := range []error{ErrSessionNotFound, ErrSessionFull, ErrSessionExists, ErrGameNotFound} {
		if err.Error() == message {
			return err
		}
	}

	return errors.New(message)
}
