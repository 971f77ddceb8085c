package pkg

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

const (
	SessionCodeLength = 6
	sessionCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewSessionCode - returns a random code of uppercase letters and digits, short enough to read out loud.
func NewSessionCode() (string, error) {
	buf := make([]byte, SessionCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = sessionCodeChars[int(b)%len(sessionCodeChars)]
	}

	return string(buf), nil
}

// NewID - returns a random identifier for games and connections.
func NewID() string {
	return uuid.NewString()
}
