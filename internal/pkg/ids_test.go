package pkg

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	seen := make(map[string]bool)
	for range 50 {
		code, err := NewSessionCode()
		require.NoError(t, err)

		assert.Regexp(t, pattern, code)
		seen[code] = true
	}

	assert.Greater(t, len(seen), 1)
}

func TestNewID(t *testing.T) {
	id := NewID()

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewID())
}
