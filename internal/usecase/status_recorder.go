package usecase

import (
	"sync"

	"github.com/rocketscienceinc/punto-backend/internal/entity"
)

const maxRecordedStatuses = 50

// StatusRecorder is a presenter that keeps what was last rendered, for callers
// that poll the game instead of drawing it.
type StatusRecorder struct {
	mu       sync.RWMutex
	board    *entity.GameState
	statuses []string
}

func NewStatusRecorder() *StatusRecorder {
	return &StatusRecorder{}
}

func (that *StatusRecorder) RenderBoard(state *entity.GameState) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.board = state
}

// RenderHand - hands are part of the rendered board already.
func (that *StatusRecorder) RenderHand(*entity.Player) {}

func (that *StatusRecorder) RenderStatus(message string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.statuses = append(that.statuses, message)
	if len(that.statuses) > maxRecordedStatuses {
		that.statuses = that.statuses[len(that.statuses)-maxRecordedStatuses:]
	}
}

// Statuses - returns the recent status lines, oldest first.
func (that *StatusRecorder) Statuses() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return append([]string{}, that.statuses...)
}

// Board - returns the last rendered state. Callers must not modify it.
func (that *StatusRecorder) Board() *entity.GameState {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.board
}
