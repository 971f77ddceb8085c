package history

import "github.com/rocketscienceinc/punto-backend/internal/entity"

// DefaultLimit is how many snapshots each stack keeps before evicting the oldest.
const DefaultLimit = 200

// stack is a bounded LIFO of snapshots.
type stack struct {
	limit   int
	entries []*entity.GameState
}

func (that *stack) push(state *entity.GameState) {
	if len(that.entries) == that.limit {
		copy(that.entries, that.entries[1:])
		that.entries = that.entries[:len(that.entries)-1]
	}

	that.entries = append(that.entries, state)
}

func (that *stack) pop() (*entity.GameState, bool) {
	if len(that.entries) == 0 {
		return nil, false
	}

	last := len(that.entries) - 1
	state := that.entries[last]
	that.entries[last] = nil
	that.entries = that.entries[:last]

	return state, true
}

func (that *stack) clear() {
	that.entries = nil
}

// History keeps undo and redo snapshots of a game. It is not safe for concurrent
// use; the owning controller serializes access.
type History struct {
	undo stack
	redo stack
}

// New - creates a history whose stacks hold at most limit entries each.
// A non-positive limit falls back to DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &History{
		undo: stack{limit: limit},
		redo: stack{limit: limit},
	}
}

// Push - records a copy of the state about to be mutated and forgets everything redoable.
func (that *History) Push(state *entity.GameState) {
	that.undo.push(state.Clone())
	that.redo.clear()
}

// Undo - returns the most recent snapshot and keeps a copy of current for Redo.
// Returns false when there is nothing to undo.
func (that *History) Undo(current *entity.GameState) (*entity.GameState, bool) {
	previous, ok := that.undo.pop()
	if !ok {
		return nil, false
	}

	that.redo.push(current.Clone())

	return previous, true
}

// Redo - mirror of Undo.
func (that *History) Redo(current *entity.GameState) (*entity.GameState, bool) {
	next, ok := that.redo.pop()
	if !ok {
		return nil, false
	}

	that.undo.push(current.Clone())

	return next, true
}

func (that *History) Clear() {
	that.undo.clear()
	that.redo.clear()
}

func (that *History) Len() int {
	return len(that.undo.entries)
}

func (that *History) RedoLen() int {
	return len(that.redo.entries)
}

func (that *History) CanUndo() bool {
	return that.Len() > 0
}

func (that *History) CanRedo() bool {
	return that.RedoLen() > 0
}

func (that *History) Limit() int {
	return that.undo.limit
}
