package scheduler

import (
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type task struct {
	timer *clock.Timer
	seq   uint64
}

// Scheduler runs delayed functions keyed by player id. At most one task is
// pending per key; scheduling again replaces the previous task.
type Scheduler struct {
	clock clock.Clock

	mu    sync.Mutex
	seq   uint64
	tasks map[int]*task
}

func New(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}

	return &Scheduler{
		clock: clk,
		tasks: make(map[int]*task),
	}
}

// Schedule - runs fn after delay unless the key is cancelled or rescheduled first.
func (that *Scheduler) Schedule(key int, delay time.Duration, fn func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stopLocked(key)

	that.seq++
	seq := that.seq

	that.tasks[key] = &task{
		seq: seq,
		timer: that.clock.AfterFunc(delay, func() {
			if !that.claim(key, seq) {
				return
			}

			fn()
		}),
	}
}

// claim removes the task if it is still the one scheduled under key.
func (that *Scheduler) claim(key int, seq uint64) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	current, ok := that.tasks[key]
	if !ok || current.seq != seq {
		return false
	}

	delete(that.tasks, key)

	return true
}

// Cancel - drops the pending task for key. Returns true if one was pending.
func (that *Scheduler) Cancel(key int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.stopLocked(key)
}

// CancelAll - drops every pending task.
func (that *Scheduler) CancelAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for key := range that.tasks {
		that.stopLocked(key)
	}
}

func (that *Scheduler) stopLocked(key int) bool {
	current, ok := that.tasks[key]
	if !ok {
		return false
	}

	current.timer.Stop()
	delete(that.tasks, key)

	return true
}

func (that *Scheduler) Pending(key int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.tasks[key]

	return ok
}

func (that *Scheduler) PendingCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.tasks)
}

// RandomDelay - returns a duration uniformly drawn from [minDelay, maxDelay).
func RandomDelay(rnd *rand.Rand, minDelay, maxDelay time.Duration) time.Duration {
	if maxDelay <= minDelay {
		return minDelay
	}

	return minDelay + time.Duration(rnd.Int63n(int64(maxDelay-minDelay)))
}
