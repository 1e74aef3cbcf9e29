package services

import (
	"log"
	"sync"
	"time"

	"aivideo/models"
)

// ProgressTracker holds the current progress state and fans it out to
// subscribers in report order
type ProgressTracker struct {
	state   models.ProgressState
	version uint64
	subs    map[int]chan models.ProgressState
	nextSub int
	mu      sync.Mutex
}

// NewProgressTracker creates an idle tracker
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		state: idleState(),
		subs:  make(map[int]chan models.ProgressState),
	}
}

func idleState() models.ProgressState {
	return models.ProgressState{Status: models.ProgressIdle}
}

// Report replaces the current state. Any pending reset scheduled before
// this call no longer applies.
func (t *ProgressTracker) Report(state models.ProgressState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLocked(state)
}

// Current returns the latest state
func (t *ProgressTracker) Current() models.ProgressState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Version identifies the current state; every Report advances it
func (t *ProgressTracker) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// ResetAfter reverts to idle after d unless another state is reported first
func (t *ProgressTracker) ResetAfter(d time.Duration) {
	t.ResetAfterVersion(t.Version(), d)
}

// ResetAfterVersion reverts to idle after d if the state is still the one
// identified by version
func (t *ProgressTracker) ResetAfterVersion(version uint64, d time.Duration) {
	time.AfterFunc(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.version != version {
			return
		}
		t.setLocked(idleState())
	})
}

// Subscribe returns a channel receiving the current state followed by every
// later state. A subscriber that falls more than buffer states behind is
// dropped and its channel closed. Call the returned func to unsubscribe.
func (t *ProgressTracker) Subscribe(buffer int) (<-chan models.ProgressState, func()) {
	if buffer < 1 {
		buffer = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	ch := make(chan models.ProgressState, buffer)
	ch <- t.state
	t.subs[id] = ch

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(sub)
		}
	}
}

// setLocked must be called with the lock held
func (t *ProgressTracker) setLocked(state models.ProgressState) {
	t.state = state
	t.version++

	for id, ch := range t.subs {
		select {
		case ch <- state:
		default:
			log.Printf("[Progress] dropping slow subscriber %d", id)
			delete(t.subs, id)
			close(ch)
		}
	}
}
