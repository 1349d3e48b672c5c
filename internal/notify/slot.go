package notify

import (
	"sync"
	"time"
)

// Notification is the message currently on screen.
type Notification struct {
	Text       string
	ReceivedAt time.Time
}

// Observer is told about every change to a [Slot]. active is false when the slot was cleared.
//
// Observers run with the slot locked and must not call back into it.
type Observer func(n Notification, active bool)

// Slot holds at most one active [Notification].
type Slot struct {
	clock Clock
	dwell time.Duration

	mu        sync.Mutex
	current   *Notification
	seq       uint64
	timer     Timer
	observers []Observer
	closed    bool
}

// NewSlot creates a slot that clears each notification after dwell.
func NewSlot(dwell time.Duration, clock Clock) *Slot {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Slot{clock: clock, dwell: dwell}
}

// Observe registers fn for future changes.
func (s *Slot) Observe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Show makes text the active notification and restarts the dwell timer.
// It is a no-op once the slot is closed.
func (s *Slot) Show(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
	}

	n := Notification{Text: text, ReceivedAt: s.clock.Now()}
	s.current = &n
	s.timer = s.clock.AfterFunc(s.dwell, func() { s.expire(seq) })
	s.emitLocked(n, true)
}

// expire clears the slot only if nothing replaced the notification scheduled as seq.
func (s *Slot) expire(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.seq || s.current == nil {
		return
	}

	cleared := *s.current
	s.current = nil
	s.timer = nil
	s.emitLocked(cleared, false)
}

// Current returns the active notification, if any.
func (s *Slot) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

// Close cancels the pending clear and ignores every later Show.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Slot) emitLocked(n Notification, active bool) {
	for _, fn := range s.observers {
		fn(n, active)
	}
}
