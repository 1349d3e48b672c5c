package session

import "sync"

// Subscription delivers every snapshot the [Manager] installs, in order.
//
// Each subscription buffers without bound so a slow reader never stalls the writer.
type Subscription struct {
	m *Manager
	c chan Snapshot

	mu     sync.Mutex
	queue  []Snapshot
	wake   chan struct{}
	done   chan struct{}
	closed sync.Once
}

func newSubscription(m *Manager) *Subscription {
	return &Subscription{
		m:    m,
		c:    make(chan Snapshot),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// C yields snapshots until the subscription is closed, then is closed itself.
func (s *Subscription) C() <-chan Snapshot {
	return s.c
}

// Close stops delivery. Snapshots still queued are dropped.
func (s *Subscription) Close() {
	s.closed.Do(func() {
		s.m.unsubscribe(s)
		close(s.done)
	})
}

func (s *Subscription) enqueue(snap Snapshot) {
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.c)

	for {
		s.mu.Lock()
		pending := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, snap := range pending {
			select {
			case s.c <- snap:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}
