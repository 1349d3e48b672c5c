package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/soundwave/internal/shared"
)

var quiet = shared.NewLogger(io.Discard)

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock only moves when Advance is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs every timer that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeConn struct {
	msgs       chan Message
	drop       chan error
	subscribed chan string
	closed     chan struct{}
	once       sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		msgs:       make(chan Message, 8),
		drop:       make(chan error, 1),
		subscribed: make(chan string, 1),
		closed:     make(chan struct{}),
	}
}

func (c *fakeConn) Subscribe(_ context.Context, topic string) error {
	c.subscribed <- topic
	return nil
}

func (c *fakeConn) Receive(ctx context.Context) (Message, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	case err := <-c.drop:
		return Message{}, err
	case <-c.closed:
		return Message{}, shared.ErrChannelClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeBroker refuses the first refuse connects and hands out fakeConns after that.
type fakeBroker struct {
	refuse int

	mu       sync.Mutex
	connects []time.Time
	conns    chan *fakeConn
}

func newFakeBroker(refuse int) *fakeBroker {
	return &fakeBroker{refuse: refuse, conns: make(chan *fakeConn, 16)}
}

func (b *fakeBroker) Connect(ctx context.Context) (Connection, error) {
	b.mu.Lock()
	b.connects = append(b.connects, time.Now())
	n := len(b.connects)
	b.mu.Unlock()

	if n <= b.refuse {
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	b.conns <- c
	return c, nil
}

func (b *fakeBroker) attempts() []time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]time.Time(nil), b.connects...)
}

func (b *fakeBroker) nextConn(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case c := <-b.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a connection")
		return nil
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
