package notify

import (
	"context"
	"time"
)

// Defaults for a channel against the catalogue's broker.
const (
	DefaultTopic          = "/topic/novos-albuns"
	DefaultReconnectDelay = 5 * time.Second
	DefaultHeartbeat      = 4 * time.Second
	DefaultDwell          = 5 * time.Second
)

// Message is one delivery from the broker.
type Message struct {
	Topic      string
	Body       []byte
	ReceivedAt time.Time
}

// Broker opens connections to a message broker.
type Broker interface {
	Connect(ctx context.Context) (Connection, error)
}

// Connection is a single live broker session.
//
// Receive blocks until a message arrives, the connection fails, or ctx ends.
// Close is safe to call more than once.
type Connection interface {
	Subscribe(ctx context.Context, topic string) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// Clock abstracts timers so dwell expiry can be driven in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
