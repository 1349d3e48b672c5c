package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/shared"
)

// State describes where a [Channel] is in its connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// ChannelOpts configures a [Channel].
type ChannelOpts struct {
	Broker         Broker
	Topic          string
	ReconnectDelay time.Duration
	Slot           *Slot
	Logger         *log.Logger
	// OnMessage, when set, sees every message before it reaches the slot.
	OnMessage func(Message)
	// OnState, when set, sees every state transition.
	OnState func(State)
}

// Channel keeps one subscription to a topic alive and feeds a [Slot].
type Channel struct {
	broker    Broker
	topic     string
	delay     time.Duration
	slot      *Slot
	logger    *log.Logger
	onMessage func(Message)
	onState   func(State)

	mu      sync.Mutex
	state   State
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewChannel validates opts and fills in defaults.
func NewChannel(opts ChannelOpts) (*Channel, error) {
	if opts.Broker == nil {
		return nil, fmt.Errorf("%w: broker is required", shared.ErrInvalidArgument)
	}

	c := &Channel{
		broker:    opts.Broker,
		topic:     opts.Topic,
		delay:     opts.ReconnectDelay,
		slot:      opts.Slot,
		logger:    opts.Logger,
		onMessage: opts.OnMessage,
		onState:   opts.OnState,
		done:      make(chan struct{}),
	}
	if c.topic == "" {
		c.topic = DefaultTopic
	}
	if c.delay <= 0 {
		c.delay = DefaultReconnectDelay
	}
	if c.slot == nil {
		c.slot = NewSlot(DefaultDwell, nil)
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	return c, nil
}

// Slot returns the slot messages are shown in.
func (c *Channel) Slot() *Slot { return c.slot }

// State reports the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the channel has fully stopped.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Start launches the connection loop. Calling it again is a no-op.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

// Stop ends the loop, closes any live connection and clears pending notification timers.
// It blocks until the loop has exited.
func (c *Channel) Stop() {
	c.mu.Lock()
	if !c.started {
		c.started = true
		c.mu.Unlock()
		c.finish()
		return
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-c.done
}

func (c *Channel) run(ctx context.Context) {
	defer c.finish()

	for attempt := 1; ; attempt++ {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}

		c.logger.Warn("notification channel lost", "topic", c.topic, "attempt", attempt, "error", err, "retry_in", c.delay)
		c.setState(StateDisconnected)

		t := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// session runs one connect/subscribe/receive cycle and returns why it ended.
func (c *Channel) session(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, err := c.broker.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Subscribe(ctx, c.topic); err != nil {
		return err
	}

	c.setState(StateConnected)
	c.logger.Info("notification channel connected", "topic", c.topic)

	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		c.logger.Debug("notification received", "topic", msg.Topic, "bytes", len(msg.Body))
		if c.onMessage != nil {
			c.onMessage(msg)
		}
		c.slot.Show(string(msg.Body))
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == StateStopped || c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	if c.onState != nil {
		c.onState(s)
	}
}

func (c *Channel) finish() {
	c.setState(StateStopped)
	c.slot.Close()
	close(c.done)
}
