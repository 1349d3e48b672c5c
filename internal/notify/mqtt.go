package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/shared"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttQoS            = 1
	mqttInboxSize      = 64
	mqttQuiesceMS      = 250
)

// mqttClient is the subset of [pahomqtt.Client] the broker drives.
type mqttClient interface {
	Connect() pahomqtt.Token
	Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTTBroker connects to an MQTT broker. Reconnection is left to [Channel],
// so the paho client's own auto-reconnect is disabled.
type MQTTBroker struct {
	URL       string
	KeepAlive time.Duration
	Logger    *log.Logger

	newClient func(*pahomqtt.ClientOptions) mqttClient
}

// NewMQTTBroker returns a broker for url (tcp://host:1883 or ws://host/mqtt).
func NewMQTTBroker(url string, keepAlive time.Duration, logger *log.Logger) *MQTTBroker {
	if keepAlive <= 0 {
		keepAlive = DefaultHeartbeat
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MQTTBroker{
		URL:       url,
		KeepAlive: keepAlive,
		Logger:    logger,
		newClient: func(o *pahomqtt.ClientOptions) mqttClient { return pahomqtt.NewClient(o) },
	}
}

func (b *MQTTBroker) options(c *mqttConn) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(b.URL)
	opts.SetClientID("soundwave-" + shared.GenerateID())
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetKeepAlive(b.KeepAlive)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		b.Logger.Warn("mqtt connection lost", "broker", b.URL, "error", err)
		c.fail(fmt.Errorf("%w: %w", shared.ErrBrokerUnavailable, err))
	})
	return opts
}

// Connect opens a clean MQTT session.
func (b *MQTTBroker) Connect(ctx context.Context) (Connection, error) {
	c := &mqttConn{
		inbox:  make(chan Message, mqttInboxSize),
		done:   make(chan struct{}),
		logger: b.Logger,
	}
	c.client = b.newClient(b.options(c))

	if err := waitToken(ctx, c.client.Connect()); err != nil {
		// A connect still in flight may complete later; drop the client either way.
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: connect %s: %w", shared.ErrBrokerUnavailable, b.URL, err)
	}
	b.Logger.Debug("mqtt connected", "broker", b.URL)
	return c, nil
}

type mqttConn struct {
	client mqttClient
	inbox  chan Message
	logger *log.Logger

	once sync.Once
	done chan struct{}
	err  error
}

// Subscribe maps a STOMP-style destination (/topic/a.b) onto an MQTT topic (a.b).
func (c *mqttConn) Subscribe(ctx context.Context, topic string) error {
	mt := MQTTTopic(topic)
	if err := waitToken(ctx, c.client.Subscribe(mt, mqttQoS, c.wrapHandler(c.deliver))); err != nil {
		return fmt.Errorf("%w: subscribe %s: %w", shared.ErrBrokerUnavailable, mt, err)
	}
	return nil
}

func (c *mqttConn) Receive(ctx context.Context) (Message, error) {
	select {
	case m := <-c.inbox:
		return m, nil
	case <-c.done:
		return Message{}, c.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (c *mqttConn) Close() error {
	if c.fail(shared.ErrChannelClosed) {
		c.client.Disconnect(mqttQuiesceMS)
	}
	return nil
}

func (c *mqttConn) deliver(_ pahomqtt.Client, msg pahomqtt.Message) {
	m := Message{Topic: msg.Topic(), Body: msg.Payload(), ReceivedAt: time.Now()}
	select {
	case c.inbox <- m:
	case <-c.done:
	}
}

// wrapHandler keeps a panicking handler from taking down paho's router goroutine.
func (c *mqttConn) wrapHandler(h pahomqtt.MessageHandler) pahomqtt.MessageHandler {
	return func(client pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("panic in mqtt handler", "topic", msg.Topic(), "panic", r)
			}
		}()
		h(client, msg)
	}
}

// fail records the terminal error; it reports whether this call was the first.
func (c *mqttConn) fail(err error) bool {
	first := false
	c.once.Do(func() {
		first = true
		c.err = err
		close(c.done)
	})
	return first
}

// MQTTTopic converts a STOMP destination into an MQTT topic name.
func MQTTTopic(destination string) string {
	t := strings.TrimPrefix(destination, "/topic/")
	return strings.TrimPrefix(t, "/")
}

func waitToken(ctx context.Context, t pahomqtt.Token) error {
	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
