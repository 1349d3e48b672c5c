package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/go-stomp/stomp/v3/frame"
)

const (
	stompAcceptVersions = "1.2,1.1,1.0"
	stompReadLimit      = 1 << 20
	stompInboxSize      = 64
	stompWriteTimeout   = 5 * time.Second
	stompConnectTimeout = 10 * time.Second
)

var stompSubprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// StompBroker connects to a STOMP broker exposed over a websocket endpoint.
type StompBroker struct {
	URL       string
	Heartbeat time.Duration
	// Header is sent with the websocket handshake.
	Header http.Header
	// Login and Passcode are sent in the CONNECT frame when non-empty.
	Login    string
	Passcode string
	// ConnectTimeout bounds the dial and the wait for CONNECTED.
	ConnectTimeout time.Duration
	Logger         *log.Logger
}

// NewStompBroker returns a broker for url advertising heartbeat in both directions.
func NewStompBroker(url string, heartbeat time.Duration, logger *log.Logger) *StompBroker {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &StompBroker{URL: url, Heartbeat: heartbeat, ConnectTimeout: stompConnectTimeout, Logger: logger}
}

// Connect dials the websocket, performs the STOMP handshake and starts heart-beating.
func (b *StompBroker) Connect(ctx context.Context) (Connection, error) {
	u, err := url.Parse(b.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: broker url %q: %w", shared.ErrInvalidConfig, b.URL, err)
	}

	timeout := b.ConnectTimeout
	if timeout <= 0 {
		timeout = stompConnectTimeout
	}
	parent := ctx
	ctx, cancelConnect := context.WithTimeout(ctx, timeout)
	defer cancelConnect()

	ws, resp, err := websocket.Dial(ctx, b.URL, &websocket.DialOptions{
		Subprotocols: stompSubprotocols,
		HTTPHeader:   b.Header,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrBrokerUnavailable, err)
	}
	ws.SetReadLimit(stompReadLimit)

	life, cancel := context.WithCancel(context.Background())
	c := &stompConn{
		ws:     ws,
		ctx:    life,
		cancel: cancel,
		inbox:  make(chan *frame.Frame, stompInboxSize),
		logger: b.Logger,
	}
	c.touch()
	go c.readLoop()

	connect := frame.New(frame.CONNECT,
		frame.AcceptVersion, stompAcceptVersions,
		frame.Host, u.Hostname(),
		frame.HeartBeat, heartBeatHeader(b.Heartbeat),
	)
	if b.Login != "" {
		connect.Header.Add(frame.Login, b.Login)
		connect.Header.Add(frame.Passcode, b.Passcode)
	}

	if err := c.handshake(ctx, connect, b.Heartbeat); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			err = fmt.Errorf("%w: no CONNECTED within %s", shared.ErrBrokerUnavailable, timeout)
		}
		c.abort(err)
		return nil, err
	}
	return c, nil
}

type stompConn struct {
	ws     *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger

	inbox    chan *frame.Frame
	lastRead atomic.Int64

	writeMu sync.Mutex

	failOnce  sync.Once
	err       error
	closing   atomic.Bool
	closeOnce sync.Once

	version  string
	outgoing time.Duration
	incoming time.Duration
}

func (c *stompConn) handshake(ctx context.Context, connect *frame.Frame, heartbeat time.Duration) error {
	if err := c.write(ctx, connect); err != nil {
		return err
	}

	f, err := c.next(ctx)
	if err != nil {
		return err
	}

	switch f.Command {
	case frame.CONNECTED:
	case frame.ERROR:
		return stompError(f)
	default:
		return fmt.Errorf("%w: expected CONNECTED, got %s", shared.ErrBrokerProtocol, f.Command)
	}

	c.version = f.Header.Get(frame.Version)

	sx, sy := time.Duration(0), time.Duration(0)
	if hb := f.Header.Get(frame.HeartBeat); hb != "" {
		if sx, sy, err = frame.ParseHeartBeat(hb); err != nil {
			return fmt.Errorf("%w: heart-beat %q: %w", shared.ErrBrokerProtocol, hb, err)
		}
	}
	c.outgoing, c.incoming = negotiateHeartBeat(heartbeat, heartbeat, sx, sy)

	if c.outgoing > 0 {
		go c.sendHeartbeats()
	}
	if c.incoming > 0 {
		go c.watchHeartbeats()
	}

	c.logger.Debug("stomp session established", "version", c.version, "send_every", c.outgoing, "expect_every", c.incoming)
	return nil
}

// Subscribe registers an auto-acknowledged subscription on topic.
func (c *stompConn) Subscribe(ctx context.Context, topic string) error {
	return c.write(ctx, frame.New(frame.SUBSCRIBE,
		frame.Id, shared.GenerateID(),
		frame.Destination, topic,
		frame.Ack, frame.AckAuto,
	))
}

// Receive returns the next MESSAGE frame. An ERROR frame ends the connection.
func (c *stompConn) Receive(ctx context.Context) (Message, error) {
	for {
		f, err := c.next(ctx)
		if err != nil {
			return Message{}, err
		}

		switch f.Command {
		case frame.MESSAGE:
			return Message{
				Topic:      f.Header.Get(frame.Destination),
				Body:       f.Body,
				ReceivedAt: time.Now(),
			}, nil
		case frame.ERROR:
			err := stompError(f)
			c.abort(err)
			return Message{}, err
		default:
			c.logger.Debug("ignoring stomp frame", "command", f.Command)
		}
	}
}

// Close sends DISCONNECT when the session is still healthy and closes the socket.
func (c *stompConn) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		if c.ctx.Err() == nil {
			ctx, cancel := context.WithTimeout(context.Background(), stompWriteTimeout)
			_ = c.write(ctx, frame.New(frame.DISCONNECT))
			cancel()
		}
		c.fail(shared.ErrChannelClosed)
		_ = c.ws.Close(websocket.StatusNormalClosure, "bye")
	})
	return nil
}

func (c *stompConn) next(ctx context.Context) (*frame.Frame, error) {
	select {
	case f := <-c.inbox:
		return f, nil
	case <-c.ctx.Done():
		return nil, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *stompConn) write(ctx context.Context, f *frame.Frame) error {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return fmt.Errorf("%w: encode %s: %w", shared.ErrBrokerProtocol, f.Command, err)
	}
	return c.send(ctx, buf.Bytes())
}

func (c *stompConn) send(ctx context.Context, b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.Write(ctx, websocket.MessageText, b); err != nil {
		err = fmt.Errorf("%w: write: %w", shared.ErrBrokerUnavailable, err)
		c.abort(err)
		return err
	}
	return nil
}

// readLoop splits each websocket message into frames. A bare newline is a heart-beat.
func (c *stompConn) readLoop() {
	for {
		_, data, err := c.ws.Read(c.ctx)
		if err != nil {
			c.fail(fmt.Errorf("%w: read: %w", shared.ErrBrokerUnavailable, err))
			return
		}
		c.touch()

		r := frame.NewReader(bytes.NewReader(data))
		for {
			f, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				c.abort(fmt.Errorf("%w: decode: %w", shared.ErrBrokerProtocol, err))
				return
			}
			if f == nil {
				continue
			}

			select {
			case c.inbox <- f:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *stompConn) sendHeartbeats() {
	ticker := time.NewTicker(c.outgoing)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, stompWriteTimeout)
			err := c.send(ctx, []byte("\n"))
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// watchHeartbeats fails the connection after two missed server heart-beats.
func (c *stompConn) watchHeartbeats() {
	limit := 2 * c.incoming
	ticker := time.NewTicker(c.incoming / 2)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			silent := time.Since(time.Unix(0, c.lastRead.Load()))
			if silent > limit {
				c.abort(fmt.Errorf("%w: no heart-beat for %s", shared.ErrBrokerUnavailable, silent.Round(time.Millisecond)))
				return
			}
		}
	}
}

func (c *stompConn) touch() { c.lastRead.Store(time.Now().UnixNano()) }

// fail records the first terminal error and stops every goroutine.
// Once Close has begun every failure reads as a closed channel.
func (c *stompConn) fail(err error) {
	if c.closing.Load() {
		err = shared.ErrChannelClosed
	}
	c.failOnce.Do(func() {
		c.err = err
		c.cancel()
	})
}

func (c *stompConn) abort(err error) {
	c.fail(err)
	_ = c.ws.CloseNow()
}

func stompError(f *frame.Frame) error {
	msg := f.Header.Get(frame.Message)
	if msg == "" {
		msg = string(bytes.TrimSpace(f.Body))
	}
	return fmt.Errorf("%w: broker error: %s", shared.ErrBrokerProtocol, msg)
}

func heartBeatHeader(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d,%d", ms, ms)
}

// negotiateHeartBeat applies the STOMP rule: each direction uses the larger of
// what one side offers and the other wants, and is disabled if either is zero.
func negotiateHeartBeat(cx, cy, sx, sy time.Duration) (outgoing, incoming time.Duration) {
	if cx > 0 && sy > 0 {
		outgoing = max(cx, sy)
	}
	if cy > 0 && sx > 0 {
		incoming = max(cy, sx)
	}
	return outgoing, incoming
}
