package notify

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/go-stomp/stomp/v3/frame"
)

// stompServer is a minimal STOMP-over-websocket broker.
type stompServer struct {
	*httptest.Server

	heartBeat string
	reject    string
	message   string

	frames chan *frame.Frame
	beats  atomic.Int32
}

func newStompServer(t *testing.T, heartBeat string) *stompServer {
	t.Helper()
	s := &stompServer{heartBeat: heartBeat, frames: make(chan *frame.Frame, 32)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *stompServer) URL() string { return "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/ws/websocket" }

func (s *stompServer) handle(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{"v12.stomp"}})
	if err != nil {
		return
	}
	defer ws.CloseNow()
	ctx := r.Context()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}

		fr := frame.NewReader(bytes.NewReader(data))
		for {
			f, err := fr.Read()
			if err != nil {
				break
			}
			if f == nil {
				s.beats.Add(1)
				continue
			}
			s.frames <- f

			switch f.Command {
			case frame.CONNECT:
				if s.reject != "" {
					writeFrame(ctx, ws, frame.New(frame.ERROR, frame.Message, s.reject))
					return
				}
				writeFrame(ctx, ws, frame.New(frame.CONNECTED, frame.Version, "1.2", frame.HeartBeat, s.heartBeat))
			case frame.SUBSCRIBE:
				if s.message == "" {
					continue
				}
				msg := frame.New(frame.MESSAGE,
					frame.Destination, f.Header.Get(frame.Destination),
					frame.Subscription, f.Header.Get(frame.Id),
					frame.MessageId, "1",
				)
				msg.Body = []byte(s.message)
				writeFrame(ctx, ws, msg)
			case frame.DISCONNECT:
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, ws *websocket.Conn, f *frame.Frame) {
	var buf bytes.Buffer
	_ = frame.NewWriter(&buf).Write(f)
	_ = ws.Write(ctx, websocket.MessageText, buf.Bytes())
}

func (s *stompServer) expectFrame(t *testing.T, command string) *frame.Frame {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f := <-s.frames:
			if f.Command == command {
				return f
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", command)
			return nil
		}
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStompBroker(t *testing.T) {
	t.Run("Connect Subscribe Receive", func(t *testing.T) {
		srv := newStompServer(t, "0,0")
		srv.message = "Novo álbum: Mutantes"
		ctx := testContext(t)

		conn, err := NewStompBroker(srv.URL(), 0, quiet).Connect(ctx)
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
		defer conn.Close()

		connect := srv.expectFrame(t, frame.CONNECT)
		if got := connect.Header.Get(frame.AcceptVersion); got != stompAcceptVersions {
			t.Errorf("accept-version = %q", got)
		}
		if got := connect.Header.Get(frame.HeartBeat); got != "4000,4000" {
			t.Errorf("heart-beat = %q, want 4000,4000", got)
		}
		if got := connect.Header.Get(frame.Host); got != "127.0.0.1" {
			t.Errorf("host = %q", got)
		}

		if err := conn.Subscribe(ctx, DefaultTopic); err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		sub := srv.expectFrame(t, frame.SUBSCRIBE)
		if sub.Header.Get(frame.Destination) != DefaultTopic || sub.Header.Get(frame.Ack) != frame.AckAuto {
			t.Errorf("unexpected SUBSCRIBE headers: %v", sub.Header)
		}
		if sub.Header.Get(frame.Id) == "" {
			t.Error("expected a subscription id")
		}

		msg, err := conn.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if msg.Topic != DefaultTopic || string(msg.Body) != "Novo álbum: Mutantes" {
			t.Errorf("unexpected message %+v", msg)
		}
		if msg.ReceivedAt.IsZero() {
			t.Error("expected ReceivedAt to be set")
		}
	})

	t.Run("Broker Rejects Connect", func(t *testing.T) {
		srv := newStompServer(t, "0,0")
		srv.reject = "Bad CONNECT"

		_, err := NewStompBroker(srv.URL(), 0, quiet).Connect(testContext(t))
		if !errors.Is(err, shared.ErrBrokerProtocol) {
			t.Fatalf("expected ErrBrokerProtocol, got %v", err)
		}
		if !strings.Contains(err.Error(), "Bad CONNECT") {
			t.Errorf("expected broker message in error, got %v", err)
		}
	})

	t.Run("Unreachable Broker", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		srv.Close()

		_, err := NewStompBroker(url, 0, quiet).Connect(testContext(t))
		if !errors.Is(err, shared.ErrBrokerUnavailable) {
			t.Errorf("expected ErrBrokerUnavailable, got %v", err)
		}
	})

	t.Run("Silent Handshake", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{"v12.stomp"}})
			if err != nil {
				return
			}
			defer ws.CloseNow()
			for {
				if _, _, err := ws.Read(r.Context()); err != nil {
					return
				}
			}
		}))
		defer srv.Close()

		b := NewStompBroker("ws"+strings.TrimPrefix(srv.URL, "http"), 200*time.Millisecond, quiet)
		b.ConnectTimeout = 300 * time.Millisecond

		start := time.Now()
		_, err := b.Connect(context.Background())
		if !errors.Is(err, shared.ErrBrokerUnavailable) {
			t.Fatalf("expected ErrBrokerUnavailable, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("Connect took %v, expected it to give up after the connect timeout", elapsed)
		}
	})

	t.Run("Sends Heartbeats", func(t *testing.T) {
		srv := newStompServer(t, "0,50")

		conn, err := NewStompBroker(srv.URL(), 20*time.Millisecond, quiet).Connect(testContext(t))
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
		defer conn.Close()

		sc := conn.(*stompConn)
		if sc.outgoing != 50*time.Millisecond || sc.incoming != 0 {
			t.Errorf("negotiated outgoing=%v incoming=%v", sc.outgoing, sc.incoming)
		}
		eventually(t, "client heart-beats", func() bool { return srv.beats.Load() >= 2 })
	})

	t.Run("Silent Broker Fails Connection", func(t *testing.T) {
		srv := newStompServer(t, "50,0")

		conn, err := NewStompBroker(srv.URL(), 20*time.Millisecond, quiet).Connect(testContext(t))
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
		defer conn.Close()

		start := time.Now()
		_, err = conn.Receive(testContext(t))
		if !errors.Is(err, shared.ErrBrokerUnavailable) {
			t.Fatalf("expected ErrBrokerUnavailable, got %v", err)
		}
		if time.Since(start) < 50*time.Millisecond {
			t.Errorf("connection failed too early: %v", time.Since(start))
		}
	})

	t.Run("Close Sends Disconnect", func(t *testing.T) {
		srv := newStompServer(t, "0,0")

		conn, err := NewStompBroker(srv.URL(), 0, quiet).Connect(testContext(t))
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
		if err := conn.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		srv.expectFrame(t, frame.DISCONNECT)

		if _, err := conn.Receive(testContext(t)); !errors.Is(err, shared.ErrChannelClosed) {
			t.Errorf("expected ErrChannelClosed after Close, got %v", err)
		}
		conn.Close()
	})

	t.Run("Feeds Channel", func(t *testing.T) {
		srv := newStompServer(t, "0,0")
		srv.message = "Novo álbum: Tropicália"

		ch, err := NewChannel(ChannelOpts{
			Broker: NewStompBroker(srv.URL(), 0, quiet),
			Slot:   NewSlot(time.Minute, nil),
			Logger: quiet,
		})
		if err != nil {
			t.Fatalf("NewChannel: %v", err)
		}
		ch.Start(context.Background())
		defer ch.Stop()

		eventually(t, "notification", func() bool {
			n, ok := ch.Slot().Current()
			return ok && n.Text == "Novo álbum: Tropicália"
		})
	})
}

func TestNegotiateHeartBeat(t *testing.T) {
	ms := time.Millisecond
	tc := []struct {
		name           string
		cx, cy, sx, sy time.Duration
		out, in        time.Duration
	}{
		{"both sides 4s", 4000 * ms, 4000 * ms, 4000 * ms, 4000 * ms, 4000 * ms, 4000 * ms},
		{"server slower", 4000 * ms, 4000 * ms, 10000 * ms, 10000 * ms, 10000 * ms, 10000 * ms},
		{"server disables", 4000 * ms, 4000 * ms, 0, 0, 0, 0},
		{"server only wants beats", 4000 * ms, 4000 * ms, 0, 1000 * ms, 4000 * ms, 0},
		{"client disables", 0, 0, 4000 * ms, 4000 * ms, 0, 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			out, in := negotiateHeartBeat(tt.cx, tt.cy, tt.sx, tt.sy)
			if out != tt.out || in != tt.in {
				t.Errorf("got out=%v in=%v, want out=%v in=%v", out, in, tt.out, tt.in)
			}
		})
	}
}

func TestHeartBeatHeader(t *testing.T) {
	if got := heartBeatHeader(4 * time.Second); got != "4000,4000" {
		t.Errorf("heartBeatHeader = %q", got)
	}
}
