// Package wsconn is the per-connection half of the Session Registry: it
// runs the read/write pumps for one upgraded WebSocket and reports
// connect/disconnect to internal/registry, adapted from a WebSocket
// hub's single-client read/write pump pair to a connection that
// represents one remote service rather than one dashboard viewer.
package wsconn

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/logging"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/registry"
)

// State is a session's position in its lifecycle.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Registry is the subset of *registry.Registry a Session needs. Kept
// as an interface so sessions can be tested without a running
// registry actor.
type Registry interface {
	Connect(ctx context.Context, assetGroupID int32, address string, conn registry.Conn) error
	Disconnect(ctx context.Context, assetGroupID int32, address string, reason string) error
}

// Session owns one upgraded WebSocket for the lifetime of a remote
// service's connection.
type Session struct {
	conn         *websocket.Conn
	assetGroupID int32
	address      string
	reg          Registry

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	send  chan outboundFrame
	state atomic.Int32
}

// outboundFrame pairs a gorilla/websocket message type with its
// payload so writePump can tell a server-pushed Text/JSON frame
// (registry.Conn.Send, config pushes, "Registered") apart from an
// echoed Binary frame (readPump's echo of a client Binary frame).
type outboundFrame struct {
	msgType int
	data    []byte
}

// NewSession wraps an already-upgraded connection. Call Run to start
// its pumps and register it.
func NewSession(conn *websocket.Conn, assetGroupID int32, address string, reg Registry, heartbeatInterval, heartbeatTimeout time.Duration) *Session {
	s := &Session{
		conn:              conn,
		assetGroupID:      assetGroupID,
		address:           address,
		reg:               reg,
		heartbeatInterval: heartbeatInterval,
		heartbeatTimeout:  heartbeatTimeout,
		send:              make(chan outboundFrame, 256),
	}
	s.state.Store(int32(StateStarting))
	return s
}

// State reports the session's current lifecycle position.
func (s *Session) State() State { return State(s.state.Load()) }

// Send enqueues msg for delivery to the remote service as a Text
// frame. It satisfies registry.Conn: every server-initiated push
// ("Registered", config content) is Text/JSON, never Binary. A full
// send buffer drops the message rather than blocking the registry's
// run loop.
func (s *Session) Send(msg []byte) error {
	return s.enqueue(websocket.TextMessage, msg)
}

func (s *Session) enqueue(msgType int, data []byte) error {
	select {
	case s.send <- outboundFrame{msgType: msgType, data: data}:
		return nil
	default:
		logging.WarnCF("ws", "dropping message to slow client", logging.Fields{"address": s.address})
		return nil
	}
}

// Run registers the session with the registry and blocks until the
// connection closes or ctx is cancelled, at which point it
// unregisters. The upgrade handler starts it on its own goroutine; Run
// returns once both pumps have exited.
func (s *Session) Run(ctx context.Context) {
	if err := s.reg.Connect(ctx, s.assetGroupID, s.address, s); err != nil {
		logging.ErrorCF("ws", "registry connect failed", logging.Fields{"address": s.address, "error": err.Error()})
		s.conn.Close()
		return
	}
	s.state.Store(int32(StateRunning))

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.writePump(pumpCtx)
		close(done)
	}()
	s.readPump(pumpCtx, cancel)
	<-done

	s.state.Store(int32(StateClosing))
	reason := "connection closed"
	if err := ctx.Err(); err != nil {
		reason = err.Error()
	}
	if err := s.reg.Disconnect(context.Background(), s.assetGroupID, s.address, reason); err != nil {
		logging.ErrorCF("ws", "registry disconnect failed", logging.Fields{"address": s.address, "error": err.Error()})
	}
	s.state.Store(int32(StateClosed))
}

// receivedMessageAck is echoed back for every inbound Text frame.
const receivedMessageAck = "Received message."

// readPump dispatches every inbound frame kind: a Text frame gets a
// fixed acknowledgement, a Binary frame is echoed back unchanged, a
// Ping resets the heartbeat deadline and is answered with a Pong, and
// a Close is answered in kind before the loop exits. Pong frames need
// no handling beyond the deadline reset gorilla already applies via
// SetPongHandler.
func (s *Session) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	s.conn.SetReadDeadline(time.Now().Add(s.heartbeatTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.heartbeatTimeout))
		return nil
	})
	s.conn.SetPingHandler(func(appData string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.heartbeatTimeout))
		return s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})
	s.conn.SetCloseHandler(func(code int, text string) error {
		message := websocket.FormatCloseMessage(code, "")
		s.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(10*time.Second))
		return &websocket.CloseError{Code: code, Text: text}
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		switch messageType {
		case websocket.TextMessage:
			s.enqueue(websocket.TextMessage, []byte(receivedMessageAck))
		case websocket.BinaryMessage:
			s.enqueue(websocket.BinaryMessage, data)
		}
	}
}

// writePump owns every write to the connection: outbound messages and
// heartbeat pings share this goroutine because gorilla/websocket
// forbids concurrent writers.
func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(frame.msgType, frame.data); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ Registry = (*registry.Registry)(nil)
