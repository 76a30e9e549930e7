// Package registry implements the Session Registry: the single source
// of truth for which service addresses currently have a live WebSocket
// session, and the only writer of health_status on existing service rows.
//
// All registry state (the address->session map) is owned by one
// goroutine that drains unbuffered mailbox channels, following the same
// single-writer-via-channel shape as a WebSocket hub's run loop: every
// caller, regardless of which goroutine it runs on, goes through
// Connect/Disconnect/MessageToClient rather than touching the map directly.
package registry

import (
	"context"
	"fmt"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domainevent"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/logging"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/store"
)

// RegisteredFrame is the literal ASCII text frame a session receives
// the moment Connect marks it Healthy, acknowledging registration.
const RegisteredFrame = "Registered"

// Conn is the minimal send capability a registered session offers. The
// WebSocket layer (internal/wsconn) satisfies this with the per-
// connection write-pump's outbound channel.
type Conn interface {
	// Send enqueues msg for delivery to the client. It must never
	// block the registry's run loop: implementations back this with a
	// buffered channel and drop (or close) on overflow.
	Send(msg []byte) error
}

// mailbox message kinds. Only the run loop ever reads session, so
// every field access below is single-writer.
type connectMsg struct {
	assetGroupID int32
	address      string
	conn         Conn
	reply        chan error
}

type disconnectMsg struct {
	assetGroupID int32
	address      string
	reason       string
	reply        chan error
}

type sendMsg struct {
	assetGroupID int32
	address      string
	payload      []byte
	reply        chan error
}

type snapshotMsg struct {
	reply chan map[string]bool
}

// Registry tracks live sessions for every asset group and is the only
// component permitted to change a service's health_status.
type Registry struct {
	gw      store.Gateway
	bus     domainevent.Bus
	connect chan connectMsg
	disc    chan disconnectMsg
	send    chan sendMsg
	snap    chan snapshotMsg
	done    chan struct{}
}

// New constructs a Registry. Call Run in its own goroutine before using
// any of Registry's methods.
func New(gw store.Gateway, bus domainevent.Bus) *Registry {
	return &Registry{
		gw:      gw,
		bus:     bus,
		connect: make(chan connectMsg),
		disc:    make(chan disconnectMsg),
		send:    make(chan sendMsg),
		snap:    make(chan snapshotMsg),
		done:    make(chan struct{}),
	}
}

type sessionKey struct {
	assetGroupID int32
	address      string
}

// Run is the registry's single-writer loop. It owns the live-session
// map for as long as ctx is not Done; callers' Connect/Disconnect/
// MessageToClient calls block until Run picks them up, so Run must be started before
// any edge handler begins accepting connections.
func (r *Registry) Run(ctx context.Context) {
	sessions := make(map[sessionKey]Conn)
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			return

		case m := <-r.connect:
			key := sessionKey{m.assetGroupID, m.address}
			if old, ok := sessions[key]; ok {
				// A new session for an address that's already
				// registered replaces the old one; the old
				// connection is responsible for noticing its send
				// channel was abandoned and closing itself out.
				_ = old
			}
			sessions[key] = m.conn
			err := r.gw.UpsertHealthyAddress(ctx, m.assetGroupID, m.address)
			if err != nil {
				logging.ErrorCF("registry", "connect failed", logging.Fields{"address": m.address, "error": err.Error()})
			} else {
				if sendErr := m.conn.Send([]byte(RegisteredFrame)); sendErr != nil {
					logging.WarnCF("registry", "registered frame send failed", logging.Fields{"address": m.address, "error": sendErr.Error()})
				}
				if r.bus != nil {
					r.bus.Publish(domainevent.New(domainevent.EventServiceConnected, m.assetGroupID, domainevent.ServiceConnectedPayload{Address: m.address}))
				}
			}
			m.reply <- err

		case m := <-r.disc:
			key := sessionKey{m.assetGroupID, m.address}
			delete(sessions, key)
			err := r.gw.DisconnectAddress(ctx, m.assetGroupID, m.address)
			if err != nil {
				logging.ErrorCF("registry", "disconnect failed", logging.Fields{"address": m.address, "error": err.Error()})
			} else if r.bus != nil {
				r.bus.Publish(domainevent.New(domainevent.EventServiceDisconnected, m.assetGroupID, domainevent.ServiceDisconnectedPayload{
					Address: m.address,
					Reason:  m.reason,
				}))
			}
			m.reply <- err

		case m := <-r.send:
			conn, ok := sessions[sessionKey{m.assetGroupID, m.address}]
			if !ok {
				m.reply <- fmt.Errorf("registry: no live session for %q", m.address)
				continue
			}
			m.reply <- conn.Send(m.payload)

		case m := <-r.snap:
			out := make(map[string]bool, len(sessions))
			for k := range sessions {
				out[k.address] = true
			}
			m.reply <- out
		}
	}
}

// Connect registers a new live session for address and marks the
// service Healthy. It blocks until the registry's run loop processes
// the request.
func (r *Registry) Connect(ctx context.Context, assetGroupID int32, address string, conn Conn) error {
	reply := make(chan error, 1)
	select {
	case r.connect <- connectMsg{assetGroupID: assetGroupID, address: address, conn: conn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect removes a session's entry and marks the service
// Disconnected.
func (r *Registry) Disconnect(ctx context.Context, assetGroupID int32, address string, reason string) error {
	reply := make(chan error, 1)
	select {
	case r.disc <- disconnectMsg{assetGroupID: assetGroupID, address: address, reason: reason, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MessageToClient delivers payload to the live session at address, if
// any. It returns an error if no session is currently registered for
// that address.
func (r *Registry) MessageToClient(ctx context.Context, assetGroupID int32, address string, payload []byte) error {
	reply := make(chan error, 1)
	select {
	case r.send <- sendMsg{assetGroupID: assetGroupID, address: address, payload: payload, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConnectedAddresses returns a snapshot of every address with a live
// session, across all asset groups. Intended for diagnostics.
func (r *Registry) ConnectedAddresses(ctx context.Context) (map[string]bool, error) {
	reply := make(chan map[string]bool, 1)
	select {
	case r.snap <- snapshotMsg{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case out := <-reply:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
