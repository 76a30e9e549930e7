package wsconn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/registry"
)

// fakeRegistry is Registry for tests: it records calls instead of
// maintaining any real session map.
type fakeRegistry struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	lastAddress string
}

func (f *fakeRegistry) Connect(ctx context.Context, assetGroupID int32, address string, conn registry.Conn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.lastAddress = address
	return nil
}

func (f *fakeRegistry) Disconnect(ctx context.Context, assetGroupID int32, address string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

var testUpgrader = websocket.Upgrader{}

func newTestWSServer(t *testing.T, reg Registry) (*httptest.Server, func() *Session) {
	t.Helper()
	var session *Session
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		s := NewSession(conn, 1, "localhost:100", reg, 50*time.Millisecond, 2*time.Second)
		mu.Lock()
		session = s
		mu.Unlock()
		go s.Run(context.Background())
	}))
	return srv, func() *Session {
		mu.Lock()
		defer mu.Unlock()
		return session
	}
}

func dialTestServer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestSession_EchoesTextWithFixedAcknowledgement(t *testing.T) {
	reg := &fakeRegistry{}
	srv, _ := newTestWSServer(t, reg)
	defer srv.Close()

	conn := dialTestServer(t, srv)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello service")); err != nil {
		t.Fatalf("write: %v", err)
	}

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.TextMessage || string(data) != receivedMessageAck {
		t.Fatalf("expected Text %q, got type=%d data=%q", receivedMessageAck, msgType, data)
	}
}

func TestSession_EchoesBinaryUnchanged(t *testing.T) {
	reg := &fakeRegistry{}
	srv, _ := newTestWSServer(t, reg)
	defer srv.Close()

	conn := dialTestServer(t, srv)
	defer conn.Close()

	payload := []byte{0x01, 0x02, 0x03, 0xff}
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.BinaryMessage || string(data) != string(payload) {
		t.Fatalf("expected Binary echo %v, got type=%d data=%v", payload, msgType, data)
	}
}

func TestSession_ServerPushIsTextFrame(t *testing.T) {
	reg := &fakeRegistry{}
	srv, getSession := newTestWSServer(t, reg)
	defer srv.Close()

	conn := dialTestServer(t, srv)
	defer conn.Close()

	// Give Run a moment to finish registering before pushing.
	time.Sleep(20 * time.Millisecond)
	session := getSession()
	if session == nil {
		t.Fatal("session not established")
	}
	if err := session.Send([]byte(`{"k":"v"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.TextMessage || string(data) != `{"k":"v"}` {
		t.Fatalf("expected Text push, got type=%d data=%q", msgType, data)
	}
}

func TestSession_CloseDisconnectsFromRegistry(t *testing.T) {
	reg := &fakeRegistry{}
	srv, _ := newTestWSServer(t, reg)
	defer srv.Close()

	conn := dialTestServer(t, srv)
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		reg.mu.Lock()
		d := reg.disconnects
		reg.mu.Unlock()
		if d > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected registry Disconnect to be called after client close")
}
