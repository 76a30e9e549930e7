package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domain"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/registry"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/store/storetest"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/sync"
)

// TestHandleWebSocket_UnknownAddressRegistersAsHealthy ports the
// original integration test's scenario: a service address never
// synced into the store connects, receives a "Registered" Text frame
// first, and the store gains a Healthy row for it.
func TestHandleWebSocket_UnknownAddressRegistersAsHealthy(t *testing.T) {
	gw := storetest.New()
	gw.SeedAssetGroup(domain.AssetGroup{AssetGroupID: 1, Name: "g1"})
	syncSvc := sync.New(gw, nil)

	reg := registry.New(gw, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reg.Run(ctx)

	s := NewServer(":0", gw, syncSvc, reg, 5*time.Second, 30*time.Second)
	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/"
	header := http.Header{}
	header.Set(AssetGroupIDHeader, "1")
	header.Set(ClientAddressHeader, "localhost:1235")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.TextMessage || string(data) != registry.RegisteredFrame {
		t.Fatalf("expected Text %q frame, got type=%d data=%q", registry.RegisteredFrame, msgType, data)
	}

	svc, err := gw.FindServiceByAddress(context.Background(), 1, "localhost:1235")
	if err != nil {
		t.Fatalf("FindServiceByAddress: %v", err)
	}
	if svc.Health != domain.HealthHealthy {
		t.Fatalf("expected Healthy, got %s", svc.Health)
	}
}

func TestHandleWebSocket_MissingHeadersRejected(t *testing.T) {
	gw := storetest.New()
	gw.SeedAssetGroup(domain.AssetGroup{AssetGroupID: 1, Name: "g1"})
	syncSvc := sync.New(gw, nil)
	reg := registry.New(gw, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reg.Run(ctx)

	s := NewServer(":0", gw, syncSvc, reg, 5*time.Second, 30*time.Second)
	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail without required headers")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		status := -1
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("expected 400, got %d", status)
	}
}
