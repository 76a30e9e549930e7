package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/apierr"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/logging"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/wsconn"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Sessions are service-to-service, not browser-to-service: there is
	// no origin policy to enforce here, unlike a dashboard's WS.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket is GET /ws/: a service opens a persistent session
// here, identifying itself with the asset-group and client-address
// headers. The connection stays open for as long as the service does;
// its lifecycle is owned by wsconn.Session once the upgrade succeeds.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	assetGroupID, address, err := parseConnHeaders(r)
	if err != nil {
		apierr.WriteJSON(w, "ws", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.ErrorCF("ws", "upgrade failed", logging.Fields{"error": err.Error()})
		return
	}

	session := wsconn.NewSession(conn, assetGroupID, address, s.registry, s.heartbeatInterval, s.heartbeatTimeout)
	go session.Run(context.Background())
}

func parseConnHeaders(r *http.Request) (int32, string, error) {
	groupHeader := r.Header.Get(AssetGroupIDHeader)
	address := r.Header.Get(ClientAddressHeader)
	if groupHeader == "" || address == "" {
		return 0, "", apierr.BadRequest("missing required headers " + AssetGroupIDHeader + " and " + ClientAddressHeader)
	}
	id, err := strconv.ParseInt(groupHeader, 10, 32)
	if err != nil {
		return 0, "", apierr.BadRequest("invalid " + AssetGroupIDHeader)
	}
	return int32(id), address, nil
}
