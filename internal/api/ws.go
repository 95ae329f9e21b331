package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kaleida/vjdeck/server/internal/hub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler owns the realtime upgrade path. Each accepted connection is
// registered with the hub and pumped by a read loop until the peer goes
// away; every inbound frame is handed to the hub whole.
type WSHandler struct {
	Hub *hub.Hub
	Log *zap.Logger
}

func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := h.Hub.Register(conn)
	defer func() {
		h.Hub.Unregister(c)
		conn.Close()
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			h.Log.Debug("read loop ended", zap.String("conn", c.ID()), zap.Error(err))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.Hub.HandleFrame(c, msg)
	}
}
