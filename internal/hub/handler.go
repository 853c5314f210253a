package hub

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Handler returns an HTTP handler that upgrades connections and runs
// them as hub clients.
func Handler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(h, conn)
		client.Run(r.Context())
	}
}
