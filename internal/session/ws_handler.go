package session

import (
	"net/http"
)

// HandleWebSocket upgrades an HTTP request and hands the connection to the
// protocol loop. There is no authentication: identity is the connection
// itself, which is all a single-classroom session needs.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn)
}
