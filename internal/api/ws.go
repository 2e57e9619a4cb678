package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/quillfin/bursar/internal/profile"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// wsError is the error frame sent over the WebSocket when a turn
// cannot be processed. The connection stays open for the next turn.
type wsError struct {
	Error string `json:"error"`
}

// handleWS runs interview turns over a WebSocket: the client sends
// TurnRequest frames and receives TurnResult frames back, one per
// turn. Fatal errors (unknown session) close the connection; per-turn
// errors come back as error frames.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Get(id); err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "session_id", id, "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("websocket connected", "session_id", id)

	for {
		var req TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", "session_id", id, "error", err)
			}
			return
		}

		if req.Message == "" {
			if err := conn.WriteJSON(wsError{Error: "message is required"}); err != nil {
				return
			}
			continue
		}

		result, err := s.engine.ProcessTurn(r.Context(), id, req.Message)
		if err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				conn.WriteJSON(wsError{Error: "session not found"})
				return
			}
			s.logger.Error("websocket turn failed", "session_id", id, "error", err)
			if err := conn.WriteJSON(wsError{Error: "turn failed"}); err != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(result); err != nil {
			s.logger.Debug("websocket write failed", "session_id", id, "error", err)
			return
		}
	}
}
