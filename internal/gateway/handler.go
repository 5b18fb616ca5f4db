package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/protocol"
)

// Querier answers read-only questions about the live session.
type Querier interface {
	IsFirstToPlay(identity string) (bool, error)
	Snapshot() game.Snapshot
}

// HTTPHandler holds dependencies for the auxiliary HTTP queries.
type HTTPHandler struct {
	logger      *slog.Logger
	querier     Querier
	connections *ConnectionManager
}

func NewHTTPHandler(logger *slog.Logger, querier Querier, connections *ConnectionManager) *HTTPHandler {
	return &HTTPHandler{
		logger:      logger.WithGroup("http"),
		querier:     querier,
		connections: connections,
	}
}

type statusResponse struct {
	Session     game.Snapshot `json:"session"`
	Connections int64         `json:"connections"`
}

// writeJSON is a helper function to write JSON responses, handling serialization and headers.
func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.Warn("Failed to encode response", "error", err)
		}
	}
}

// writeError sends an ErrorEvent body, the same shape websocket clients get.
func (h *HTTPHandler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, ErrorPayload(game.EventFromError(err)))
}

// HandleFirstPlayer is the HTTP handler for GET /game/first-player.
func (h *HTTPHandler) HandleFirstPlayer(w http.ResponseWriter, r *http.Request) {
	identity := r.Header.Get(protocol.HeaderSocketUserName)

	first, err := h.querier.IsFirstToPlay(identity)
	if err != nil {
		if errors.Is(err, game.ErrParameterMissing) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, protocol.FirstToPlayResponse{IsFirstToPlay: first})
}

// HandleStatus is the HTTP handler for GET /game/status.
func (h *HTTPHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, statusResponse{
		Session:     h.querier.Snapshot(),
		Connections: h.connections.Count(),
	})
}
