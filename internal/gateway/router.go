package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 10 * time.Second

// NewRouter mounts the websocket endpoint and the HTTP queries. The websocket
// route lives outside the timeout group since its request never finishes
// while the game runs.
func NewRouter(ws http.Handler, h *HTTPHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/websocket", ws)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/game/first-player", h.HandleFirstPlayer)
		r.Get("/game/status", h.HandleStatus)
	})

	return r
}
