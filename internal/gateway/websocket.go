package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096

	defaultSendBuffer = 16
	defaultPongWait   = 60 * time.Second
)

// upgrader is used to upgrade an HTTP connection to a persistent WebSocket connection.
var upgrader = websocket.Upgrader{
	// Allow connections from any origin (for development).
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Matchmaker is the part of the game registry the websocket handler drives.
type Matchmaker interface {
	Connect(ctx context.Context, identity string) error
	AfterConnect(ctx context.Context, identity string) error
	SubmitMove(ctx context.Context, identity string, move game.Move) error
	Disconnect(ctx context.Context, identity string)
}

type WebsocketConfig struct {
	SendBuffer int
	PongWait   time.Duration
}

func (c WebsocketConfig) withDefaults() WebsocketConfig {
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	if c.PongWait <= 0 {
		c.PongWait = defaultPongWait
	}
	return c
}

// WebsocketHandler upgrades participants to a websocket, seats them through
// the Matchmaker and routes their frames.
type WebsocketHandler struct {
	logger      *slog.Logger
	matchmaker  Matchmaker
	connections *ConnectionManager
	identities  *IdentityIssuer
	cfg         WebsocketConfig
}

func NewWebsocketHandler(logger *slog.Logger, matchmaker Matchmaker, connections *ConnectionManager, identities *IdentityIssuer, cfg WebsocketConfig) *WebsocketHandler {
	return &WebsocketHandler{
		logger:      logger.WithGroup("websocket"),
		matchmaker:  matchmaker,
		connections: connections,
		identities:  identities,
		cfg:         cfg.withDefaults(),
	}
}

// ServeHTTP is the entry point for an HTTP request. It upgrades the connection and handles it.
func (h *WebsocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := h.resolveIdentity(r)

	header := http.Header{}
	cookie, err := h.identities.Cookie(identity)
	if err != nil {
		h.logger.Warn("Failed to build identity cookie", "user", identity, "error", err)
	} else if cookie != nil {
		header.Add("Set-Cookie", cookie.String())
	}

	ws, err := upgrader.Upgrade(w, r, header)
	if err != nil {
		h.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	c := newConnection(identity, ws, h.cfg.SendBuffer)
	if !h.connections.Add(c) {
		h.logger.Warn("Identity already connected, closing", "user", identity)
		ws.Close()
		return
	}
	h.logger.Info("WebSocket connection established", "user", identity)

	go h.writePump(c)

	// The participant is seated before it learns its identity, so a first
	// player query that follows the connected frame sees the seat.
	ctx := r.Context()
	if err := h.matchmaker.Connect(ctx, identity); err != nil && !errors.Is(err, game.ErrGameBusy) {
		h.logger.Error("Failed to seat participant", "user", identity, "error", err)
	}

	frame, err := protocol.NewFrame(protocol.DestinationConnected, protocol.Connected{UserName: identity})
	if err == nil {
		c.enqueue(frame)
	}

	h.readPump(ctx, c)
}

// resolveIdentity keeps the cookie identity unless it is already in use on
// this instance.
func (h *WebsocketHandler) resolveIdentity(r *http.Request) string {
	if identity, ok := h.identities.Resolve(r); ok && !h.connections.Has(identity) {
		return identity
	}
	return h.identities.NewIdentity()
}

// readPump runs for the lifetime of the connection. Leaving the session
// happens here, before the handler returns.
func (h *WebsocketHandler) readPump(ctx context.Context, c *connection) {
	defer func() {
		h.logger.Info("Closing WebSocket connection", "user", c.identity)
		// Leave before unregistering, so a reconnect with the same identity
		// is refused until the seat is gone.
		h.matchmaker.Disconnect(context.Background(), c.identity)
		h.connections.Remove(c)
		c.close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket connection closed unexpectedly", "user", c.identity, "error", err)
			}
			return
		}
		h.handleFrame(ctx, c, data)
	}
}

func (h *WebsocketHandler) handleFrame(ctx context.Context, c *connection, data []byte) {
	var frame protocol.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.replyError(c, game.MalformedMessage())
		return
	}

	switch frame.Destination {
	case protocol.DestinationSend:
		move, err := decodeMove(frame.Payload)
		if err != nil {
			h.replyError(c, err)
			return
		}
		// Rejections are already reported to the sender by the registry.
		_ = h.matchmaker.SubmitMove(ctx, c.identity, move)
	case protocol.DestinationAfterConnect:
		_ = h.matchmaker.AfterConnect(ctx, c.identity)
	default:
		h.logger.Debug("Unknown destination", "user", c.identity, "destination", frame.Destination)
		h.replyError(c, game.MalformedMessage())
	}
}

func (h *WebsocketHandler) replyError(c *connection, err error) {
	frame, encErr := protocol.NewFrame(protocol.DestinationErrors, ErrorPayload(game.EventFromError(err)))
	if encErr != nil {
		return
	}
	if !c.enqueue(frame) {
		h.logger.Warn("Could not deliver frame", "user", c.identity, "destination", protocol.DestinationErrors)
	}
}

// writePump is the only writer of c.ws.
func (h *WebsocketHandler) writePump(c *connection) {
	ticker := time.NewTicker(h.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(frame); err != nil {
				h.logger.Warn("Failed to write frame", "user", c.identity, "error", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
