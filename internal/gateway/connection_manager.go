package gateway

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/cheildo/game-of-three/internal/protocol"
)

// Sink delivers a frame to the participant with the given identity. It
// reports false when the frame could not be handed over.
type Sink interface {
	Deliver(identity string, frame protocol.Frame) bool
}

// connection is one participant's websocket. Frames are queued on send and
// written by the connection's write pump.
type connection struct {
	identity string
	ws       *websocket.Conn
	send     chan protocol.Frame

	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(identity string, ws *websocket.Conn, buffer int) *connection {
	return &connection{
		identity: identity,
		ws:       ws,
		send:     make(chan protocol.Frame, buffer),
		done:     make(chan struct{}),
	}
}

// enqueue queues f without blocking. A full buffer drops the frame.
func (c *connection) enqueue(f protocol.Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ConnectionManager safely stores and retrieves active WebSocket connections.
type ConnectionManager struct {
	connections sync.Map // map[identity]*connection
	active      atomic.Int64
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{}
}

// Add registers c. It returns false when another connection already uses
// the same identity.
func (cm *ConnectionManager) Add(c *connection) bool {
	if _, loaded := cm.connections.LoadOrStore(c.identity, c); loaded {
		return false
	}
	cm.active.Add(1)
	return true
}

// Remove unregisters c, leaving a newer connection with the same identity alone.
func (cm *ConnectionManager) Remove(c *connection) {
	if cm.connections.CompareAndDelete(c.identity, c) {
		cm.active.Add(-1)
	}
}

// Has reports whether identity has a live connection on this instance.
func (cm *ConnectionManager) Has(identity string) bool {
	_, ok := cm.connections.Load(identity)
	return ok
}

// Deliver queues frame on the connection of identity.
func (cm *ConnectionManager) Deliver(identity string, frame protocol.Frame) bool {
	v, ok := cm.connections.Load(identity)
	if !ok {
		return false
	}
	return v.(*connection).enqueue(frame)
}

// Count returns the number of live connections.
func (cm *ConnectionManager) Count() int64 {
	return cm.active.Load()
}
