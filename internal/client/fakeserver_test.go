package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/cheildo/game-of-three/internal/protocol"
)

// fakeServer upgrades every request and hands the n-th connection (from 1)
// to handle.
type fakeServer struct {
	srv   *httptest.Server
	conns atomic.Int32
}

func newFakeServer(t *testing.T, handle func(n int, ws *websocket.Conn)) *fakeServer {
	t.Helper()

	fs := &fakeServer{}
	upgrader := websocket.Upgrader{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handle(int(fs.conns.Add(1)), ws)
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http")
}

// writeFrame and readFrame run on server goroutines, so they never fail the
// test themselves; a broken connection shows up on the client side.
func writeFrame(t *testing.T, ws *websocket.Conn, destination string, payload any) {
	frame, err := protocol.NewFrame(destination, payload)
	if !assert.NoError(t, err) {
		return
	}
	_ = ws.WriteJSON(frame)
}

func readFrame(t *testing.T, ws *websocket.Conn) protocol.Frame {
	var frame protocol.Frame
	_ = ws.ReadJSON(&frame)
	return frame
}
