package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cheildo/game-of-three/internal/protocol"
)

const writeWait = 10 * time.Second

// Sender sends moves on the live connection. It is safe for concurrent use.
type Sender interface {
	SendMove(move protocol.Move) error
}

// Conn is a client websocket connection to the game server.
type Conn struct {
	ws *websocket.Conn

	mu sync.Mutex // serializes writes
}

// Dial opens a websocket to url.
func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("could not connect to %s (status %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("could not connect to %s: %w", url, err)
	}
	return &Conn{ws: ws}, nil
}

func (c *Conn) SendMove(move protocol.Move) error {
	return c.send(protocol.DestinationSend, move)
}

func (c *Conn) afterConnect() error {
	return c.send(protocol.DestinationAfterConnect, nil)
}

func (c *Conn) send(destination string, payload any) error {
	frame, err := protocol.NewFrame(destination, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(frame); err != nil {
		return fmt.Errorf("could not send to %s: %w", destination, err)
	}
	return nil
}

func (c *Conn) read() (protocol.Frame, error) {
	var frame protocol.Frame
	if err := c.ws.ReadJSON(&frame); err != nil {
		return protocol.Frame{}, err
	}
	return frame, nil
}

// readConnected reads the identity handshake.
func (c *Conn) readConnected() (string, error) {
	frame, err := c.read()
	if err != nil {
		return "", fmt.Errorf("could not read handshake: %w", err)
	}
	if frame.Destination != protocol.DestinationConnected {
		return "", fmt.Errorf("unexpected handshake destination %q", frame.Destination)
	}
	var connected protocol.Connected
	if err := frame.Decode(&connected); err != nil {
		return "", fmt.Errorf("could not decode handshake: %w", err)
	}
	return connected.UserName, nil
}

// Close sends a close frame and closes the socket.
func (c *Conn) Close() error {
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
