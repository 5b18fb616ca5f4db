// Package client connects a participant to the game server and feeds the
// frames it receives to a Listener.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/cheildo/game-of-three/internal/protocol"
)

// ErrQuit stops the client without reconnecting.
var ErrQuit = errors.New("player quit")

// Listener reacts to what the server sends. An error returned by a callback
// drops the connection; it is retried unless it wraps ErrQuit.
type Listener interface {
	OnConnected(ctx context.Context, s Sender, identity string) error
	OnMove(ctx context.Context, s Sender, move protocol.AppliedMove) error
	OnNotification(ctx context.Context, s Sender, n protocol.Notification) error
	OnError(ctx context.Context, s Sender, e protocol.ErrorEvent) error
}

// Config controls where the client connects and how often it reconnects.
type Config struct {
	WebsocketURL    string
	MaxRetries      uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client plays one game per Play call on behalf of a Listener.
type Client struct {
	logger   *slog.Logger
	cfg      Config
	listener Listener
}

// New returns a client that reports server frames to listener.
func New(logger *slog.Logger, cfg Config, listener Listener) *Client {
	return &Client{
		logger:   logger.WithGroup("client"),
		cfg:      cfg,
		listener: listener,
	}
}

// Play connects and plays until the game ends. A dropped connection is
// retried with exponential backoff, at most MaxRetries times.
func (c *Client) Play(ctx context.Context) error {
	expo := backoff.NewExponentialBackOff()
	if c.cfg.InitialInterval > 0 {
		expo.InitialInterval = c.cfg.InitialInterval
	}
	if c.cfg.MaxInterval > 0 {
		expo.MaxInterval = c.cfg.MaxInterval
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.playOnce(ctx)
		switch {
		case err == nil:
			return struct{}{}, nil
		case ctx.Err() != nil:
			return struct{}{}, backoff.Permanent(ctx.Err())
		case errors.Is(err, ErrQuit):
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.cfg.MaxRetries+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("Connection lost, reconnecting", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("could not finish the game: %w", err)
	}
	return nil
}

// playOnce runs one connection. It returns nil once a notification ends the
// game.
func (c *Client) playOnce(ctx context.Context) error {
	conn, err := Dial(ctx, c.cfg.WebsocketURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.ws.Close() })
	defer stop()

	identity, err := conn.readConnected()
	if err != nil {
		return err
	}
	c.logger.Info("Connected to the game server", "user", identity)

	if err := conn.afterConnect(); err != nil {
		return err
	}
	if err := c.listener.OnConnected(ctx, conn, identity); err != nil {
		return err
	}

	for {
		frame, err := conn.read()
		if err != nil {
			return fmt.Errorf("could not read frame: %w", err)
		}
		done, err := c.dispatch(ctx, conn, frame)
		if err != nil || done {
			return err
		}
	}
}

func (c *Client) dispatch(ctx context.Context, conn *Conn, frame protocol.Frame) (bool, error) {
	switch frame.Destination {
	case protocol.DestinationGameMoves:
		var move protocol.AppliedMove
		if err := frame.Decode(&move); err != nil {
			return false, fmt.Errorf("could not decode move: %w", err)
		}
		return false, c.listener.OnMove(ctx, conn, move)
	case protocol.DestinationNotifications:
		var n protocol.Notification
		if err := frame.Decode(&n); err != nil {
			return false, fmt.Errorf("could not decode notification: %w", err)
		}
		if err := c.listener.OnNotification(ctx, conn, n); err != nil {
			return false, err
		}
		return n.Ends(), nil
	case protocol.DestinationErrors:
		var e protocol.ErrorEvent
		if err := frame.Decode(&e); err != nil {
			return false, fmt.Errorf("could not decode error: %w", err)
		}
		return false, c.listener.OnError(ctx, conn, e)
	default:
		c.logger.Debug("Ignoring frame", "destination", frame.Destination)
		return false, nil
	}
}
