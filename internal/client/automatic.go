package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cheildo/game-of-three/internal/autoplay"
	"github.com/cheildo/game-of-three/internal/protocol"
)

var _ Listener = (*Automatic)(nil)

// Automatic plays without human input.
type Automatic struct {
	out     io.Writer
	querier FirstPlayerQuerier
	player  *autoplay.Player
	now     func() time.Time
}

// NewAutomatic returns a listener that plays every turn with player.
func NewAutomatic(out io.Writer, querier FirstPlayerQuerier, player *autoplay.Player) *Automatic {
	return &Automatic{
		out:     out,
		querier: querier,
		player:  player,
		now:     time.Now,
	}
}

func (a *Automatic) OnConnected(ctx context.Context, s Sender, identity string) error {
	fmt.Fprintf(a.out, "Connected to the game server. Your username: %s\n", identity)
	a.player.Reset()

	first, err := a.querier.IsFirstToPlay(ctx, identity)
	if err != nil {
		return err
	}
	if move, ok := a.player.Start(first); ok {
		return s.SendMove(move)
	}
	return nil
}

func (a *Automatic) OnMove(ctx context.Context, s Sender, move protocol.AppliedMove) error {
	PrintMove(a.out, move, a.now())
	if reply, ok := a.player.Observe(move); ok {
		return s.SendMove(reply)
	}
	return nil
}

func (a *Automatic) OnNotification(ctx context.Context, s Sender, n protocol.Notification) error {
	if n.Code == protocol.NotificationWaitForOpponent {
		return nil
	}
	printNotification(a.out, n)
	if n.Ends() {
		a.player.Reset()
	}
	return nil
}

func (a *Automatic) OnError(ctx context.Context, s Sender, e protocol.ErrorEvent) error {
	printError(a.out, e)
	return nil
}
