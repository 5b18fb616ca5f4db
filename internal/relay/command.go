package relay

import (
	"github.com/cheildo/game-of-three/internal/game"
)

type op string

const (
	opConnect       op = "connect"
	opAfterConnect  op = "after_connect"
	opSubmitMove    op = "submit_move"
	opDisconnect    op = "disconnect"
	opIsFirstToPlay op = "is_first_to_play"
	opSnapshot      op = "snapshot"
)

// request is a matchmaker call forwarded to the session owner.
type request struct {
	ID              string `json:"id"`
	ReplyTo         string `json:"replyTo"`
	Op              op     `json:"op"`
	Identity        string `json:"identity,omitempty"`
	ResultingNumber *int   `json:"resultingNumber,omitempty"`
	Added           *int   `json:"added,omitempty"`
}

func (r request) move() game.Move {
	return game.Move{ResultingNumber: r.ResultingNumber, Added: r.Added}
}

type replyError struct {
	Code    game.Code `json:"code"`
	Message string    `json:"message"`
}

// reply answers a request. Err is the rejected call, not a transport failure.
type reply struct {
	ID       string         `json:"id"`
	Err      *replyError    `json:"error,omitempty"`
	First    bool           `json:"first,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
}

func (r reply) err() error {
	if r.Err == nil {
		return nil
	}
	return game.ErrorFromEvent(game.ErrorEvent{Code: r.Err.Code, Message: r.Err.Message})
}

func failed(id string, err error) reply {
	event := game.EventFromError(err)
	return reply{ID: id, Err: &replyError{Code: event.Code, Message: event.Message}}
}
