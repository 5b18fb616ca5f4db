// Package protocol defines the JSON frames exchanged between the game server
// and its clients over the websocket, and the auxiliary query payloads.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound destinations, sent by a client.
const (
	DestinationSend         = "/app/send"
	DestinationAfterConnect = "/app/after_connect"
)

// Outbound destinations, the per-user queues a client receives.
const (
	DestinationConnected     = "/user/queue/connected"
	DestinationGameMoves     = "/user/queue/game_moves"
	DestinationNotifications = "/user/queue/notifications"
	DestinationErrors        = "/user/queue/errors"
)

// HeaderSocketUserName carries the caller identity on the first-player query.
const HeaderSocketUserName = "socketUserName"

// Frame is the envelope of every websocket message.
type Frame struct {
	Destination string          `json:"destination"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// NewFrame encodes payload for destination. A nil payload produces a frame
// without body.
func NewFrame(destination string, payload any) (Frame, error) {
	f := Frame{Destination: destination}
	if payload == nil {
		return f, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("could not encode payload for %s: %w", destination, err)
	}
	f.Payload = data
	return f, nil
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("frame for %s has no payload", f.Destination)
	}
	return json.Unmarshal(f.Payload, v)
}

// Move is a move submitted by a client.
type Move struct {
	ResultingNumber *int `json:"resultingNumber,omitempty"`
	Added           *int `json:"added,omitempty"`
}

// AppliedMove is a move echoed by the server. Added is null for the opening
// move and for catch-up messages.
type AppliedMove struct {
	ResultingNumber int  `json:"resultingNumber"`
	Added           *int `json:"added"`
}

// Notification is a game state change.
type Notification struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// Notification codes sent by the server.
const (
	NotificationGameBusy             = "GAME_BUSY"
	NotificationWaitForOpponent      = "WAIT_FOR_OPPONENT"
	NotificationYouWon               = "YOU_WON"
	NotificationYouLost              = "YOU_LOST"
	NotificationOpponentDisconnected = "OPPONENT_DISCONNECTED"
)

// Ends reports whether the notification terminates the client's game.
func (n Notification) Ends() bool {
	switch n.Code {
	case NotificationGameBusy, NotificationYouWon, NotificationYouLost, NotificationOpponentDisconnected:
		return true
	default:
		return false
	}
}

// ErrorEvent reports a rejected request to its sender.
type ErrorEvent struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Connected is the first frame a client receives and carries its identity.
type Connected struct {
	UserName string `json:"userName"`
}

// FirstToPlayResponse answers the first-player query.
type FirstToPlayResponse struct {
	IsFirstToPlay bool `json:"isFirstToPlay"`
}

// Int returns a pointer to v, for building moves.
func Int(v int) *int {
	return &v
}
