package gateway

import (
	"log/slog"

	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/protocol"
)

var _ game.Dispatcher = (*Dispatcher)(nil)

// Dispatcher translates game output into frames and hands them to a Sink.
// Delivery is fire-and-forget: failures are logged and never reported back
// to the game.
type Dispatcher struct {
	logger *slog.Logger
	sink   Sink
}

func NewDispatcher(logger *slog.Logger, sink Sink) *Dispatcher {
	return &Dispatcher{
		logger: logger.WithGroup("dispatcher"),
		sink:   sink,
	}
}

func (d *Dispatcher) SendMove(to string, move game.AppliedMove) {
	d.send(to, protocol.DestinationGameMoves, MovePayload(move))
}

func (d *Dispatcher) SendNotification(to string, notification game.Notification) {
	d.send(to, protocol.DestinationNotifications, NotificationPayload(notification))
}

func (d *Dispatcher) SendError(to string, event game.ErrorEvent) {
	d.send(to, protocol.DestinationErrors, ErrorPayload(event))
}

func (d *Dispatcher) send(to, destination string, payload any) {
	frame, err := protocol.NewFrame(destination, payload)
	if err != nil {
		d.logger.Error("Could not encode frame", slog.String("user", to), slog.String("error", err.Error()))
		return
	}
	if !d.sink.Deliver(to, frame) {
		d.logger.Warn("Could not deliver frame", slog.String("user", to), slog.String("destination", destination))
	}
}

// MovePayload is the wire form of an applied move.
func MovePayload(move game.AppliedMove) protocol.AppliedMove {
	out := protocol.AppliedMove{ResultingNumber: move.ResultingNumber}
	if move.Added != nil {
		out.Added = protocol.Int(*move.Added)
	}
	return out
}

// NotificationPayload is the wire form of a notification.
func NotificationPayload(n game.Notification) protocol.Notification {
	return protocol.Notification{Code: string(n.Code), Text: n.Text}
}

// ErrorPayload is the wire form of an error event.
func ErrorPayload(e game.ErrorEvent) protocol.ErrorEvent {
	return protocol.ErrorEvent{ErrorCode: string(e.Code), ErrorMessage: e.Message}
}
