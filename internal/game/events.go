package game

import (
	"context"
	"time"
)

// EventType names a session lifecycle event.
type EventType string

const (
	EventParticipantJoined   EventType = "participant_joined"
	EventParticipantRejected EventType = "participant_rejected"
	EventMoveApplied         EventType = "move_applied"
	EventGameFinished        EventType = "game_finished"
	EventGameAbandoned       EventType = "game_abandoned"
)

// Event is published on every session lifecycle change.
type Event struct {
	Type            EventType `json:"type"`
	SessionID       string    `json:"sessionID"`
	Participant     string    `json:"participant"`
	Opponent        string    `json:"opponent,omitempty"`
	ResultingNumber *int      `json:"resultingNumber,omitempty"`
	Added           *int      `json:"added,omitempty"`
	RunningNumber   *int      `json:"runningNumber,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// EventPublisher receives session lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// DiscardEvents is an EventPublisher that drops every event.
var DiscardEvents EventPublisher = discardPublisher{}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, Event) error { return nil }
