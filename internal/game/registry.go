package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Registry is the matchmaker. It owns the single live Session, seats
// connecting participants into it and swaps in a fresh Session once the
// current one resets.
type Registry struct {
	logger     *slog.Logger
	dispatcher Dispatcher
	publisher  EventPublisher
	now        func() time.Time

	mu      sync.Mutex
	session *Session
}

// NewRegistry creates a registry with an empty live session.
func NewRegistry(logger *slog.Logger, dispatcher Dispatcher, publisher EventPublisher) *Registry {
	if publisher == nil {
		publisher = DiscardEvents
	}
	return &Registry{
		logger:     logger.WithGroup("registry"),
		dispatcher: dispatcher,
		publisher:  publisher,
		now:        time.Now,
		session:    NewSession(dispatcher),
	}
}

// current returns the live session, replacing it first when it has reset.
func (r *Registry) current() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session.Closed() {
		r.session = NewSession(r.dispatcher)
		r.logger.Debug("Live session replaced", slog.String("session_id", r.session.ID()))
	}
	return r.session
}

// Connect seats identity in the live session. A third participant is not
// seated and gets ErrGameBusy.
func (r *Registry) Connect(ctx context.Context, identity string) error {
	for {
		s := r.current()
		err := s.Join(identity)
		if errors.Is(err, ErrSessionClosed) {
			continue
		}
		if errors.Is(err, ErrGameBusy) {
			r.logger.Info("Participant rejected, game is busy", slog.String("user", identity))
			r.publish(ctx, Event{Type: EventParticipantRejected, SessionID: s.ID(), Participant: identity})
			return err
		}
		if err != nil {
			return err
		}

		r.logger.Info("Participant joined", slog.String("user", identity), slog.String("session_id", s.ID()))
		r.publish(ctx, Event{Type: EventParticipantJoined, SessionID: s.ID(), Participant: identity})
		return nil
	}
}

// AfterConnect answers a participant that finished connecting: a participant
// without a seat is told the game is busy, a seated one catches up on the
// session state.
func (r *Registry) AfterConnect(ctx context.Context, identity string) error {
	s := r.current()

	seated, err := s.IsOccupiedBy(identity)
	if err != nil {
		return r.reject(identity, err)
	}
	if !seated {
		r.dispatcher.SendNotification(identity, NotifyGameBusy)
		return nil
	}
	if err := s.QueryFirstNumber(identity); err != nil {
		return r.reject(identity, err)
	}
	return nil
}

// SubmitMove applies a move by identity to the live session. A rejected move
// is reported to identity only and leaves the session untouched.
func (r *Registry) SubmitMove(ctx context.Context, identity string, move Move) error {
	s := r.current()

	result, err := s.ApplyMove(identity, move)
	if err != nil {
		return r.reject(identity, err)
	}

	running := result.RunningNumber
	r.publish(ctx, Event{
		Type:            EventMoveApplied,
		SessionID:       s.ID(),
		Participant:     identity,
		Opponent:        result.Opponent,
		ResultingNumber: &result.Applied.ResultingNumber,
		Added:           result.Applied.Added,
		RunningNumber:   &running,
	})

	if result.Finished {
		r.logger.Info("Game finished", slog.String("winner", identity), slog.String("session_id", s.ID()))
		r.publish(ctx, Event{Type: EventGameFinished, SessionID: s.ID(), Participant: identity, Opponent: result.Opponent})
		r.replace(s)
	}
	return nil
}

// Disconnect removes identity from the live session. When identity was
// seated the opponent is notified and the session is replaced.
func (r *Registry) Disconnect(ctx context.Context, identity string) {
	s := r.current()
	if !s.Leave(identity) {
		return
	}
	r.logger.Info("Participant left, session reset", slog.String("user", identity), slog.String("session_id", s.ID()))
	r.publish(ctx, Event{Type: EventGameAbandoned, SessionID: s.ID(), Participant: identity})
	r.replace(s)
}

// IsFirstToPlay reports whether identity holds the first slot of the live
// session. It depends only on occupancy, not on move history.
func (r *Registry) IsFirstToPlay(identity string) (bool, error) {
	return r.current().IsFirstSlot(identity)
}

// Snapshot returns the state of the live session.
func (r *Registry) Snapshot() Snapshot {
	return r.current().Snapshot()
}

// replace swaps in a fresh session if s is still the live one.
func (r *Registry) replace(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == s {
		r.session = NewSession(r.dispatcher)
	}
}

func (r *Registry) reject(identity string, err error) error {
	r.logger.Debug("Request rejected", slog.String("user", identity), slog.String("error", err.Error()))
	if identity != "" {
		r.dispatcher.SendError(identity, EventFromError(err))
	}
	return err
}

func (r *Registry) publish(ctx context.Context, event Event) {
	event.OccurredAt = r.now()
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("Could not publish game event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
	}
}
