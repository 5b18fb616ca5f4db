package game

import (
	"sync"

	"github.com/google/uuid"
)

const maxParticipants = 2

// State is the lifecycle state of a Session.
type State string

const (
	StateEmpty                  State = "EMPTY"
	StateWaitingForSecondPlayer State = "WAITING_FOR_SECOND_PLAYER"
	StateInProgress             State = "IN_PROGRESS"
)

// Dispatcher delivers game output to a single participant. Implementations
// must not block for long: the Session calls it while holding its lock, and a
// delivery failure never rolls back a committed move.
type Dispatcher interface {
	SendMove(to string, move AppliedMove)
	SendNotification(to string, notification Notification)
	SendError(to string, event ErrorEvent)
}

// Snapshot is a copy of the session state for diagnostics.
type Snapshot struct {
	ID            string `json:"id"`
	State         State  `json:"state"`
	ParticipantA  string `json:"participantA,omitempty"`
	ParticipantB  string `json:"participantB,omitempty"`
	Participants  int    `json:"participants"`
	TurnHolder    string `json:"turnHolder,omitempty"`
	MoveCount     uint   `json:"moveCount"`
	RunningNumber int    `json:"runningNumber"`
}

// MoveResult describes a committed move.
type MoveResult struct {
	Applied       AppliedMove
	RunningNumber int
	Opponent      string
	Finished      bool
}

// Session is one game between at most two participants. All operations are
// serialized by a single mutex. A Session is single use: once it resets to
// EMPTY it refuses new participants with ErrSessionClosed.
type Session struct {
	id         string
	dispatcher Dispatcher

	mu            sync.Mutex
	participantA  string
	participantB  string
	turnHolder    string
	moveCount     uint
	runningNumber int
	closed        bool
}

// NewSession creates an empty session that reports to dispatcher.
func NewSession(dispatcher Dispatcher) *Session {
	return &Session{
		id:         uuid.NewString(),
		dispatcher: dispatcher,
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// Join seats identity. The first participant takes slot A and the turn. The
// second takes slot B and also takes the turn when the first participant has
// already made the opening move alone. Joining a full session changes nothing
// and returns ErrGameBusy.
func (s *Session) Join(identity string) error {
	if identity == "" {
		return parameterMissing("user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.isSeated(identity) {
		return nil
	}

	switch {
	case s.participants() == maxParticipants:
		return gameBusy()
	case s.participantA == "":
		s.participantA = identity
		s.turnHolder = identity
	default:
		s.participantB = identity
		if s.moveCount == 1 {
			s.turnHolder = identity
		}
	}
	return nil
}

// ApplyMove validates and commits a move by identity, then sends the applied
// move to the opponent and to the mover, in that order. When the move reaches
// the winning number the mover is told they won, the opponent that they lost,
// and the session resets.
func (s *Session) ApplyMove(identity string, move Move) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity == "" || identity != s.turnHolder {
		return MoveResult{}, notYourTurn()
	}

	applied, running, err := ApplyMove(s.runningNumber, s.moveCount, move)
	if err != nil {
		return MoveResult{}, err
	}

	opponent := s.opponentOf(identity)
	s.runningNumber = running
	s.moveCount++

	if opponent != "" {
		s.dispatcher.SendMove(opponent, applied)
	}
	s.dispatcher.SendMove(identity, applied)

	result := MoveResult{
		Applied:       applied,
		RunningNumber: running,
		Opponent:      opponent,
	}

	if IsWinning(running) {
		s.dispatcher.SendNotification(identity, NotifyYouWon)
		if opponent != "" {
			s.dispatcher.SendNotification(opponent, NotifyYouLost)
		}
		s.reset()
		result.Finished = true
		return result, nil
	}

	s.turnHolder = opponent
	return result, nil
}

// QueryFirstNumber lets identity catch up after connecting. It resends the
// current running number when a move was recorded, and asks the participant
// to wait when nobody else is seated.
func (s *Session) QueryFirstNumber(identity string) error {
	if identity == "" {
		return parameterMissing("user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.moveCount > 0 {
		s.dispatcher.SendMove(identity, AppliedMove{ResultingNumber: s.runningNumber})
	}
	if s.participants() == 1 {
		s.dispatcher.SendNotification(identity, NotifyWaitForOpponent)
	}
	return nil
}

// Leave removes identity. The opponent, if any, is notified and the session
// resets. Leave reports whether identity was seated.
func (s *Session) Leave(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity == "" || !s.isSeated(identity) {
		return false
	}
	if opponent := s.opponentOf(identity); opponent != "" {
		s.dispatcher.SendNotification(opponent, NotifyOpponentDisconnected)
	}
	s.reset()
	return true
}

// IsOccupiedBy reports whether identity holds one of the two slots.
func (s *Session) IsOccupiedBy(identity string) (bool, error) {
	if identity == "" {
		return false, parameterMissing("user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSeated(identity), nil
}

// IsFirstSlot reports whether identity holds slot A, the participant who
// plays first.
func (s *Session) IsFirstSlot(identity string) (bool, error) {
	if identity == "" {
		return false, parameterMissing("user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return identity == s.participantA, nil
}

// Closed reports whether the session has reset and can no longer be joined.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:            s.id,
		State:         s.state(),
		ParticipantA:  s.participantA,
		ParticipantB:  s.participantB,
		Participants:  s.participants(),
		TurnHolder:    s.turnHolder,
		MoveCount:     s.moveCount,
		RunningNumber: s.runningNumber,
	}
}

func (s *Session) state() State {
	switch s.participants() {
	case 0:
		return StateEmpty
	case 1:
		return StateWaitingForSecondPlayer
	default:
		return StateInProgress
	}
}

func (s *Session) participants() int {
	n := 0
	if s.participantA != "" {
		n++
	}
	if s.participantB != "" {
		n++
	}
	return n
}

func (s *Session) isSeated(identity string) bool {
	return identity == s.participantA || identity == s.participantB
}

func (s *Session) opponentOf(identity string) string {
	if identity == s.participantA {
		return s.participantB
	}
	return s.participantA
}

func (s *Session) reset() {
	s.participantA = ""
	s.participantB = ""
	s.turnHolder = ""
	s.moveCount = 0
	s.runningNumber = 0
	s.closed = true
}
