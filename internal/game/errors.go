package game

import (
	"errors"
	"fmt"
)

// Sentinel errors for the game rules. Use errors.Is to check the kind of an error
// returned by a Session or the Registry.
var (
	ErrNotYourTurn         = errors.New("not your turn")
	ErrParameterMissing    = errors.New("parameter missing")
	ErrValueTooSmall       = errors.New("resulting number too small")
	ErrIllegalAddedValue   = errors.New("illegal added value")
	ErrNotDivisibleByThree = errors.New("not divisible by three")
	ErrNotInteger          = errors.New("value is not an integer")
	ErrGameBusy            = errors.New("game is busy")
	ErrMalformedMessage    = errors.New("malformed message")

	// ErrSessionClosed is returned when joining a session that already reset.
	// The Registry replaces such a session with a fresh one.
	ErrSessionClosed = errors.New("session closed")
)

// Code is the machine readable error code sent to the offending participant.
type Code string

const (
	CodeNotYourTurn               Code = "NOT_YOUR_TURN"
	CodeParameterIsNull           Code = "PARAMETER_IS_NULL"
	CodeResultingNumberTooSmall   Code = "RESULTING_NUMBER_TOO_SMALL"
	CodeResultingNumberNotInteger Code = "RESULTING_NUMBER_NOT_INTEGER"
	CodeIllegalAddedNumber        Code = "ILLEGAL_ADDED_NUMBER"
	CodeAddedNumberNotInteger     Code = "ADDED_NUMBER_NOT_INTEGER"
	CodeNotDivisibleByThree       Code = "NOT_DIVISIBLE_BY_3"
	CodeGameBusy                  Code = "GAME_BUSY"
	CodeMalformedMessage          Code = "MALFORMED_MESSAGE"
	CodeUnknown                   Code = "UNKNOWN"
)

// Error is a rule violation scoped to the participant that caused it.
type Error struct {
	Code    Code
	Message string
	kind    error
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is the sentinel this error was built from.
func (e *Error) Is(target error) bool {
	return e.kind == target
}

func newError(kind error, code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		kind:    kind,
	}
}

func notYourTurn() *Error {
	return newError(ErrNotYourTurn, CodeNotYourTurn, "This is not your turn.")
}

func parameterMissing(field string) *Error {
	return newError(ErrParameterMissing, CodeParameterIsNull, "The parameter '%s' can't be null.", field)
}

func valueTooSmall(value int) *Error {
	return newError(ErrValueTooSmall, CodeResultingNumberTooSmall, "The resulting number '%d' is less than 2.", value)
}

func illegalAddedValue(value int) *Error {
	return newError(ErrIllegalAddedValue, CodeIllegalAddedNumber, "added number '%d' is illegal. Legal values are: 1, 0, -1", value)
}

func notDivisibleByThree(sum int) *Error {
	return newError(ErrNotDivisibleByThree, CodeNotDivisibleByThree, "The resulting number '%d' not divisible by 3.", sum)
}

func gameBusy() *Error {
	return newError(ErrGameBusy, CodeGameBusy, "%s", NotifyGameBusy.Text)
}

// ResultingNumberNotInteger is reported when a decoded move carries a
// resultingNumber that is not a JSON integer.
func ResultingNumberNotInteger(raw string) error {
	return newError(ErrNotInteger, CodeResultingNumberNotInteger, "The resulting number '%s' is not an integer.", raw)
}

// AddedNotInteger is reported when a decoded move carries an added value
// that is not a JSON integer.
func AddedNotInteger(raw string) error {
	return newError(ErrNotInteger, CodeAddedNumberNotInteger, "The added number '%s' is not an integer.", raw)
}

// MalformedMessage is reported when an inbound frame cannot be decoded at all.
func MalformedMessage() error {
	return newError(ErrMalformedMessage, CodeMalformedMessage, "The message could not be decoded.")
}

// ErrorEvent is the requester scoped view of an error.
type ErrorEvent struct {
	Code    Code
	Message string
}

// EventFromError translates err into the event sent to the requester.
// Errors that are not rule violations map to CodeUnknown.
func EventFromError(err error) ErrorEvent {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return ErrorEvent{Code: gameErr.Code, Message: gameErr.Message}
	}
	return ErrorEvent{Code: CodeUnknown, Message: err.Error()}
}

var kindsByCode = map[Code]error{
	CodeNotYourTurn:               ErrNotYourTurn,
	CodeParameterIsNull:           ErrParameterMissing,
	CodeResultingNumberTooSmall:   ErrValueTooSmall,
	CodeResultingNumberNotInteger: ErrNotInteger,
	CodeIllegalAddedNumber:        ErrIllegalAddedValue,
	CodeAddedNumberNotInteger:     ErrNotInteger,
	CodeNotDivisibleByThree:       ErrNotDivisibleByThree,
	CodeGameBusy:                  ErrGameBusy,
	CodeMalformedMessage:          ErrMalformedMessage,
}

// ErrorFromEvent rebuilds the error EventFromError was given, so errors.Is
// works on errors that crossed a process boundary. Unknown codes keep only
// their message.
func ErrorFromEvent(event ErrorEvent) error {
	kind, ok := kindsByCode[event.Code]
	if !ok {
		return errors.New(event.Message)
	}
	return &Error{Code: event.Code, Message: event.Message, kind: kind}
}
