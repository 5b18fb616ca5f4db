// Package autoplay picks moves for a participant without human input.
//
// The first participant seeds the game with a random number and then plays
// on even move indices; the second participant plays on odd ones. On its
// turn a player adds the first value of -1, 0 and 1 that makes the last
// quotient divisible by three, and stays quiet once the quotient is 1.
package autoplay

import (
	"math/rand/v2"

	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/protocol"
)

// Bounds of the random opening number, inclusive.
const (
	MinOpening = 10
	MaxOpening = 100
)

// RandSource yields a uniform integer in [0, n). *rand.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Observation is what a player knows after receiving an applied move.
type Observation struct {
	First bool
	// Next is the index of the move that follows the observed one, which is
	// the number of moves observed so far.
	Next uint
	Move protocol.AppliedMove
}

// Opening returns the seeding move.
func Opening(rng RandSource) protocol.Move {
	return protocol.Move{ResultingNumber: protocol.Int(MinOpening + rng.IntN(MaxOpening-MinOpening+1))}
}

// Quotient is (resultingNumber + added) / 3 of an applied move, or 0 when
// the move carries no added value.
func Quotient(m protocol.AppliedMove) int {
	if m.Added == nil {
		return 0
	}
	return (m.ResultingNumber + *m.Added) / 3
}

// NextMove returns the reply to obs, or false when it is not the player's
// turn or the game is already won.
func NextMove(obs Observation) (protocol.Move, bool) {
	if !ownsTurn(obs.First, obs.Next) {
		return protocol.Move{}, false
	}

	q := Quotient(obs.Move)
	if q == 0 {
		// Opening and catch-up echoes carry the running number itself.
		q = obs.Move.ResultingNumber
	}

	added, ok := ChooseAdded(q)
	if !ok {
		return protocol.Move{}, false
	}
	return protocol.Move{Added: protocol.Int(added)}, true
}

// ChooseAdded returns the first legal added value that makes q+added
// divisible by three. It returns false for q == 1.
func ChooseAdded(q int) (int, bool) {
	if q == 1 {
		return 0, false
	}
	for _, added := range game.ValidAddedValues() {
		if (q+added)%3 == 0 {
			return added, true
		}
	}
	return 0, false
}

func ownsTurn(first bool, next uint) bool {
	if first {
		return next%2 == 0
	}
	return next%2 == 1
}
