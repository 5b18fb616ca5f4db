package autoplay

import (
	"github.com/cheildo/game-of-three/internal/protocol"
)

// Player tracks one game from the point of view of a participant. It is not
// safe for concurrent use.
type Player struct {
	rng   RandSource
	first bool
	moves uint
}

// NewPlayer returns a player drawing its opening from rng, or from the
// package random source when rng is nil.
func NewPlayer(rng RandSource) *Player {
	if rng == nil {
		rng = globalRand{}
	}
	return &Player{rng: rng}
}

// Start records whether the player joined first and returns the opening
// move when it is the player's to make.
func (p *Player) Start(first bool) (protocol.Move, bool) {
	p.first = first
	if !first || p.moves > 0 {
		return protocol.Move{}, false
	}
	return Opening(p.rng), true
}

// Observe counts move and returns the reply, if any. A move without added
// value after the opening is a catch-up resend of the running number and is
// not counted.
func (p *Player) Observe(move protocol.AppliedMove) (protocol.Move, bool) {
	if move.Added == nil && p.moves > 0 {
		return protocol.Move{}, false
	}
	p.moves++
	return NextMove(Observation{First: p.first, Next: p.moves, Move: move})
}

// Reset forgets the current game.
func (p *Player) Reset() {
	p.first = false
	p.moves = 0
}

// Moves returns the number of moves observed in the current game.
func (p *Player) Moves() uint {
	return p.moves
}
