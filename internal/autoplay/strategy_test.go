package autoplay

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/protocol"
)

type fixedRand struct {
	value int
}

func (r fixedRand) IntN(n int) int {
	return r.value % n
}

func TestChooseAdded(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		q             int
		expectedAdded int
		expectedOK    bool
	}{
		{name: "winning quotient", q: 1, expectedOK: false},
		{name: "already divisible", q: 6, expectedAdded: 0, expectedOK: true},
		{name: "one above", q: 7, expectedAdded: -1, expectedOK: true},
		{name: "one below", q: 8, expectedAdded: 1, expectedOK: true},
		{name: "two", q: 2, expectedAdded: 1, expectedOK: true},
		{name: "large", q: 100, expectedAdded: -1, expectedOK: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			added, ok := ChooseAdded(tc.q)
			assert.Equal(t, tc.expectedOK, ok)
			if ok {
				assert.Equal(t, tc.expectedAdded, added)
				assert.Zero(t, (tc.q+added)%3)
			}
		})
	}
}

func TestOpening(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MinOpening, *Opening(fixedRand{value: 0}).ResultingNumber)
	assert.Equal(t, MaxOpening, *Opening(fixedRand{value: MaxOpening - MinOpening}).ResultingNumber)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		move := Opening(rng)
		require.NotNil(t, move.ResultingNumber)
		assert.Nil(t, move.Added)
		assert.GreaterOrEqual(t, *move.ResultingNumber, MinOpening)
		assert.LessOrEqual(t, *move.ResultingNumber, MaxOpening)
	}
}

func TestQuotient(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 19, Quotient(protocol.AppliedMove{ResultingNumber: 56, Added: protocol.Int(1)}))
	assert.Equal(t, 0, Quotient(protocol.AppliedMove{ResultingNumber: 56}))
}

func TestNextMove(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		obs           Observation
		expectedAdded *int
	}{
		{
			name: "second player answers the opening",
			obs:  Observation{First: false, Next: 1, Move: protocol.AppliedMove{ResultingNumber: 56}},
			// 56 is used as the quotient of a move without added.
			expectedAdded: protocol.Int(1),
		},
		{
			name: "first player ignores its own opening echo",
			obs:  Observation{First: true, Next: 1, Move: protocol.AppliedMove{ResultingNumber: 56}},
		},
		{
			name:          "first player answers on even index",
			obs:           Observation{First: true, Next: 2, Move: protocol.AppliedMove{ResultingNumber: 56, Added: protocol.Int(1)}},
			expectedAdded: protocol.Int(-1),
		},
		{
			name: "second player waits on even index",
			obs:  Observation{First: false, Next: 2, Move: protocol.AppliedMove{ResultingNumber: 56, Added: protocol.Int(1)}},
		},
		{
			name: "no reply once the game is won",
			obs:  Observation{First: false, Next: 3, Move: protocol.AppliedMove{ResultingNumber: 2, Added: protocol.Int(1)}},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			move, ok := NextMove(tc.obs)
			if tc.expectedAdded == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Nil(t, move.ResultingNumber)
			assert.Equal(t, tc.expectedAdded, move.Added)
		})
	}
}

// TestPlayers_FullGame plays two players against the rule engine until one
// of them reaches 1.
func TestPlayers_FullGame(t *testing.T) {
	t.Parallel()

	for seed := uint64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed+1))
		first := NewPlayer(rng)
		second := NewPlayer(rng)

		opening, ok := first.Start(true)
		require.True(t, ok)
		_, ok = second.Start(false)
		require.False(t, ok)

		players := [2]*Player{first, second}
		pending := opening
		var running int
		var index uint
		var mover int

		for {
			applied, next, err := game.ApplyMove(running, index, toGameMove(pending))
			require.NoError(t, err, "seed %d move %d", seed, index)
			running = next
			index++

			if game.IsWinning(running) {
				break
			}

			echo := protocol.AppliedMove{ResultingNumber: applied.ResultingNumber, Added: applied.Added}
			var replies []protocol.Move
			var repliers []int
			for i, p := range players {
				if reply, ok := p.Observe(echo); ok {
					replies = append(replies, reply)
					repliers = append(repliers, i)
				}
			}
			require.Len(t, replies, 1, "exactly one player replies, seed %d move %d", seed, index)
			require.NotEqual(t, mover, repliers[0], "turns alternate")
			mover = repliers[0]
			pending = replies[0]
		}
	}
}

func TestPlayer_Reset(t *testing.T) {
	t.Parallel()

	p := NewPlayer(fixedRand{value: 5})
	_, ok := p.Start(true)
	require.True(t, ok)
	p.Observe(protocol.AppliedMove{ResultingNumber: 15})
	assert.Equal(t, uint(1), p.Moves())

	// A catch-up resend is not counted.
	_, ok = p.Observe(protocol.AppliedMove{ResultingNumber: 15})
	assert.False(t, ok)
	assert.Equal(t, uint(1), p.Moves())

	// A late Start does not seed a game already in motion.
	_, ok = p.Start(true)
	assert.False(t, ok)

	p.Reset()
	assert.Zero(t, p.Moves())
	move, ok := p.Start(true)
	require.True(t, ok)
	assert.Equal(t, 15, *move.ResultingNumber)
}

func TestNewPlayer_DefaultSource(t *testing.T) {
	t.Parallel()

	move, ok := NewPlayer(nil).Start(true)
	require.True(t, ok)
	assert.GreaterOrEqual(t, *move.ResultingNumber, MinOpening)
	assert.LessOrEqual(t, *move.ResultingNumber, MaxOpening)
}

func toGameMove(m protocol.Move) game.Move {
	return game.Move{ResultingNumber: m.ResultingNumber, Added: m.Added}
}
