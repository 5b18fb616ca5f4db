// Package game holds the Game of Three rules, the two-player session that
// referees them and the registry that pairs participants into the live session.
package game

// Move is a participant's submission. The first move of a session carries
// ResultingNumber, every later move carries Added.
type Move struct {
	ResultingNumber *int
	Added           *int
}

// AppliedMove is the validated move echoed to both participants. For moves
// after the first, ResultingNumber is the number before the addition.
type AppliedMove struct {
	ResultingNumber int
	Added           *int
}

const (
	minResultingNumber = 2
	winningNumber      = 1
)

var validAddedValues = [...]int{-1, 0, 1}

// ValidAddedValues returns the values a participant may add, in preference order.
func ValidAddedValues() []int {
	values := validAddedValues
	return values[:]
}

func isValidAdded(v int) bool {
	for _, valid := range validAddedValues {
		if v == valid {
			return true
		}
	}
	return false
}

// ApplyMove validates move against the running number prior and returns the
// move to echo together with the new running number. moveIndex is the number
// of moves already recorded in the session; prior is ignored when it is zero.
//
// A present field is range checked regardless of moveIndex, so a first move
// with an illegal added value is rejected too.
func ApplyMove(prior int, moveIndex uint, move Move) (AppliedMove, int, error) {
	if move.ResultingNumber != nil && *move.ResultingNumber < minResultingNumber {
		return AppliedMove{}, 0, valueTooSmall(*move.ResultingNumber)
	}
	if move.Added != nil && !isValidAdded(*move.Added) {
		return AppliedMove{}, 0, illegalAddedValue(*move.Added)
	}

	if moveIndex == 0 {
		if move.ResultingNumber == nil {
			return AppliedMove{}, 0, parameterMissing("resultingNumber")
		}
		return AppliedMove{ResultingNumber: *move.ResultingNumber}, *move.ResultingNumber, nil
	}

	if move.Added == nil {
		return AppliedMove{}, 0, parameterMissing("added")
	}
	added := *move.Added
	sum := prior + added
	if sum%3 != 0 {
		return AppliedMove{}, 0, notDivisibleByThree(sum)
	}
	return AppliedMove{ResultingNumber: prior, Added: &added}, sum / 3, nil
}

// IsWinning reports whether running is the number that ends the game.
func IsWinning(running int) bool {
	return running == winningNumber
}
