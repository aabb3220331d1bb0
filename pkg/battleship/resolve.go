package battleship

// ShotResult is the outcome of a single attack, encoded with the same codes
// as the cell it leaves behind.
type ShotResult string

const (
	ResultHit  ShotResult = "H"
	ResultMiss ShotResult = "M"
)

// Resolution is what ResolveMove returns: the board after the shot, the
// shot's result, and whether the defender has any ships left.
type Resolution struct {
	Board          Board
	Result         ShotResult
	FleetDestroyed bool
}

// ResolveMove fires at target on b. b is never modified; the updated board
// is returned in the Resolution. A cell that was already Hit or Miss is
// rejected with ErrAlreadyProbed.
func ResolveMove(b Board, target Coord) (Resolution, error) {
	if !target.InBounds() {
		return Resolution{}, ErrOutOfBounds
	}

	switch b.At(target) {
	case Hit, Miss:
		return Resolution{}, ErrAlreadyProbed
	case Ship:
		b[target.Row][target.Col] = Hit
		return Resolution{Board: b, Result: ResultHit, FleetDestroyed: b.FleetDestroyed()}, nil
	default:
		b[target.Row][target.Col] = Miss
		return Resolution{Board: b, Result: ResultMiss, FleetDestroyed: b.FleetDestroyed()}, nil
	}
}
