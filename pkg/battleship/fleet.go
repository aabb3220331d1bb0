package battleship

import "fmt"

// maxPlacementAttempts bounds AutoPlaceFleet. A 10x10 board with the
// standard fleet needs a handful of retries in practice.
const maxPlacementAttempts = 10000

// Fleet returns the ship lengths every participant places, in placement order.
func Fleet() []int {
	return []int{5, 4, 3, 3, 2}
}

// FleetCells is the number of Ship cells on a fully placed board.
func FleetCells() int {
	n := 0
	for _, l := range Fleet() {
		n += l
	}
	return n
}

// Rand is the random source used for placement and targeting.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// AutoPlaceFleet returns a copy of b with the whole fleet placed at random
// orientations and anchors. b itself is not modified.
func AutoPlaceFleet(b Board, rng Rand) (Board, error) {
	attempts := 0
	for _, length := range Fleet() {
		for {
			if attempts >= maxPlacementAttempts {
				return b, fmt.Errorf("placing ship of length %d: %w", length, ErrPlacementExhausted)
			}
			attempts++

			horizontal := rng.Intn(2) == 0
			maxRow, maxCol := BoardSize, BoardSize
			if horizontal {
				maxCol = BoardSize - length + 1
			} else {
				maxRow = BoardSize - length + 1
			}
			row, col := rng.Intn(maxRow), rng.Intn(maxCol)
			if PlaceShip(&b, row, col, length, horizontal) == nil {
				break
			}
		}
	}
	return b, nil
}

// ValidateFleet checks that b holds only Empty and Ship cells and that its
// Ship cells split into straight, non-overlapping ships matching Fleet()
// exactly. Ships may touch, so the check searches for a decomposition
// rather than tracing connected regions.
func ValidateFleet(b *Board) error {
	ships := 0
	for r := range b {
		for c := range b[r] {
			switch b[r][c] {
			case Ship:
				ships++
			case Empty:
			default:
				return fmt.Errorf("cell (%d,%d) is %q: %w", r, c, b[r][c], ErrInvalidPlacement)
			}
		}
	}
	if ships != FleetCells() {
		return fmt.Errorf("board has %d ship cells, want %d: %w", ships, FleetCells(), ErrInvalidPlacement)
	}

	remaining := map[int]int{}
	for _, l := range Fleet() {
		remaining[l]++
	}
	var claimed [BoardSize][BoardSize]bool
	if !decompose(b, &claimed, remaining) {
		return fmt.Errorf("ship cells do not form the fleet: %w", ErrInvalidPlacement)
	}
	return nil
}

// decompose backtracks over the first unclaimed Ship cell in row-major
// order. That cell must be the top or left end of some ship, so only two
// orientations per remaining length need trying.
func decompose(b *Board, claimed *[BoardSize][BoardSize]bool, remaining map[int]int) bool {
	first, ok := firstUnclaimed(b, claimed)
	if !ok {
		return true
	}
	for length, n := range remaining {
		if n == 0 {
			continue
		}
		for _, horizontal := range []bool{true, false} {
			cells := shipCells(first.Row, first.Col, length, horizontal)
			if !claimable(b, claimed, cells) {
				continue
			}
			setClaimed(claimed, cells, true)
			remaining[length]--
			if decompose(b, claimed, remaining) {
				return true
			}
			remaining[length]++
			setClaimed(claimed, cells, false)
		}
	}
	return false
}

func firstUnclaimed(b *Board, claimed *[BoardSize][BoardSize]bool) (Coord, bool) {
	for r := range b {
		for c := range b[r] {
			if b[r][c] == Ship && !claimed[r][c] {
				return Coord{Row: r, Col: c}, true
			}
		}
	}
	return Coord{}, false
}

func claimable(b *Board, claimed *[BoardSize][BoardSize]bool, cells []Coord) bool {
	for _, c := range cells {
		if !c.InBounds() || b.At(c) != Ship || claimed[c.Row][c.Col] {
			return false
		}
	}
	return true
}

func setClaimed(claimed *[BoardSize][BoardSize]bool, cells []Coord, v bool) {
	for _, c := range cells {
		claimed[c.Row][c.Col] = v
	}
}
