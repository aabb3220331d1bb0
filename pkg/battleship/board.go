package battleship

import "strings"

// BoardSize is the side length of every board.
const BoardSize = 10

// Cell is the state of a single board square. The string values are the
// wire codes used in persisted snapshots.
type Cell string

const (
	Empty Cell = ""
	Ship  Cell = "S"
	Hit   Cell = "H"
	Miss  Cell = "M"
)

// Probed reports whether the cell has already been attacked.
func (c Cell) Probed() bool {
	return c == Hit || c == Miss
}

func (c Cell) valid() bool {
	switch c {
	case Empty, Ship, Hit, Miss:
		return true
	}
	return false
}

// Coord addresses a cell by zero-based row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether c lies on the board.
func (c Coord) InBounds() bool {
	return c.Row >= 0 && c.Row < BoardSize && c.Col >= 0 && c.Col < BoardSize
}

// Board is one participant's grid, indexed [row][col]. It is a value type;
// assigning a Board copies it.
type Board [BoardSize][BoardSize]Cell

// NewBoard returns a board with every cell Empty.
func NewBoard() Board {
	return Board{}
}

// At returns the cell at c. c must be in bounds.
func (b Board) At(c Coord) Cell {
	return b[c.Row][c.Col]
}

// Count returns the number of cells in state s.
func (b Board) Count(s Cell) int {
	n := 0
	for r := range b {
		for c := range b[r] {
			if b[r][c] == s {
				n++
			}
		}
	}
	return n
}

// FleetDestroyed reports whether no Ship cells remain.
func (b Board) FleetDestroyed() bool {
	return b.Count(Ship) == 0
}

// Unprobed returns every cell that is neither Hit nor Miss, in row-major order.
func (b Board) Unprobed() []Coord {
	var out []Coord
	for r := range b {
		for c := range b[r] {
			if !b[r][c].Probed() {
				out = append(out, Coord{Row: r, Col: c})
			}
		}
	}
	return out
}

// shipCells lists the cells a ship of the given length would occupy.
func shipCells(row, col, length int, horizontal bool) []Coord {
	cells := make([]Coord, length)
	for i := range length {
		if horizontal {
			cells[i] = Coord{Row: row, Col: col + i}
		} else {
			cells[i] = Coord{Row: row + i, Col: col}
		}
	}
	return cells
}

// CanPlace reports whether a ship of the given length anchored at (row, col)
// fits entirely on the board over Empty cells. It never mutates b.
func CanPlace(b *Board, row, col, length int, horizontal bool) bool {
	if length <= 0 {
		return false
	}
	for _, c := range shipCells(row, col, length, horizontal) {
		if !c.InBounds() || b.At(c) != Empty {
			return false
		}
	}
	return true
}

// PlaceShip writes Ship into every cell the ship occupies. If CanPlace fails
// the board is left untouched and ErrInvalidPlacement is returned.
func PlaceShip(b *Board, row, col, length int, horizontal bool) error {
	if !CanPlace(b, row, col, length, horizontal) {
		return ErrInvalidPlacement
	}
	for _, c := range shipCells(row, col, length, horizontal) {
		b[c.Row][c.Col] = Ship
	}
	return nil
}

// String renders the board as ten lines of ". S X o" glyphs, handy in test
// failures and the bot CLI.
func (b Board) String() string {
	var sb strings.Builder
	for r := range b {
		for c := range b[r] {
			switch b[r][c] {
			case Ship:
				sb.WriteByte('S')
			case Hit:
				sb.WriteByte('X')
			case Miss:
				sb.WriteByte('o')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
