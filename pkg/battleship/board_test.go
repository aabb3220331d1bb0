package battleship

import (
	"math/rand"
	"testing"
)

// testFleetBoard returns a valid fleet laid out along even rows from the
// left edge.
func testFleetBoard(t *testing.T) Board {
	t.Helper()
	b := NewBoard()
	for i, length := range Fleet() {
		if err := PlaceShip(&b, i*2, 0, length, true); err != nil {
			t.Fatalf("place ship %d: %v", i, err)
		}
	}
	return b
}

func TestNewBoard_AllEmpty(t *testing.T) {
	b := NewBoard()
	if got := b.Count(Empty); got != BoardSize*BoardSize {
		t.Errorf("expected %d empty cells, got %d", BoardSize*BoardSize, got)
	}
}

func TestCanPlace(t *testing.T) {
	b := NewBoard()
	b[5][5] = Ship

	tests := []struct {
		name       string
		row, col   int
		length     int
		horizontal bool
		want       bool
	}{
		{"top left horizontal", 0, 0, 5, true, true},
		{"top left vertical", 0, 0, 5, false, true},
		{"flush with right edge", 0, 5, 5, true, true},
		{"past right edge", 0, 6, 5, true, false},
		{"flush with bottom edge", 5, 0, 5, false, true},
		{"past bottom edge", 6, 0, 5, false, false},
		{"negative row", -1, 0, 2, true, false},
		{"negative col", 0, -1, 2, true, false},
		{"overlaps ship", 5, 3, 3, true, false},
		{"touches ship", 4, 5, 1, true, true},
		{"zero length", 0, 0, 0, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := b
			if got := CanPlace(&b, tt.row, tt.col, tt.length, tt.horizontal); got != tt.want {
				t.Errorf("CanPlace(%d,%d,%d,%v) = %v, want %v", tt.row, tt.col, tt.length, tt.horizontal, got, tt.want)
			}
			if b != before {
				t.Error("CanPlace mutated the board")
			}
		})
	}
}

func TestPlaceShip_RejectsWithoutMutation(t *testing.T) {
	b := NewBoard()
	if err := PlaceShip(&b, 0, 0, 3, true); err != nil {
		t.Fatalf("first placement: %v", err)
	}
	before := b

	if err := PlaceShip(&b, 0, 2, 3, false); err != ErrInvalidPlacement {
		t.Fatalf("expected ErrInvalidPlacement, got %v", err)
	}
	if b != before {
		t.Error("rejected placement mutated the board")
	}
}

func TestPlaceShip_OccupiedCellsWereEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := range 200 {
		b := NewBoard()
		for range 20 {
			row, col := rng.Intn(BoardSize), rng.Intn(BoardSize)
			length := 1 + rng.Intn(5)
			horizontal := rng.Intn(2) == 0
			before := b
			ok := CanPlace(&b, row, col, length, horizontal)
			err := PlaceShip(&b, row, col, length, horizontal)
			if ok != (err == nil) {
				t.Fatalf("trial %d: CanPlace=%v but PlaceShip err=%v", trial, ok, err)
			}
			if !ok {
				continue
			}
			placed := 0
			for r := range b {
				for c := range b[r] {
					if b[r][c] != before[r][c] {
						if before[r][c] != Empty || b[r][c] != Ship {
							t.Fatalf("trial %d: cell (%d,%d) went %q -> %q", trial, r, c, before[r][c], b[r][c])
						}
						placed++
					}
				}
			}
			if placed != length {
				t.Fatalf("trial %d: placed %d cells, want %d", trial, placed, length)
			}
		}
	}
}

func TestBoard_Unprobed(t *testing.T) {
	b := NewBoard()
	b[0][0] = Hit
	b[0][1] = Miss
	b[0][2] = Ship

	cells := b.Unprobed()
	if len(cells) != BoardSize*BoardSize-2 {
		t.Fatalf("expected %d unprobed cells, got %d", BoardSize*BoardSize-2, len(cells))
	}
	if cells[0] != (Coord{Row: 0, Col: 2}) {
		t.Errorf("expected first unprobed cell (0,2), got %+v", cells[0])
	}
}

// Boards live in a map keyed by participant, so the read methods must work
// on values that are not addressable.
func TestBoard_ReadMethodsOnMapValues(t *testing.T) {
	boards := map[ParticipantRef]Board{Human("alice"): testFleetBoard(t)}

	if got := boards[Human("alice")].Count(Ship); got != FleetCells() {
		t.Errorf("Count(Ship) = %d, want %d", got, FleetCells())
	}
	if got := boards[Human("alice")].At(Coord{Row: 0, Col: 0}); got != Ship {
		t.Errorf("At(0,0) = %q, want Ship", got)
	}
	if boards[Human("alice")].FleetDestroyed() {
		t.Error("fresh fleet reported destroyed")
	}
	if got := len(boards[Human("alice")].Unprobed()); got != BoardSize*BoardSize {
		t.Errorf("Unprobed() = %d cells, want %d", got, BoardSize*BoardSize)
	}
}

func TestBoard_String(t *testing.T) {
	b := NewBoard()
	b[0][0] = Ship
	b[0][1] = Hit
	b[0][2] = Miss
	want := "SXo......."
	if got := b.String()[:BoardSize]; got != want {
		t.Errorf("first row = %q, want %q", got, want)
	}
}
