package bot

import (
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// HuntStrategy probes the neighbours of known hits first and otherwise
// searches on a checkerboard, since the smallest ship spans two cells.
type HuntStrategy struct{}

func (HuntStrategy) Name() string { return "hunt" }

func (HuntStrategy) ChooseTarget(b *battleship.Board) (battleship.Coord, error) {
	if targets := huntTargets(b); len(targets) > 0 {
		return targets[botIntn(len(targets))], nil
	}

	open := b.Unprobed()
	if len(open) == 0 {
		return battleship.Coord{}, battleship.ErrNoMovesLeft
	}
	var parity []battleship.Coord
	for _, c := range open {
		if (c.Row+c.Col)%2 == 0 {
			parity = append(parity, c)
		}
	}
	if len(parity) > 0 {
		return parity[botIntn(len(parity))], nil
	}
	return open[botIntn(len(open))], nil
}

// huntTargets returns the unprobed orthogonal neighbours of every Hit cell,
// without duplicates.
func huntTargets(b *battleship.Board) []battleship.Coord {
	seen := map[battleship.Coord]bool{}
	var out []battleship.Coord
	for r := range b {
		for c := range b[r] {
			if b[r][c] != battleship.Hit {
				continue
			}
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				n := battleship.Coord{Row: r + d[0], Col: c + d[1]}
				if !n.InBounds() || b.At(n).Probed() || seen[n] {
					continue
				}
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
