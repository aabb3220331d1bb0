package battleship

// ViewFor returns a copy of g as viewer may see it: the viewer's own board
// is complete, while unhit ship cells on every other board read as Empty.
// A completed game is returned unredacted.
func (g *Game) ViewFor(viewer ParticipantRef) *Game {
	v := g.Clone()
	if g.Status == StatusCompleted {
		return v
	}
	for p, b := range v.Boards {
		if p == viewer {
			continue
		}
		for r := range b {
			for c := range b[r] {
				if b[r][c] == Ship {
					b[r][c] = Empty
				}
			}
		}
		v.Boards[p] = b
	}
	return v
}
