package battleship

import (
	"slices"
	"time"
)

// Summary is the lobby view of a game. It omits boards and the move log.
type Summary struct {
	ID           string           `json:"id"`
	Participants []ParticipantRef `json:"participants"`
	Status       Status           `json:"status"`
	CurrentTurn  ParticipantRef   `json:"currentTurn,omitzero"`
	Winner       *ParticipantRef  `json:"winner"`
	IsAI         bool             `json:"isAI"`
	MoveCount    int              `json:"moveCount"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Summarize returns the lobby view of g.
func (g *Game) Summarize() Summary {
	s := Summary{
		ID:           g.ID,
		Participants: slices.Clone(g.Participants),
		Status:       g.Status,
		CurrentTurn:  g.CurrentTurn,
		IsAI:         g.IsAI,
		MoveCount:    len(g.Moves),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
	if g.Winner != nil {
		w := *g.Winner
		s.Winner = &w
	}
	return s
}

// Lobby is the categorized game listing. Guest views fill only Active and
// Completed.
type Lobby struct {
	Open       []Summary `json:"open"`
	MyOpen     []Summary `json:"myOpen"`
	Active     []Summary `json:"active"`
	Completed  []Summary `json:"completed"`
	OtherGames []Summary `json:"otherGames"`
}

func newLobby() Lobby {
	return Lobby{
		Open:       []Summary{},
		MyOpen:     []Summary{},
		Active:     []Summary{},
		Completed:  []Summary{},
		OtherGames: []Summary{},
	}
}

// Categorize partitions games for requester. MyOpen also holds open games
// the requester joined but did not create, so a joiner can still find a game
// that is waiting on placement. Each list is ordered newest first.
func Categorize(games []*Game, requester ParticipantRef) Lobby {
	lobby := newLobby()
	for _, g := range newestFirst(games) {
		mine := g.HasParticipant(requester)
		switch g.Status {
		case StatusOpen:
			switch {
			case mine:
				lobby.MyOpen = append(lobby.MyOpen, g.Summarize())
			case len(g.Participants) == 1:
				lobby.Open = append(lobby.Open, g.Summarize())
			}
		case StatusActive:
			if mine {
				lobby.Active = append(lobby.Active, g.Summarize())
			} else {
				lobby.OtherGames = append(lobby.OtherGames, g.Summarize())
			}
		case StatusCompleted:
			if mine {
				lobby.Completed = append(lobby.Completed, g.Summarize())
			} else {
				lobby.OtherGames = append(lobby.OtherGames, g.Summarize())
			}
		}
	}
	return lobby
}

// GuestView lists every active and completed game without ownership
// filtering.
func GuestView(games []*Game) Lobby {
	lobby := newLobby()
	for _, g := range newestFirst(games) {
		switch g.Status {
		case StatusActive:
			lobby.Active = append(lobby.Active, g.Summarize())
		case StatusCompleted:
			lobby.Completed = append(lobby.Completed, g.Summarize())
		}
	}
	return lobby
}

func newestFirst(games []*Game) []*Game {
	sorted := slices.Clone(games)
	slices.SortStableFunc(sorted, func(a, b *Game) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sorted
}
