package battleship

import (
	"errors"
	"fmt"
	"maps"
	"math/rand"
	"slices"
	"time"
)

// Status is a game's lifecycle state. Open → Active → Completed; Completed
// is terminal.
type Status string

const (
	StatusOpen      Status = "open"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Move is one entry in a game's append-only move log.
type Move struct {
	By     ParticipantRef `json:"by"`
	Row    int            `json:"row"`
	Col    int            `json:"col"`
	Result ShotResult     `json:"result"`
	At     time.Time      `json:"at"`
}

// Game is the aggregate root: participants, their boards, the move log and
// the lifecycle fields. The JSON encoding is the persisted snapshot.
type Game struct {
	ID           string                   `json:"id"`
	Participants []ParticipantRef         `json:"participants"`
	Boards       map[ParticipantRef]Board `json:"boardState"`
	Moves        []Move                   `json:"moves"`
	Status       Status                   `json:"status"`
	CurrentTurn  ParticipantRef           `json:"currentTurn,omitzero"`
	Winner       *ParticipantRef          `json:"winner"`
	IsAI         bool                     `json:"isAI"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    time.Time                `json:"updatedAt"`
	Version      int                      `json:"version"`
}

// Opponent picks the AI's next target on the human's board.
type Opponent interface {
	ChooseTarget(b *Board) (Coord, error)
}

// Env carries the collaborators a command may need. Zero fields fall back to
// the wall clock and math/rand; an AI game's attacks require Opponent.
type Env struct {
	Now      func() time.Time
	Rand     Rand
	Opponent Opponent
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

func (e Env) rand() Rand {
	if e.Rand != nil {
		return e.Rand
	}
	return globalRand{}
}

var errNoOpponent = errors.New("ai game has no opponent strategy")

// NewGame creates an Open game for creator. For an AI game the AI joins
// immediately with an auto-placed board, and the creator holds the turn once
// the game activates.
func NewGame(id string, creator ParticipantRef, isAI bool, env Env) (*Game, error) {
	if creator.IsZero() || creator.IsAI() {
		return nil, fmt.Errorf("creator must be a human: %w", ErrNotParticipant)
	}
	now := env.now()
	g := &Game{
		ID:           id,
		Participants: []ParticipantRef{creator},
		Boards:       map[ParticipantRef]Board{},
		Moves:        []Move{},
		Status:       StatusOpen,
		IsAI:         isAI,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if isAI {
		board, err := AutoPlaceFleet(NewBoard(), env.rand())
		if err != nil {
			return nil, fmt.Errorf("place ai fleet: %w", err)
		}
		g.Participants = append(g.Participants, AI)
		g.Boards[AI] = board
		g.CurrentTurn = creator
	}
	return g, nil
}

// Creator returns the participant that created the game.
func (g *Game) Creator() ParticipantRef {
	if len(g.Participants) == 0 {
		return ParticipantRef{}
	}
	return g.Participants[0]
}

// HasParticipant reports whether p holds a seat in the game.
func (g *Game) HasParticipant(p ParticipantRef) bool {
	return slices.Contains(g.Participants, p)
}

// Involves reports whether the user with the given id holds a seat.
func (g *Game) Involves(userID string) bool {
	return userID != "" && g.HasParticipant(Human(userID))
}

// OpponentOf returns the other participant, if one has joined.
func (g *Game) OpponentOf(p ParticipantRef) (ParticipantRef, bool) {
	if !g.HasParticipant(p) {
		return ParticipantRef{}, false
	}
	for _, q := range g.Participants {
		if q != p {
			return q, true
		}
	}
	return ParticipantRef{}, false
}

// HasPlaced reports whether p has a board on record.
func (g *Game) HasPlaced(p ParticipantRef) bool {
	_, ok := g.Boards[p]
	return ok
}

// Clone returns a deep copy of g.
func (g *Game) Clone() *Game {
	c := *g
	c.Participants = slices.Clone(g.Participants)
	c.Boards = maps.Clone(g.Boards)
	if c.Boards == nil {
		c.Boards = map[ParticipantRef]Board{}
	}
	c.Moves = slices.Clone(g.Moves)
	if c.Moves == nil {
		c.Moves = []Move{}
	}
	if g.Winner != nil {
		w := *g.Winner
		c.Winner = &w
	}
	return &c
}

// Command is a state transition applied by Apply.
type Command interface {
	apply(g *Game, env Env) error
}

// Apply runs cmd against a copy of g and returns the new state. On error g
// is untouched and nothing should be persisted.
func Apply(g *Game, cmd Command, env Env) (*Game, error) {
	next := g.Clone()
	if err := cmd.apply(next, env); err != nil {
		return nil, err
	}
	next.UpdatedAt = env.now()
	return next, nil
}

// SubmitBoard records a participant's fully placed fleet.
type SubmitBoard struct {
	Participant ParticipantRef
	Board       Board
}

func (s SubmitBoard) apply(g *Game, _ Env) error {
	if g.Status != StatusOpen {
		return ErrInvalidState
	}
	if s.Participant.IsAI() || !g.HasParticipant(s.Participant) {
		return ErrNotParticipant
	}
	if err := ValidateFleet(&s.Board); err != nil {
		return err
	}
	g.Boards[s.Participant] = s.Board
	g.activateIfReady()
	return nil
}

// AutoPlace records a randomly placed fleet for a participant.
type AutoPlace struct {
	Participant ParticipantRef
}

func (a AutoPlace) apply(g *Game, env Env) error {
	board, err := AutoPlaceFleet(NewBoard(), env.rand())
	if err != nil {
		return err
	}
	return SubmitBoard{Participant: a.Participant, Board: board}.apply(g, env)
}

// activateIfReady moves an Open game to Active once both seats have boards.
// AI games keep the turn assigned at creation.
func (g *Game) activateIfReady() {
	if len(g.Participants) != 2 || len(g.Boards) != 2 {
		return
	}
	g.Status = StatusActive
	if !g.IsAI {
		g.CurrentTurn = g.Creator()
	}
}

// Join seats a second human in an open PVP game.
type Join struct {
	Joiner ParticipantRef
}

func (j Join) apply(g *Game, _ Env) error {
	if j.Joiner.IsZero() || j.Joiner.IsAI() {
		return ErrNotParticipant
	}
	if j.Joiner == g.Creator() {
		return ErrSelfJoin
	}
	if g.IsAI || g.Status != StatusOpen || len(g.Participants) >= 2 {
		return ErrRoomFull
	}
	g.Participants = append(g.Participants, j.Joiner)
	return nil
}

// Attack fires at Target on the attacker's opponent's board. In an AI game
// the AI answers within the same transition.
type Attack struct {
	Attacker ParticipantRef
	Target   Coord
}

func (a Attack) apply(g *Game, env Env) error {
	if g.Status != StatusActive {
		return ErrInvalidState
	}
	if g.CurrentTurn != a.Attacker {
		return ErrNotYourTurn
	}
	defender, ok := g.OpponentOf(a.Attacker)
	if !ok {
		return ErrNotParticipant
	}

	now := env.now()
	destroyed, err := g.fire(a.Attacker, defender, a.Target, now)
	if err != nil {
		return err
	}
	if destroyed {
		g.finish(a.Attacker)
		return nil
	}

	if g.IsAI {
		return g.aiReply(a.Attacker, env, now)
	}

	g.CurrentTurn = defender
	return nil
}

// aiReply lets the AI fire once at human's board. Failures here are
// internal: they are reported without wrapping validation sentinels so the
// transport layer treats them as server errors.
func (g *Game) aiReply(human ParticipantRef, env Env, now time.Time) error {
	if env.Opponent == nil {
		return errNoOpponent
	}
	board := g.Boards[human]
	target, err := env.Opponent.ChooseTarget(&board)
	if err != nil {
		return fmt.Errorf("ai choose target: %w", err)
	}
	destroyed, err := g.fire(AI, human, target, now)
	if err != nil {
		return fmt.Errorf("ai fire at (%d,%d): %v", target.Row, target.Col, err)
	}
	if destroyed {
		g.finish(AI)
	}
	return nil
}

// fire resolves one shot and appends it to the move log.
func (g *Game) fire(attacker, defender ParticipantRef, target Coord, now time.Time) (bool, error) {
	board, ok := g.Boards[defender]
	if !ok {
		return false, ErrInvalidState
	}
	res, err := ResolveMove(board, target)
	if err != nil {
		return false, err
	}
	g.Boards[defender] = res.Board
	g.Moves = append(g.Moves, Move{
		By:     attacker,
		Row:    target.Row,
		Col:    target.Col,
		Result: res.Result,
		At:     now,
	})
	return res.FleetDestroyed, nil
}

func (g *Game) finish(winner ParticipantRef) {
	g.Status = StatusCompleted
	g.Winner = &winner
}

// Loser returns the defeated participant of a completed game.
func (g *Game) Loser() (ParticipantRef, bool) {
	if g.Status != StatusCompleted || g.Winner == nil {
		return ParticipantRef{}, false
	}
	return g.OpponentOf(*g.Winner)
}
