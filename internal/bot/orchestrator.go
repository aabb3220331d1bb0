package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/pkg/battleship"
)

// Orchestrator drives one full game through the HTTP API: two bot players
// against each other, or one bot against the server's AI.
type Orchestrator struct {
	baseURL      string
	strategy     Strategy
	vsAI         bool
	pollInterval time.Duration
	players      []*Client
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(baseURL string, strategy Strategy, vsAI bool, pollInterval time.Duration) *Orchestrator {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Orchestrator{
		baseURL:      baseURL,
		strategy:     strategy,
		vsAI:         vsAI,
		pollInterval: pollInterval,
	}
}

// Run executes a full game: log in, create, join, place fleets, play until
// a winner is declared. It returns the final snapshot.
func (o *Orchestrator) Run(ctx context.Context) (*battleship.Game, error) {
	log.Info().Str("strategy", o.strategy.Name()).Bool("vsAI", o.vsAI).Msg("Starting bot game")

	seats := 2
	if o.vsAI {
		seats = 1
	}
	for i := 1; i <= seats; i++ {
		name := fmt.Sprintf("Bot%d", i)
		c := NewClient(name, o.baseURL)
		if err := c.Login(ctx); err != nil {
			return nil, fmt.Errorf("login %s: %w", name, err)
		}
		o.players = append(o.players, c)
	}

	game, err := o.players[0].CreateGame(ctx, o.vsAI)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	gameID := game.ID
	log.Info().Str("gameId", gameID).Msg("Game created")

	for _, c := range o.players[1:] {
		if _, err := c.JoinGame(ctx, gameID); err != nil {
			return nil, fmt.Errorf("join %s: %w", c.Name(), err)
		}
	}

	for _, c := range o.players {
		if err := c.ConnectWS(); err != nil {
			log.Warn().Err(err).Str("bot", c.Name()).Msg("WS unavailable, falling back to polling")
			continue
		}
		if err := c.SubscribeGame(gameID); err != nil {
			log.Warn().Err(err).Str("bot", c.Name()).Msg("WS subscribe failed")
		}
	}
	defer func() {
		for _, c := range o.players {
			c.CloseWS()
		}
	}()

	if game, err = o.placeFleets(ctx, gameID); err != nil {
		return nil, err
	}
	if game.Status != battleship.StatusActive {
		return nil, fmt.Errorf("game %s did not activate after placement: %s", gameID, game.Status)
	}
	log.Info().Msg("Fleets placed, game active")

	return o.playLoop(ctx, game)
}

// placeFleets has the first player build a board locally and submit it,
// while any other player asks the server to auto-place.
func (o *Orchestrator) placeFleets(ctx context.Context, gameID string) (*battleship.Game, error) {
	board, err := battleship.AutoPlaceFleet(battleship.NewBoard(), Source{})
	if err != nil {
		return nil, fmt.Errorf("place fleet: %w", err)
	}
	game, err := o.players[0].SubmitBoard(ctx, gameID, board)
	if err != nil {
		return nil, fmt.Errorf("submit board %s: %w", o.players[0].Name(), err)
	}
	for _, c := range o.players[1:] {
		if game, err = c.AutoPlace(ctx, gameID); err != nil {
			return nil, fmt.Errorf("auto place %s: %w", c.Name(), err)
		}
	}
	return game, nil
}

// playLoop fires on behalf of whichever bot holds the turn until the game
// completes.
func (o *Orchestrator) playLoop(ctx context.Context, game *battleship.Game) (*battleship.Game, error) {
	for game.Status == battleship.StatusActive {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping bots")
			return nil, ctx.Err()
		default:
		}

		c := o.playerFor(game.CurrentTurn)
		if c == nil {
			return nil, fmt.Errorf("no bot holds the turn (%s)", game.CurrentTurn)
		}
		defender, ok := game.OpponentOf(game.CurrentTurn)
		if !ok {
			return nil, fmt.Errorf("no opponent for %s", game.CurrentTurn)
		}
		view := maskShips(game.Boards[defender])
		target, err := o.strategy.ChooseTarget(&view)
		if err != nil {
			return nil, fmt.Errorf("%s choose target: %w", c.Name(), err)
		}

		next, err := c.Fire(ctx, game.ID, target)
		if err != nil {
			return nil, fmt.Errorf("%s fire: %w", c.Name(), err)
		}
		last := next.Moves[len(next.Moves)-1]
		log.Debug().Str("bot", c.Name()).Int("row", target.Row).Int("col", target.Col).
			Str("result", string(last.Result)).Str("lastBy", last.By.String()).Msg("Fired")

		if !o.vsAI && next.Status == battleship.StatusActive {
			if next, err = o.awaitTurn(ctx, o.playerFor(next.CurrentTurn), next); err != nil {
				return nil, err
			}
		}
		game = next
	}

	winner := ""
	if game.Winner != nil {
		winner = game.Winner.String()
	}
	log.Info().Str("winner", winner).Int("moves", len(game.Moves)).Msg("Game ended")
	return game, nil
}

// awaitTurn waits until the server reports c holds the turn (or the game
// ended), preferring WS events and polling as a fallback.
func (o *Orchestrator) awaitTurn(ctx context.Context, c *Client, game *battleship.Game) (*battleship.Game, error) {
	if c == nil || game.CurrentTurn == c.Participant() {
		return game, nil
	}
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	events := c.Events()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.GameID != game.ID {
				continue
			}
			log.Debug().Str("bot", c.Name()).Str("type", event.Type).Msg("Event received")
		case <-ticker.C:
		}
		latest, err := c.GetGame(ctx, game.ID)
		if err != nil {
			return nil, fmt.Errorf("poll game: %w", err)
		}
		if latest.Status != battleship.StatusActive || latest.CurrentTurn == c.Participant() {
			return latest, nil
		}
	}
}

func (o *Orchestrator) playerFor(p battleship.ParticipantRef) *Client {
	for _, c := range o.players {
		if c.Participant() == p {
			return c
		}
	}
	return nil
}

// maskShips hides unhit ship cells so strategies see only what an opponent
// could know.
func maskShips(b battleship.Board) battleship.Board {
	for r := range b {
		for c := range b[r] {
			if b[r][c] == battleship.Ship {
				b[r][c] = battleship.Empty
			}
		}
	}
	return b
}
