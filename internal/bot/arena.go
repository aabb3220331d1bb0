package bot

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// maxArenaMoves bounds a game; two full boards can absorb at most this many
// shots.
const maxArenaMoves = 2 * battleship.BoardSize * battleship.BoardSize

// ArenaConfig configures a single strategy-vs-strategy game.
type ArenaConfig struct {
	First  Strategy // creator, moves first
	Second Strategy
	Seed   int64 // fixes fleet placement; 0 = random
}

// ArenaStore persists arena games. A nil store runs the game in memory only.
type ArenaStore struct {
	Games   repository.GameRepository
	Users   repository.UserRepository
	Records repository.PlayerRecordStore
}

// ArenaResult describes the outcome of a completed arena game.
type ArenaResult struct {
	GameID     string `json:"gameId"`
	Winner     string `json:"winner"` // "first" or "second"
	WinnerName string `json:"winnerStrategy"`
	Moves      int    `json:"moves"`
	FirstHits  int    `json:"firstHits"`
	SecondHits int    `json:"secondHits"`
	DurationMS int64  `json:"durationMs"`
}

type arenaSeat struct {
	ref      battleship.ParticipantRef
	strategy Strategy
	label    string
}

// RunGame plays one full game between two strategies directly against the
// engine. With a store, every transition is saved the way the server saves
// it and the result counts toward the leaderboard.
func RunGame(ctx context.Context, cfg ArenaConfig, store *ArenaStore) (*ArenaResult, error) {
	start := time.Now()
	env := battleship.Env{Rand: Source{}}
	if cfg.Seed != 0 {
		env.Rand = rand.New(rand.NewSource(cfg.Seed))
	}

	seats, err := arenaSeats(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	g, err := battleship.NewGame(uuid.NewString(), seats[0].ref, false, env)
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := store.Games.Create(ctx, g); err != nil {
			return nil, fmt.Errorf("create arena game: %w", err)
		}
	}

	apply := func(cmd battleship.Command) error {
		next, err := battleship.Apply(g, cmd, env)
		if err != nil {
			return err
		}
		if store != nil {
			if err := store.Games.SaveIfVersion(ctx, next, g.Version); err != nil {
				return fmt.Errorf("save arena game: %w", err)
			}
		}
		g = next
		return nil
	}

	setup := []battleship.Command{
		battleship.Join{Joiner: seats[1].ref},
		battleship.AutoPlace{Participant: seats[0].ref},
		battleship.AutoPlace{Participant: seats[1].ref},
	}
	for _, cmd := range setup {
		if err := apply(cmd); err != nil {
			return nil, fmt.Errorf("arena setup: %w", err)
		}
	}

	for g.Status == battleship.StatusActive {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(g.Moves) >= maxArenaMoves {
			return nil, fmt.Errorf("arena game %s exceeded %d moves", g.ID, maxArenaMoves)
		}
		seat := seats[0]
		if g.CurrentTurn == seats[1].ref {
			seat = seats[1]
		}
		defender, _ := g.OpponentOf(seat.ref)
		view := maskShips(g.Boards[defender])
		target, err := seat.strategy.ChooseTarget(&view)
		if err != nil {
			return nil, fmt.Errorf("%s choose target: %w", seat.label, err)
		}
		if err := apply(battleship.Attack{Attacker: seat.ref, Target: target}); err != nil {
			return nil, fmt.Errorf("%s attack: %w", seat.label, err)
		}
	}

	result := &ArenaResult{GameID: g.ID, Moves: len(g.Moves), DurationMS: time.Since(start).Milliseconds()}
	for _, m := range g.Moves {
		if m.Result != battleship.ResultHit {
			continue
		}
		if m.By == seats[0].ref {
			result.FirstHits++
		} else {
			result.SecondHits++
		}
	}
	winner, loser := seats[0], seats[1]
	result.Winner = "first"
	if *g.Winner == seats[1].ref {
		winner, loser = seats[1], seats[0]
		result.Winner = "second"
	}
	result.WinnerName = winner.strategy.Name()

	if store != nil && store.Records != nil {
		if err := store.Records.RecordResult(ctx, winner.ref.UserID(), loser.ref.UserID()); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("Failed to record arena result")
		}
	}
	return result, nil
}

// arenaSeats resolves the two players. Stored games need real user rows, so
// each strategy gets a stable arena account.
func arenaSeats(ctx context.Context, cfg ArenaConfig, store *ArenaStore) ([2]arenaSeat, error) {
	seats := [2]arenaSeat{
		{strategy: cfg.First, label: "first/" + cfg.First.Name()},
		{strategy: cfg.Second, label: "second/" + cfg.Second.Name()},
	}
	for i := range seats {
		id := seats[i].label
		if store != nil {
			u, err := store.Users.Upsert(ctx, "arena", seats[i].label, "Arena "+seats[i].label, "")
			if err != nil {
				return seats, fmt.Errorf("arena user: %w", err)
			}
			id = u.ID
		}
		seats[i].ref = battleship.Human(id)
	}
	return seats, nil
}
