package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/bot"
	"github.com/freeeve/broadside/api/internal/repository/postgres"
	"github.com/freeeve/broadside/api/internal/repository/sqlite"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		matchup    string
		numGames   int
		workers    int
		dbURL      string
		sqlitePath string
		seed       int64
		swap       bool
		jsonOut    bool
	)

	flag.StringVar(&matchup, "matchup", "hunt-vs-random", "strategies as first-vs-second (random, hunt)")
	flag.IntVar(&numGames, "n", 1, "Number of games to run")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel games)")
	flag.StringVar(&dbURL, "db", "", "Postgres URL to save games to")
	flag.StringVar(&sqlitePath, "sqlite", "", "SQLite file to save games to")
	flag.Int64Var(&seed, "seed", 0, "Base seed for fleet placement (0 = random)")
	flag.BoolVar(&swap, "swap", true, "Alternate who moves first")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.Parse()

	first, second, err := parseMatchup(matchup)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid matchup")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	store, closeStore, err := openStore(ctx, dbURL, sqlitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer closeStore()

	results := make([]*bot.ArenaResult, numGames)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(workers, 1))
	errCount := 0

	for i := range numGames {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			cfg := bot.ArenaConfig{First: first, Second: second}
			if swap && idx%2 == 1 {
				cfg.First, cfg.Second = second, first
			}
			if seed != 0 {
				cfg.Seed = seed + int64(idx)
			}

			result, err := bot.RunGame(ctx, cfg, store)
			if err != nil {
				log.Error().Err(err).Int("game", idx+1).Msg("Game failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			log.Info().Int("game", idx+1).Str("winner", result.WinnerName).Int("moves", result.Moves).Msg("Game completed")
		}(i)
	}

	wg.Wait()

	if jsonOut {
		printJSON(results, numGames, errCount)
	} else {
		printSummary(results, matchup, errCount, store != nil)
	}
}

func parseMatchup(s string) (bot.Strategy, bot.Strategy, error) {
	parts := strings.SplitN(s, "-vs-", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("matchup %q must look like hunt-vs-random", s)
	}
	return bot.StrategyForDifficulty(parts[0]), bot.StrategyForDifficulty(parts[1]), nil
}

// openStore returns nil when no database is given, which runs games in
// memory only.
func openStore(ctx context.Context, dbURL, sqlitePath string) (*bot.ArenaStore, func(), error) {
	switch {
	case dbURL != "":
		db, err := postgres.Connect(dbURL)
		if err != nil {
			return nil, nil, err
		}
		users := postgres.NewUserRepo(db)
		return &bot.ArenaStore{Games: postgres.NewGameRepo(db), Users: users, Records: users}, func() { db.Close() }, nil
	case sqlitePath != "":
		db, err := sqlite.Open(ctx, sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		users := sqlite.NewUserRepo(db)
		return &bot.ArenaStore{Games: sqlite.NewGameRepo(db), Users: users, Records: users}, func() { db.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func printSummary(results []*bot.ArenaResult, matchup string, errCount int, saved bool) {
	type stats struct {
		wins       int
		firstWins  int
		totalMoves int
	}
	byStrategy := map[string]*stats{}
	completed := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		s := byStrategy[r.WinnerName]
		if s == nil {
			s = &stats{}
			byStrategy[r.WinnerName] = s
		}
		s.wins++
		s.totalMoves += r.Moves
		if r.Winner == "first" {
			s.firstWins++
		}
	}

	fmt.Printf("\nResults (%s, %d games):\n", matchup, completed)
	if errCount > 0 {
		fmt.Printf("  (%d games failed)\n", errCount)
	}
	for name, s := range byStrategy {
		fmt.Printf("  %-8s %d wins (%d moving first) -- avg game length: %.1f moves\n",
			name, s.wins, s.firstWins, float64(s.totalMoves)/float64(s.wins))
	}
	if saved && completed > 0 {
		fmt.Printf("\n%d games saved; arena players appear on the leaderboard\n", completed)
	}
}

func printJSON(results []*bot.ArenaResult, total, errCount int) {
	out := struct {
		Total   int                `json:"total"`
		Errors  int                `json:"errors"`
		Results []*bot.ArenaResult `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
