package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/bot"
)

func main() {
	url := flag.String("url", "http://localhost:8009", "server base URL")
	strategyName := flag.String("strategy", "random", "bot strategy (random, hunt)")
	vsAI := flag.Bool("ai", false, "play one bot against the server's AI")
	poll := flag.Duration("poll", 500*time.Millisecond, "poll interval when waiting for the opponent")
	seed := flag.Int64("seed", 0, "seed the bot RNG for a reproducible game (0 = random)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if *seed != 0 {
		bot.SeedBotRng(*seed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	orch := bot.NewOrchestrator(*url, bot.StrategyForDifficulty(*strategyName), *vsAI, *poll)
	game, err := orch.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Bot orchestrator failed")
	}
	log.Info().Str("gameId", game.ID).Int("moves", len(game.Moves)).Msg("Bot game completed successfully")
}
