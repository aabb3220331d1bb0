package bot_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/freeeve/broadside/api/internal/auth"
	"github.com/freeeve/broadside/api/internal/bot"
	"github.com/freeeve/broadside/api/internal/handler"
	"github.com/freeeve/broadside/api/internal/repository/sqlite"
	"github.com/freeeve/broadside/api/internal/service"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// newServer runs the full HTTP stack over a temporary SQLite store.
func newServer(t *testing.T) (*httptest.Server, *sqlite.UserRepo) {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepo(db)
	hub := handler.NewHub()
	gameSvc := service.NewGameService(sqlite.NewGameRepo(db), users, hub)
	srv := httptest.NewServer(handler.NewRouter(handler.RouterDeps{
		GameSvc:       gameSvc,
		Users:         users,
		Records:       users,
		JWT:           auth.NewJWTManager("bot-test"),
		Hub:           hub,
		DevMode:       true,
		AllowedOrigin: "*",
	}))
	t.Cleanup(srv.Close)
	return srv, users
}

func TestOrchestratorPlaysPVPGame(t *testing.T) {
	bot.SeedBotRng(7)
	defer bot.ResetBotRng()
	srv, users := newServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	orch := bot.NewOrchestrator(srv.URL, bot.HuntStrategy{}, false, 20*time.Millisecond)
	game, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if game.Status != battleship.StatusCompleted || game.Winner == nil {
		t.Fatalf("expected a completed game, got %s", game.Status)
	}
	if game.IsAI {
		t.Error("expected a PVP game")
	}

	scores, err := users.ListScores(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 || scores[0].Wins != 1 || scores[1].Losses != 1 {
		t.Errorf("expected one recorded result, got %+v", scores)
	}
	if scores[0].UserID != game.Winner.UserID() {
		t.Errorf("leader %s is not the winner %s", scores[0].UserID, game.Winner)
	}
}

func TestOrchestratorPlaysAIGame(t *testing.T) {
	bot.SeedBotRng(11)
	defer bot.ResetBotRng()
	srv, users := newServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	game, err := bot.NewOrchestrator(srv.URL, bot.RandomStrategy{}, true, 0).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if game.Status != battleship.StatusCompleted || !game.IsAI {
		t.Fatalf("expected a completed AI game, got %s (ai=%v)", game.Status, game.IsAI)
	}

	// AI games never touch the leaderboard.
	scores, _ := users.ListScores(ctx)
	for _, s := range scores {
		if s.Wins != 0 || s.Losses != 0 {
			t.Errorf("AI game recorded a result: %+v", s)
		}
	}
}
