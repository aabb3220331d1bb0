//go:build integration

package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/broadside/api/internal/model"
	"github.com/freeeve/broadside/api/internal/repository/postgres"
	redisrepo "github.com/freeeve/broadside/api/internal/repository/redis"
	"github.com/freeeve/broadside/api/internal/testutil"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// testEnv holds shared test infrastructure.
type testEnv struct {
	db       *sql.DB
	rdb      *goredis.Client
	userRepo *postgres.UserRepo
	gameRepo *postgres.GameRepo
	redis    *redisrepo.Client
}

var env *testEnv

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	if env == nil {
		db := testutil.SetupDB(t)
		rdb := testutil.SetupRedis(t)
		env = &testEnv{
			db:       db,
			rdb:      rdb,
			userRepo: postgres.NewUserRepo(db),
			gameRepo: postgres.NewGameRepo(db),
			redis:    redisrepo.NewClientFromPool(rdb),
		}
	}
	testutil.CleanupDB(t, env.db)
	testutil.CleanupRedis(t, env.rdb)
	return env
}

// newInstance builds a service wired the way cmd/server does with Redis.
func (e *testEnv) newInstance() *GameService {
	svc := NewGameService(e.gameRepo, e.userRepo, nil)
	svc.SetCache(e.redis)
	svc.SetLocker(e.redis)
	return svc
}

func createUsers(t *testing.T, repo *postgres.UserRepo, names ...string) []*model.User {
	t.Helper()
	var users []*model.User
	for _, n := range names {
		u, err := repo.CreateWithPassword(context.Background(), n, "x")
		if err != nil {
			t.Fatalf("create user %s: %v", n, err)
		}
		users = append(users, u)
	}
	return users
}

func TestIntegration_PVPGameUpdatesScores(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	users := createUsers(t, e.userRepo, "alice", "bob")
	alice, bob := users[0].ID, users[1].ID
	svc := e.newInstance()

	g, err := svc.CreateGame(ctx, alice, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.JoinGame(ctx, g.ID, bob); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.SubmitBoard(ctx, g.ID, alice, fleetBoard(t)); err != nil {
		t.Fatalf("alice board: %v", err)
	}
	if g, err = svc.AutoPlaceBoard(ctx, g.ID, bob); err != nil {
		t.Fatalf("bob board: %v", err)
	}

	targets := shipCells(g.Boards[battleship.Human(bob)])
	for i, target := range targets {
		if g, err = svc.SubmitMove(ctx, g.ID, alice, target.Row, target.Col); err != nil {
			t.Fatalf("alice shot %d: %v", i, err)
		}
		if g.Status == battleship.StatusCompleted {
			break
		}
		if g, err = svc.SubmitMove(ctx, g.ID, bob, 1+2*(i/10), i%10); err != nil {
			t.Fatalf("bob shot %d: %v", i, err)
		}
	}
	if g.Status != battleship.StatusCompleted {
		t.Fatalf("expected completed game, got %s", g.Status)
	}

	scores, err := e.userRepo.ListScores(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if scores[0].UserID != alice || scores[0].Wins != 1 || scores[1].Losses != 1 {
		t.Errorf("unexpected scores: %+v", scores)
	}

	cached, err := e.redis.GetGame(ctx, g.ID)
	if err != nil || cached == nil || cached.Version != g.Version {
		t.Errorf("cache not refreshed: %+v (%v)", cached, err)
	}
}

// Two instances share Postgres and Redis; concurrent joins must seat one
// player.
func TestIntegration_ConcurrentJoinAcrossInstances(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	users := createUsers(t, e.userRepo, "alice", "bob", "carol")

	a, b := e.newInstance(), e.newInstance()
	g, err := a.CreateGame(ctx, users[0].ID, false)
	if err != nil {
		t.Fatal(err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, svc := range []*GameService{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.JoinGame(ctx, g.ID, users[i+1].ID)
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, battleship.ErrRoomFull) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected one successful join, got %d", ok)
	}
	stored, _ := e.gameRepo.FindByID(ctx, g.ID)
	if len(stored.Participants) != 2 || stored.Version != 2 {
		t.Errorf("stored game: %v v%d", stored.Participants, stored.Version)
	}
}
