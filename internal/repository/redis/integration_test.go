//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/internal/testutil"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return &Client{rdb: testRDB}
}

func TestGameStateRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	g, err := battleship.NewGame("test-game-1", battleship.Human("alice"), true, battleship.Env{})
	if err != nil {
		t.Fatal(err)
	}
	g.Version = 3
	if err := c.SetGame(ctx, g); err != nil {
		t.Fatalf("set game: %v", err)
	}

	got, err := c.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got == nil || got.Version != 3 || !got.HasPlaced(battleship.AI) {
		t.Fatalf("cache round-trip lost state: %+v", got)
	}

	ttl := testRDB.TTL(ctx, stateKey(g.ID)).Val()
	if ttl <= 0 || ttl > StateTTL {
		t.Errorf("expected TTL within %v, got %v", StateTTL, ttl)
	}

	if err := c.DeleteGame(ctx, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := c.GetGame(ctx, g.ID); got != nil {
		t.Fatal("expected cache miss after delete")
	}
}

func TestFillGameKeepsNewerVersion(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	g, err := battleship.NewGame("test-game-fill", battleship.Human("alice"), false, battleship.Env{})
	if err != nil {
		t.Fatal(err)
	}
	older := g.Clone()
	older.Version = 1

	// Empty cache: the fill lands.
	if err := c.FillGame(ctx, older); err != nil {
		t.Fatalf("fill empty: %v", err)
	}
	if got, _ := c.GetGame(ctx, g.ID); got == nil || got.Version != 1 {
		t.Fatalf("expected v1 after fill, got %+v", got)
	}

	g.Version = 2
	if err := c.SetGame(ctx, g); err != nil {
		t.Fatalf("set game: %v", err)
	}
	if err := c.FillGame(ctx, older); err != nil {
		t.Fatalf("fill stale: %v", err)
	}
	got, err := c.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("stale fill replaced v2 with v%d", got.Version)
	}
	if ttl := testRDB.TTL(ctx, stateKey(g.ID)).Val(); ttl <= 0 {
		t.Errorf("expected a TTL on the filled key, got %v", ttl)
	}
}

func TestGameStateNotFound(t *testing.T) {
	c := setup(t)
	got, err := c.GetGame(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("get missing state: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing game state")
	}
}

func TestLockGame(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	unlock, err := c.LockGame(ctx, "g1", 5*time.Second)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// A second holder gives up after the retry window.
	short, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := c.LockGame(short, "g1", 5*time.Second); !errors.Is(err, repository.ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	unlock2, err := c.LockGame(ctx, "g1", 5*time.Second)
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	defer unlock2(ctx)
}

func TestUnlockLeavesForeignLock(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	unlock, err := c.LockGame(ctx, "g2", 5*time.Second)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Simulate expiry and re-acquisition by another instance.
	testRDB.Set(ctx, lockKey("g2"), "someone-else", 5*time.Second)

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if v := testRDB.Get(ctx, lockKey("g2")).Val(); v != "someone-else" {
		t.Fatalf("unlock removed a lock it no longer owned, value %q", v)
	}
}

func TestPublishSubscribe(t *testing.T) {
	c := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.SubscribeGameEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := repository.GameEvent{Origin: "node-a", GameID: "g3", Type: "game_updated", Data: json.RawMessage(`{"id":"g3"}`)}
	if err := c.PublishGameEvent(ctx, want); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-events:
		if got.Origin != want.Origin || got.GameID != want.GameID || got.Type != want.Type {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	for range events {
	}
}
