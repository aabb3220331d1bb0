package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for range 2 {
		db, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		db.Close()
	}
}

func TestUserRepo(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	u, err := repo.CreateWithPassword(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.Username != "alice" || u.Provider != "local" || u.DisplayName != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected created_at to be populated")
	}

	if _, err := repo.CreateWithPassword(ctx, "alice", "again"); !errors.Is(err, repository.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	g1, err := repo.Upsert(ctx, "google", "g-1", "Bob", "")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	g2, err := repo.Upsert(ctx, "google", "g-1", "Bobby", "https://a")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if g1.ID != g2.ID || g2.DisplayName != "Bobby" {
		t.Fatalf("upsert should update in place: %+v -> %+v", g1, g2)
	}

	if err := repo.UpdateDisplayName(ctx, u.ID, "Alice A."); err != nil {
		t.Fatalf("rename: %v", err)
	}
	found, err := repo.FindByID(ctx, u.ID)
	if err != nil || found == nil || found.DisplayName != "Alice A." {
		t.Fatalf("find after rename: %+v (%v)", found, err)
	}

	missing, err := repo.FindByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing user; got %+v, %v", missing, err)
	}
}

func TestScores(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	a, _ := repo.CreateWithPassword(ctx, "a", "h")
	b, _ := repo.CreateWithPassword(ctx, "b", "h")
	c, _ := repo.CreateWithPassword(ctx, "c", "h")

	results := []struct{ winner, loser string }{
		{a.ID, b.ID},
		{a.ID, c.ID},
		{c.ID, b.ID},
	}
	for _, r := range results {
		if err := repo.RecordResult(ctx, r.winner, r.loser); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	scores, err := repo.ListScores(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []struct {
		name         string
		wins, losses int
	}{
		{"a", 2, 0},
		{"c", 1, 1},
		{"b", 0, 2},
	}
	if len(scores) != len(want) {
		t.Fatalf("expected %d scores, got %d", len(want), len(scores))
	}
	for i, w := range want {
		s := scores[i]
		if s.Username != w.name || s.Wins != w.wins || s.Losses != w.losses {
			t.Errorf("scores[%d] = %+v, want %s %d-%d", i, s, w.name, w.wins, w.losses)
		}
	}
}

func TestGameRepoVersioning(t *testing.T) {
	db := openTestDB(t)
	repo := NewGameRepo(db)
	ctx := context.Background()

	g, err := battleship.NewGame(uuid.NewString(), battleship.Human("alice"), true, battleship.Env{})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.FindByID(ctx, g.ID)
	if err != nil || loaded == nil {
		t.Fatalf("find: %v", err)
	}
	if !loaded.IsAI || loaded.Version != 1 || !loaded.HasPlaced(battleship.AI) {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}

	next, err := battleship.Apply(loaded, battleship.AutoPlace{Participant: battleship.Human("alice")}, battleship.Env{})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveIfVersion(ctx, next, loaded.Version); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveIfVersion(ctx, loaded.Clone(), loaded.Version); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	reloaded, _ := repo.FindByID(ctx, g.ID)
	if reloaded.Status != battleship.StatusActive || reloaded.Version != 2 {
		t.Errorf("expected active game at version 2, got %s v%d", reloaded.Status, reloaded.Version)
	}

	games, err := repo.List(ctx, 10)
	if err != nil || len(games) != 1 {
		t.Fatalf("list: %d games, %v", len(games), err)
	}
}
