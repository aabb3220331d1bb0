package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// GameRepo stores games as JSON text snapshots.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

func (r *GameRepo) Create(ctx context.Context, g *battleship.Game) error {
	g.Version = 1
	snapshot, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO games (id, creator_id, status, is_ai, snapshot, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Creator().String(), string(g.Status), g.IsAI, string(snapshot), g.Version,
		g.CreatedAt.UTC(), g.UpdatedAt.UTC(),
	)
	if err != nil {
		g.Version = 0
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

func (r *GameRepo) FindByID(ctx context.Context, id string) (*battleship.Game, error) {
	var snapshot string
	err := r.db.QueryRowContext(ctx, `SELECT snapshot FROM games WHERE id = ?`, id).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	return decodeGame(snapshot)
}

// SaveIfVersion is a compare-and-swap on the version column. On any
// failure g.Version is left at expectedVersion.
func (r *GameRepo) SaveIfVersion(ctx context.Context, g *battleship.Game, expectedVersion int) error {
	g.Version = expectedVersion + 1
	snapshot, err := json.Marshal(g)
	if err != nil {
		g.Version = expectedVersion
		return fmt.Errorf("marshal game: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = ?, snapshot = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(g.Status), string(snapshot), g.Version, g.UpdatedAt.UTC(), g.ID, expectedVersion,
	)
	if err != nil {
		g.Version = expectedVersion
		return fmt.Errorf("save game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		g.Version = expectedVersion
		return fmt.Errorf("save game rows: %w", err)
	}
	if n == 0 {
		g.Version = expectedVersion
		return repository.ErrVersionConflict
	}
	return nil
}

func (r *GameRepo) List(ctx context.Context, limit int) ([]*battleship.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT snapshot FROM games ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*battleship.Game
	for rows.Next() {
		var snapshot string
		if err := rows.Scan(&snapshot); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g, err := decodeGame(snapshot)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func decodeGame(snapshot string) (*battleship.Game, error) {
	var g battleship.Game
	if err := json.Unmarshal([]byte(snapshot), &g); err != nil {
		return nil, fmt.Errorf("decode game snapshot: %w", err)
	}
	return &g, nil
}
