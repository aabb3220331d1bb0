package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// GameRepo stores each game as a JSONB snapshot plus the columns the lobby
// filters on.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a new game at version 1.
func (r *GameRepo) Create(ctx context.Context, g *battleship.Game) error {
	g.Version = 1
	snapshot, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO games (id, creator_id, status, is_ai, snapshot, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.Creator().String(), string(g.Status), g.IsAI, snapshot, g.Version, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		g.Version = 0
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// FindByID returns a game by ID, or nil if it does not exist.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*battleship.Game, error) {
	var snapshot []byte
	err := r.db.QueryRowContext(ctx, `SELECT snapshot FROM games WHERE id = $1`, id).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	return decodeGame(snapshot)
}

// SaveIfVersion writes g when the stored row is still at expectedVersion.
func (r *GameRepo) SaveIfVersion(ctx context.Context, g *battleship.Game, expectedVersion int) error {
	g.Version = expectedVersion + 1
	snapshot, err := json.Marshal(g)
	if err != nil {
		g.Version = expectedVersion
		return fmt.Errorf("marshal game: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = $1, snapshot = $2, version = $3, updated_at = $4
		 WHERE id = $5 AND version = $6`,
		string(g.Status), snapshot, g.Version, g.UpdatedAt, g.ID, expectedVersion,
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

// List returns the most recently created games, newest first.
func (r *GameRepo) List(ctx context.Context, limit int) ([]*battleship.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT snapshot FROM games ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*battleship.Game
	for rows.Next() {
		var snapshot []byte
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

func decodeGame(snapshot []byte) (*battleship.Game, error) {
	var g battleship.Game
	if err := json.Unmarshal(snapshot, &g); err != nil {
		return nil, fmt.Errorf("decode game snapshot: %w", err)
	}
	return &g, nil
}
