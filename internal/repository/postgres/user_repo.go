package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/broadside/api/internal/model"
	"github.com/freeeve/broadside/api/internal/repository"
)

const userColumns = `id, username, provider, provider_id, display_name, avatar_url, password_hash, wins, losses, created_at, updated_at`

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// UserRepo handles user database operations, including the win/loss
// counters behind the leaderboard.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var username, avatar, hash sql.NullString
	err := row.Scan(&u.ID, &username, &u.Provider, &u.ProviderID, &u.DisplayName, &avatar, &hash,
		&u.Wins, &u.Losses, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.AvatarURL = avatar.String
	u.PasswordHash = hash.String
	return &u, nil
}

func (r *UserRepo) findOne(ctx context.Context, what, where string, args ...any) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by %s: %w", what, err)
	}
	return u, nil
}

// FindByProviderID looks up a user by OAuth provider and provider-specific ID.
func (r *UserRepo) FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error) {
	return r.findOne(ctx, "provider", `provider = $1 AND provider_id = $2`, provider, providerID)
}

// FindByID looks up a user by their UUID.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id", `id = $1`, id)
}

// FindByUsername looks up a password account.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username", `username = $1`, username)
}

// Upsert creates a new user or updates the display name and avatar if they already exist.
// Returns the user (with ID populated).
func (r *UserRepo) Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (provider, provider_id, display_name, avatar_url)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (provider, provider_id)
		 DO UPDATE SET display_name = EXCLUDED.display_name, avatar_url = EXCLUDED.avatar_url, updated_at = now()
		 RETURNING `+userColumns,
		provider, providerID, displayName, avatarURL,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

// CreateWithPassword registers a local account. A taken username yields
// repository.ErrDuplicateUsername.
func (r *UserRepo) CreateWithPassword(ctx context.Context, username, passwordHash string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, provider, provider_id, display_name, password_hash)
		 VALUES ($1, 'local', $1, $1, $2)
		 RETURNING `+userColumns,
		username, passwordHash,
	))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, repository.ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpdateDisplayName updates a user's display name.
func (r *UserRepo) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET display_name = $1, updated_at = now() WHERE id = $2`,
		displayName, id,
	)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

// RecordResult increments the winner's wins and the loser's losses in one
// transaction.
func (r *UserRepo) RecordResult(ctx context.Context, winnerID, loserID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE users SET wins = wins + 1, updated_at = now() WHERE id = $1`, winnerID); err != nil {
		return fmt.Errorf("record win: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET losses = losses + 1, updated_at = now() WHERE id = $1`, loserID); err != nil {
		return fmt.Errorf("record loss: %w", err)
	}
	return tx.Commit()
}

// ListScores returns every user ordered for the leaderboard.
func (r *UserRepo) ListScores(ctx context.Context) ([]model.Score, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, COALESCE(username, ''), display_name, wins, losses
		 FROM users
		 ORDER BY wins DESC, losses ASC, COALESCE(username, display_name) ASC`)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var scores []model.Score
	for rows.Next() {
		var s model.Score
		if err := rows.Scan(&s.UserID, &s.Username, &s.DisplayName, &s.Wins, &s.Losses); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
