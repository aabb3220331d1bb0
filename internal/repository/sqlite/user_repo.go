package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/freeeve/broadside/api/internal/model"
	"github.com/freeeve/broadside/api/internal/repository"
)

const userColumns = `id, username, provider, provider_id, display_name, avatar_url, password_hash, wins, losses, created_at, updated_at`

// UserRepo is the SQLite user store.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
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

func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id", `id = ?`, id)
}

func (r *UserRepo) FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error) {
	return r.findOne(ctx, "provider", `provider = ? AND provider_id = ?`, provider, providerID)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username", `username = ?`, username)
}

// Upsert creates the user or refreshes the profile of an existing one.
func (r *UserRepo) Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, provider, provider_id, display_name, avatar_url)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (provider, provider_id)
		 DO UPDATE SET display_name = excluded.display_name, avatar_url = excluded.avatar_url, updated_at = CURRENT_TIMESTAMP`,
		uuid.NewString(), provider, providerID, displayName, avatarURL,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return r.FindByProviderID(ctx, provider, providerID)
}

// CreateWithPassword registers a local account. A taken username yields
// repository.ErrDuplicateUsername.
func (r *UserRepo) CreateWithPassword(ctx context.Context, username, passwordHash string) (*model.User, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, provider, provider_id, display_name, password_hash)
		 VALUES (?, ?, 'local', ?, ?, ?)`,
		id, username, username, username, passwordHash,
	)
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return nil, repository.ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepo) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		displayName, id,
	)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

// RecordResult bumps both counters in one transaction.
func (r *UserRepo) RecordResult(ctx context.Context, winnerID, loserID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE users SET wins = wins + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, winnerID); err != nil {
		return fmt.Errorf("record win: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET losses = losses + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, loserID); err != nil {
		return fmt.Errorf("record loss: %w", err)
	}
	return tx.Commit()
}

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
