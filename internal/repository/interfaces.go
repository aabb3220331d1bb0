package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/freeeve/broadside/api/internal/model"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

var (
	// ErrVersionConflict is returned by SaveIfVersion when the stored game
	// moved on since it was loaded.
	ErrVersionConflict = errors.New("game version conflict")
	// ErrDuplicateUsername is returned when registering a taken username.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrLockHeld is returned when another instance holds a game's lock.
	ErrLockHeld = errors.New("game lock held by another instance")
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	CreateWithPassword(ctx context.Context, username, passwordHash string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// PlayerRecordStore keeps win/loss counters. Results are recorded only when
// a PVP game completes.
type PlayerRecordStore interface {
	RecordResult(ctx context.Context, winnerID, loserID string) error
	ListScores(ctx context.Context) ([]model.Score, error)
}

// GameRepository is the durable game store. Games are saved as whole
// snapshots guarded by an optimistic version.
type GameRepository interface {
	Create(ctx context.Context, g *battleship.Game) error
	FindByID(ctx context.Context, id string) (*battleship.Game, error)
	// SaveIfVersion stores g only if the stored version equals
	// expectedVersion, then sets g.Version to expectedVersion+1.
	SaveIfVersion(ctx context.Context, g *battleship.Game, expectedVersion int) error
	List(ctx context.Context, limit int) ([]*battleship.Game, error)
}

// GameCache holds recent game snapshots (Redis).
type GameCache interface {
	SetGame(ctx context.Context, g *battleship.Game) error
	// FillGame caches g unless the cache already holds the same or a newer
	// version. Reads use it so they never roll back a fresher snapshot.
	FillGame(ctx context.Context, g *battleship.Game) error
	GetGame(ctx context.Context, gameID string) (*battleship.Game, error)
	DeleteGame(ctx context.Context, gameID string) error
}

// GameLocker serializes mutations of one game across server instances.
type GameLocker interface {
	LockGame(ctx context.Context, gameID string, ttl time.Duration) (unlock func(context.Context) error, err error)
}

// GameEvent is a game notification relayed between server instances.
// Origin identifies the publishing instance so it can skip its own events.
type GameEvent struct {
	Origin string          `json:"origin"`
	GameID string          `json:"gameId"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// EventBus fans game events out to every server instance (Redis pub/sub).
type EventBus interface {
	PublishGameEvent(ctx context.Context, ev GameEvent) error
	SubscribeGameEvents(ctx context.Context) (<-chan GameEvent, error)
}
