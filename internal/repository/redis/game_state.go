package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/broadside/api/pkg/battleship"
)

// StateTTL bounds how long an untouched snapshot stays cached. Completed
// games age out; the durable store remains the source of truth.
const StateTTL = 24 * time.Hour

func stateKey(gameID string) string { return "game:" + gameID + ":state" }

// SetGame caches the game snapshot.
func (c *Client) SetGame(ctx context.Context, g *battleship.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	return c.rdb.Set(ctx, stateKey(g.ID), data, StateTTL).Err()
}

// fillScript writes the snapshot only when the cached one is missing or
// older. KEYS[1] = state key, ARGV = snapshot, version, ttl in ms.
var fillScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
	local ok, decoded = pcall(cjson.decode, cur)
	if ok and tonumber(decoded.version) and tonumber(decoded.version) >= tonumber(ARGV[2]) then
		return 0
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// FillGame caches g unless a snapshot at the same or a newer version is
// already there.
func (c *Client) FillGame(ctx context.Context, g *battleship.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	if err := fillScript.Run(ctx, c.rdb, []string{stateKey(g.ID)}, data, g.Version, StateTTL.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("fill game state: %w", err)
	}
	return nil
}

// GetGame returns the cached snapshot, or nil on a miss.
func (c *Client) GetGame(ctx context.Context, gameID string) (*battleship.Game, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	var g battleship.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode cached game: %w", err)
	}
	return &g, nil
}

// DeleteGame drops the cached snapshot.
func (c *Client) DeleteGame(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, stateKey(gameID)).Err()
}
