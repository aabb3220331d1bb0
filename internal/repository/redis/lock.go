package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/freeeve/broadside/api/internal/repository"
)

func lockKey(gameID string) string { return "game:" + gameID + ":lock" }

// Release only deletes the key if it still holds our token, so a lock that
// expired and was re-acquired elsewhere is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	lockRetryDelay = 25 * time.Millisecond
	lockRetries    = 40
)

// LockGame acquires the cross-instance mutation lock for a game, retrying
// briefly while another instance holds it. It returns
// repository.ErrLockHeld if the lock stays taken.
func (c *Client) LockGame(ctx context.Context, gameID string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	key := lockKey(gameID)

	for attempt := 0; ; attempt++ {
		ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire game lock: %w", err)
		}
		if ok {
			break
		}
		if attempt >= lockRetries {
			return nil, repository.ErrLockHeld
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	unlock := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, c.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release game lock: %w", err)
		}
		return nil
	}
	return unlock, nil
}
