package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/klinechart/internal/domain"
)

// unlockLua deletes the lock only while it still holds the caller's token.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// LockManager implements domain.LockManager with SET NX PX and a token-checked
// release. The fetcher holds it while it overwrites the snapshot.
type LockManager struct {
	c      *Client
	rdb    *redis.Client
	unlock *redis.Script
}

// NewLockManager creates a LockManager on c.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{c: c, rdb: c.Underlying(), unlock: redis.NewScript(unlockLua)}
}

// Acquire takes the lock for ttl. It returns domain.ErrLockHeld when another
// holder has it. The returned release func is idempotent and runs on its own
// context so it works after the caller's context is cancelled.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	lk := lm.c.Key("lock", key)

	ok, err := lm.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, domain.ErrLockHeld)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = lm.unlock.Run(unlockCtx, lm.rdb, []string{lk}, token).Err()
	}, nil
}

var _ domain.LockManager = (*LockManager)(nil)
