// Package sessionlock guards the submit-answer critical section with a Redis
// SET NX lock per question, so duplicate submissions racing from multiple
// requests cannot both score and advance a session.
package sessionlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "interview:submit:"

// unlockScript releases the lock only if this holder still owns it.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker acquires short-lived per-question locks. The store's uniqueness
// constraint on answers remains the correctness backstop; the lock only
// avoids doing duplicate scoring work.
type Locker struct {
	rdb    *redis.Client
	ttl    time.Duration
	token  string
	script *redis.Script
}

// New constructs a Locker. token identifies this process instance so a lock
// is never released by a different holder.
func New(rdb *redis.Client, ttl time.Duration, token string) *Locker {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{
		rdb:    rdb,
		ttl:    ttl,
		token:  token,
		script: redis.NewScript(unlockScript),
	}
}

// TryLock attempts to take the lock for key without blocking.
func (l *Locker) TryLock(ctx context.Context, key string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, keyPrefix+key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("op=sessionlock.trylock: %w", err)
	}
	return ok, nil
}

// Unlock releases the lock if this instance still holds it; an expired or
// stolen lock is left alone.
func (l *Locker) Unlock(ctx context.Context, key string) error {
	if err := l.script.Run(ctx, l.rdb, []string{keyPrefix + key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("op=sessionlock.unlock: %w", err)
	}
	return nil
}
