// Package lock provides a per-network deploy lock in Redis so that two
// operators never submit interleaved nonces from the same account.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AndyHydro/plasma-contracts/internal/pkg/ulid"
)

// Sentinel errors
var (
	ErrHeld    = errors.New("lock: already held")
	ErrNotHeld = errors.New("lock: not held by this owner")
)

const keyPrefix = "plasma:deploy-lock:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires network locks.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a locker whose locks expire after ttl unless released.
func New(client redis.UniversalClient, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Locker{client: client, ttl: ttl}
}

// Lock is a held network lock.
type Lock struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Key returns the Redis key of the lock.
func Key(network string) string {
	return keyPrefix + network
}

// Acquire takes the lock for network or fails with ErrHeld.
func (l *Locker) Acquire(ctx context.Context, network string) (*Lock, error) {
	key := Key(network)
	token := ulid.New()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHeld, network)
	}
	return &Lock{client: l.client, key: key, token: token}, nil
}

// Release gives the lock up. Releasing a lock that expired and was taken by
// someone else returns ErrNotHeld and leaves the other owner's lock alone.
func (k *Lock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, k.client, []string{k.key}, k.token).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", k.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
