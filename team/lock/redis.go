// team/lock/redis.go
package lock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript pushes the expiry out only if the key still holds our owner token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

const (
	minRetryDelay = 5 * time.Millisecond
	maxRetryDelay = 100 * time.Millisecond
)

// Redis is a distributed lock over SET NX PX, shared by every service instance.
// A held lock is renewed every ttl/3 until it is released, so the ttl only bounds
// how long a crashed holder can block others, not how long a live holder may work.
type Redis struct {
	client     redis.UniversalClient
	ttl        time.Duration
	renewEvery time.Duration
}

// NewRedis creates a Redis locker.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, renewEvery: ttl / 3}
}

func (r *Redis) Acquire(ctx context.Context, key string) (Release, error) {
	owner := uuid.NewString()
	delay := minRetryDelay
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-timer.C:
		}

		ok, err := r.client.SetNX(ctx, key, owner, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return r.hold(key, owner), nil
		}

		timer.Reset(delay)
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

// hold starts the renewal loop for a freshly acquired key and returns its releaser.
func (r *Redis) hold(key, owner string) Release {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.renew(ctx, key, owner)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done

			releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer releaseCancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{key}, owner).Err(); err != nil {
				log.Printf("WARN: Failed to release lock %s (it will expire after %v): %v", key, r.ttl, err)
			}
		})
	}
}

func (r *Redis) renew(ctx context.Context, key, owner string) {
	if r.renewEvery <= 0 {
		return
	}
	ticker := time.NewTicker(r.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		extended, err := renewScript.Run(ctx, r.client, []string{key}, owner, r.ttl.Milliseconds()).Int()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("WARN: Failed to extend lock %s: %v", key, err)
			continue
		}
		if extended == 0 {
			log.Printf("ERROR: Lock %s was lost before release, stopping renewal.", key)
			return
		}
	}
}
