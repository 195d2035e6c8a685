// team/service/locking.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	"github.com/Ftotnem/GO-TEAMS/team/lock"
	"github.com/Ftotnem/GO-TEAMS/team/store"
)

// DefaultLockWait bounds how long an operation waits for a contended player or team.
const DefaultLockWait = 5 * time.Second

// guard acquires entity locks. Callers always take the player lock before any team lock.
type guard struct {
	locks lock.Locker
	wait  time.Duration
}

func newGuard(locks lock.Locker, wait time.Duration) guard {
	if locks == nil {
		locks = lock.NewLocal()
	}
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return guard{locks: locks, wait: wait}
}

func (g guard) acquire(ctx context.Context, key string) (lock.Release, error) {
	actx, cancel := context.WithTimeout(ctx, g.wait)
	defer cancel()
	release, err := g.locks.Acquire(actx, key)
	if err != nil {
		return nil, infra("acquire "+key, err)
	}
	return release, nil
}

func resolvePlayerByToken(ctx context.Context, players store.PlayerStore, token string) (*models.Player, error) {
	player, err := players.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, infra("find player by token", err)
	}
	return player, nil
}

// reloadPlayer re-reads a player once its lock is held.
func reloadPlayer(ctx context.Context, players store.PlayerStore, id string) (*models.Player, error) {
	player, err := players.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, infra("reload player "+id, err)
	}
	return player, nil
}

// compensate reverts an already applied write after a later write of the same transition failed.
// It runs detached from the request context so a cancelled request still gets rolled back.
func compensate(what string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("ERROR: Failed to %s during rollback, leaving it to the reconciler: %v", what, err)
		return
	}
	log.Printf("WARN: Rolled back: %s.", what)
}
