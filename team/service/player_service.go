// team/service/player_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	redisu "github.com/Ftotnem/GO-TEAMS/shared/redis"
	"github.com/Ftotnem/GO-TEAMS/team/lock"
	"github.com/Ftotnem/GO-TEAMS/team/store"
	"github.com/google/uuid"
)

// PlayerService registers players and applies progression events.
type PlayerService struct {
	playerStore store.PlayerStore
	issuer      *TokenIssuer
	guard       guard
}

// NewPlayerService creates a new PlayerService instance.
func NewPlayerService(ps store.PlayerStore, issuer *TokenIssuer, locks lock.Locker, lockWait time.Duration) *PlayerService {
	if issuer == nil {
		issuer = NewTokenIssuer()
	}
	return &PlayerService{
		playerStore: ps,
		issuer:      issuer,
		guard:       newGuard(locks, lockWait),
	}
}

// CreatePlayer registers name with a freshly issued token. The returned player carries the token.
func (ps *PlayerService) CreatePlayer(ctx context.Context, name string) (*models.Player, error) {
	release, err := ps.guard.acquire(ctx, redisu.PlayerNameLockKey(name))
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := ps.playerStore.FindByName(ctx, name); err == nil {
		return nil, ErrPlayerNameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, infra("find player by name", err)
	}

	token, err := ps.issuer.Issue(name)
	if err != nil {
		log.Printf("ERROR: Could not issue token for player '%s': %v", name, err)
		return nil, err
	}

	player := models.NewPlayer(uuid.NewString(), name, token, time.Now())
	saved, err := ps.playerStore.Save(ctx, player)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrPlayerNameTaken
		}
		return nil, infra("save player", err)
	}

	log.Printf("INFO: Registered player '%s' (%s).", saved.Name, saved.ID)
	return saved, nil
}

// AdvanceLevel applies one level-up: level +1 and LevelUpReward coins.
func (ps *PlayerService) AdvanceLevel(ctx context.Context, token string) (models.ProgressionResult, error) {
	player, err := resolvePlayerByToken(ctx, ps.playerStore, token)
	if err != nil {
		return models.ProgressionResult{}, err
	}

	release, err := ps.guard.acquire(ctx, redisu.PlayerLockKey(player.ID))
	if err != nil {
		return models.ProgressionResult{}, err
	}
	defer release()

	if player, err = reloadPlayer(ctx, ps.playerStore, player.ID); err != nil {
		return models.ProgressionResult{}, err
	}

	player.Level++
	player.Coins += models.LevelUpReward
	saved, err := ps.playerStore.Save(ctx, player)
	if err != nil {
		return models.ProgressionResult{}, infra("save player", err)
	}
	return saved.Progression(), nil
}
