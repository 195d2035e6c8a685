// team/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write violates a unique index (name or token).
	ErrDuplicate = errors.New("store: duplicate key")
)

// PlayerStore is the identity store: durable token -> player mapping.
type PlayerStore interface {
	FindByID(ctx context.Context, id string) (*models.Player, error)
	FindByToken(ctx context.Context, token string) (*models.Player, error)
	FindByName(ctx context.Context, name string) (*models.Player, error)
	Save(ctx context.Context, player *models.Player) (*models.Player, error)
	SaveAll(ctx context.Context, players []*models.Player) ([]*models.Player, error)
}

// TeamStore persists teams together with their member lists.
type TeamStore interface {
	FindByID(ctx context.Context, id string) (*models.Team, error)
	FindByName(ctx context.Context, name string) (*models.Team, error)
	FindAll(ctx context.Context) ([]*models.Team, error)
	Save(ctx context.Context, team *models.Team) (*models.Team, error)
	DeleteByID(ctx context.Context, id string) error
}
