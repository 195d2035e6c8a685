package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	"github.com/Ftotnem/GO-TEAMS/team/lock"
	"github.com/Ftotnem/GO-TEAMS/team/store"
)

var errDiskOnFire = errors.New("disk on fire")

// flakyPlayerStore fails Save on demand.
type flakyPlayerStore struct {
	store.PlayerStore
	failSave atomic.Bool
}

func (f *flakyPlayerStore) Save(ctx context.Context, p *models.Player) (*models.Player, error) {
	if f.failSave.Load() {
		return nil, errDiskOnFire
	}
	return f.PlayerStore.Save(ctx, p)
}

// flakyTeamStore fails writes on demand.
type flakyTeamStore struct {
	store.TeamStore
	failSave   atomic.Bool
	failDelete atomic.Bool
	failList   atomic.Bool
}

func (f *flakyTeamStore) Save(ctx context.Context, t *models.Team) (*models.Team, error) {
	if f.failSave.Load() {
		return nil, errDiskOnFire
	}
	return f.TeamStore.Save(ctx, t)
}

func (f *flakyTeamStore) DeleteByID(ctx context.Context, id string) error {
	if f.failDelete.Load() {
		return errDiskOnFire
	}
	return f.TeamStore.DeleteByID(ctx, id)
}

func (f *flakyTeamStore) FindAll(ctx context.Context) ([]*models.Team, error) {
	if f.failList.Load() {
		return nil, errDiskOnFire
	}
	return f.TeamStore.FindAll(ctx)
}

type stuckLocker struct{}

func (stuckLocker) Acquire(ctx context.Context, key string) (lock.Release, error) {
	return nil, lock.ErrNotAcquired
}

type fixture struct {
	players   *flakyPlayerStore
	teams     *flakyTeamStore
	locks     lock.Locker
	teamSvc   *TeamService
	playerSvc *PlayerService
}

func newFixture(t *testing.T, opts TeamServiceOptions) *fixture {
	t.Helper()
	f := &fixture{
		players: &flakyPlayerStore{PlayerStore: store.NewMemoryPlayerStore()},
		teams:   &flakyTeamStore{TeamStore: store.NewMemoryTeamStore()},
		locks:   lock.NewLocal(),
	}
	f.teamSvc = NewTeamService(f.teams, f.players, f.locks, nil, opts)
	f.playerSvc = NewPlayerService(f.players, nil, f.locks, 0)
	return f
}

func (f *fixture) register(t *testing.T, name string) *models.Player {
	t.Helper()
	p, err := f.playerSvc.CreatePlayer(context.Background(), name)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return p
}

func (f *fixture) player(t *testing.T, id string) *models.Player {
	t.Helper()
	p, err := f.players.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find player %s: %v", id, err)
	}
	return p
}

// seedTeam creates a team called name with n generated members.
func (f *fixture) seedTeam(t *testing.T, name string, n int) *models.Team {
	t.Helper()
	s := NewSeeder(f.teams, f.players, nil, nil)
	if err := s.SeedDemoData(context.Background(), []string{name}, n); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	team, err := f.teams.FindByName(context.Background(), name)
	if err != nil {
		t.Fatalf("find seeded team: %v", err)
	}
	return team
}
