package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	redisu "github.com/Ftotnem/GO-TEAMS/shared/redis"
	"github.com/Ftotnem/GO-TEAMS/team/lock"
	"github.com/Ftotnem/GO-TEAMS/team/store"
)

type assignFunc func(string) (bool, error)

func (f assignFunc) IsResponsible(id string) (bool, error) { return f(id) }

func setup(t *testing.T) (*store.MemoryTeamStore, *store.MemoryPlayerStore) {
	t.Helper()
	ctx := context.Background()
	teams := store.NewMemoryTeamStore()
	players := store.NewMemoryPlayerStore()
	now := time.Now()

	alice := models.NewPlayer("p-alice", "alice", "tok-alice", now)
	alice.TeamID = "t-red"
	bob := models.NewPlayer("p-bob", "bob", "tok-bob", now)
	if _, err := players.SaveAll(ctx, []*models.Player{alice, bob}); err != nil {
		t.Fatalf("save players: %v", err)
	}

	red := models.NewTeam("t-red", "Red", alice.ID, now)
	red.AddMember(bob.ID)
	red.AddMember("p-ghost")
	empty := &models.Team{ID: "t-empty", Name: "Empty", Members: []string{}, CreatedAt: &now}
	for _, team := range []*models.Team{red, empty} {
		if _, err := teams.Save(ctx, team); err != nil {
			t.Fatalf("save team: %v", err)
		}
	}
	return teams, players
}

func TestRunOnceDeletesEmptyTeamsAndCountsDrift(t *testing.T) {
	teams, players := setup(t)
	r := NewReconciler(teams, players, lock.NewLocal(), nil, time.Minute, time.Second)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Checked != 2 || report.Deleted != 1 || report.Drifted != 2 {
		t.Fatalf("report = %+v", report)
	}
	if _, err := teams.FindByID(context.Background(), "t-empty"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("empty team should be gone, got %v", err)
	}
	if _, err := teams.FindByID(context.Background(), "t-red"); err != nil {
		t.Fatalf("populated team must survive: %v", err)
	}
}

func TestRunOnceSkipsTeamsOwnedElsewhere(t *testing.T) {
	teams, players := setup(t)
	notMine := assignFunc(func(string) (bool, error) { return false, nil })
	r := NewReconciler(teams, players, lock.NewLocal(), notMine, time.Minute, time.Second)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Skipped != 2 || report.Checked != 0 {
		t.Fatalf("report = %+v", report)
	}
	if _, err := teams.FindByID(context.Background(), "t-empty"); err != nil {
		t.Fatalf("team owned elsewhere must not be touched: %v", err)
	}
}

func TestRunOnceWaitsForTeamLock(t *testing.T) {
	teams, players := setup(t)
	locks := lock.NewLocal()
	release, err := locks.Acquire(context.Background(), redisu.TeamLockKey("t-empty"))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	r := NewReconciler(teams, players, locks, nil, time.Minute, 20*time.Millisecond)
	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Deleted != 0 {
		t.Fatalf("locked team must not be swept, report = %+v", report)
	}
}
