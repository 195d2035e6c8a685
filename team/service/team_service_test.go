package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	"github.com/Ftotnem/GO-TEAMS/team/store"
)

func TestCreateTeam(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	alice := f.register(t, "alice")

	team, err := f.teamSvc.CreateTeam(ctx, "Red", alice.Token)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if team.Name != "Red" || team.Size() != 1 || team.LeaderID() != alice.ID {
		t.Fatalf("unexpected team %+v", team)
	}
	if team.MemberCount != 1 {
		t.Fatalf("member count = %d, want 1", team.MemberCount)
	}
	if got := f.player(t, alice.ID); got.TeamID != team.ID || got.Coins != models.DefaultCoins {
		t.Fatalf("player after create = %+v", got)
	}
}

func TestCreateTeamErrors(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	if _, err := f.teamSvc.CreateTeam(ctx, "Red", "no-such-token"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if _, err := f.teamSvc.CreateTeam(ctx, "Red", alice.Token); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.teamSvc.CreateTeam(ctx, "Blue", alice.Token); !errors.Is(err, ErrAlreadyInTeam) {
		t.Fatalf("expected ErrAlreadyInTeam, got %v", err)
	}
	if _, err := f.teamSvc.CreateTeam(ctx, "Red", bob.Token); !errors.Is(err, ErrTeamNameTaken) {
		t.Fatalf("expected ErrTeamNameTaken, got %v", err)
	}
	if got := f.player(t, bob.ID); got.HasTeam() {
		t.Fatalf("bob should stay unaffiliated, got team %s", got.TeamID)
	}
}

func TestCreateTeamCoinGate(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, TeamServiceOptions{CreationCost: models.DefaultCoins + 1})
	alice := f.register(t, "alice")
	_, err := f.teamSvc.CreateTeam(ctx, "Red", alice.Token)
	if !errors.Is(err, ErrNotEnoughCoins) {
		t.Fatalf("expected ErrNotEnoughCoins, got %v", err)
	}
	if KindOf(err) != KindInvalidState {
		t.Fatalf("kind = %v, want invalid_state", KindOf(err))
	}
	if _, err := f.teams.FindByName(ctx, "Red"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("team should not exist, got %v", err)
	}

	f = newFixture(t, TeamServiceOptions{CreationCost: 100})
	alice = f.register(t, "alice")
	if _, err := f.teamSvc.CreateTeam(ctx, "Red", alice.Token); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := f.player(t, alice.ID).Coins; got != models.DefaultCoins-100 {
		t.Fatalf("coins = %d, want %d", got, models.DefaultCoins-100)
	}
}

func TestCreateTeamRollsBackWhenPlayerWriteFails(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	alice := f.register(t, "alice")

	f.players.failSave.Store(true)
	_, err := f.teamSvc.CreateTeam(ctx, "Red", alice.Token)
	if !errors.Is(err, ErrInfrastructure) || !IsRetryable(err) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	if !errors.Is(err, errDiskOnFire) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if _, err := f.teams.FindByName(ctx, "Red"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("team should have been rolled back, got %v", err)
	}
	if f.player(t, alice.ID).HasTeam() {
		t.Fatal("player should stay unaffiliated")
	}
}

func TestLockFailureIsInfrastructure(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	alice := f.register(t, "alice")
	svc := NewTeamService(f.teams, f.players, stuckLocker{}, nil, TeamServiceOptions{})

	_, err := svc.CreateTeam(context.Background(), "Red", alice.Token)
	if KindOf(err) != KindInfrastructure {
		t.Fatalf("kind = %v, want infrastructure", KindOf(err))
	}
}

func TestGetTeamByName(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	seeded := f.seedTeam(t, "Seeded", 3)

	team, err := f.teamSvc.GetTeamByName(ctx, "Seeded")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if team.ID != seeded.ID || team.Size() != 3 {
		t.Fatalf("unexpected team %+v", team)
	}
	if _, err := f.teamSvc.GetTeamByName(ctx, "Missing"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestEmptyTeamIsNotFound(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	alice := f.register(t, "alice")

	ghost, err := f.teams.Save(ctx, &models.Team{ID: "ghost-id", Name: "Ghost", Members: []string{}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := f.teamSvc.GetTeamByName(ctx, "Ghost"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("get empty team: expected ErrTeamNotFound, got %v", err)
	}
	if _, err := f.teamSvc.JoinTeam(ctx, ghost.ID, alice.Token); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("join empty team: expected ErrTeamNotFound, got %v", err)
	}
}

func TestJoinTeam(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	red, err := f.teamSvc.CreateTeam(ctx, "Red", alice.Token)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	joined, err := f.teamSvc.JoinTeam(ctx, red.ID, bob.Token)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Size() != 2 || joined.Members[1] != bob.ID || joined.LeaderID() != alice.ID {
		t.Fatalf("unexpected members %v", joined.Members)
	}
	if got := f.player(t, bob.ID); got.TeamID != red.ID {
		t.Fatalf("bob team = %q, want %q", got.TeamID, red.ID)
	}

	if _, err := f.teamSvc.JoinTeam(ctx, red.ID, bob.Token); !errors.Is(err, ErrAlreadyInTeam) {
		t.Fatalf("expected ErrAlreadyInTeam, got %v", err)
	}
	if _, err := f.teamSvc.JoinTeam(ctx, "missing", bob.Token); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
	if _, err := f.teamSvc.JoinTeam(ctx, red.ID, "no-such-token"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestJoinFullTeam(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	full := f.seedTeam(t, "Full", models.MaxTeamMembers)
	carol := f.register(t, "carol")

	_, err := f.teamSvc.JoinTeam(context.Background(), full.ID, carol.Token)
	if !errors.Is(err, ErrTeamFull) || KindOf(err) != KindCapacityExceeded {
		t.Fatalf("expected ErrTeamFull, got %v", err)
	}
	if f.player(t, carol.ID).HasTeam() {
		t.Fatal("carol should stay unaffiliated")
	}
}

func TestConcurrentJoinsNeverOverbook(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	team := f.seedTeam(t, "Almost", models.MaxTeamMembers-1)

	const joiners = 8
	tokens := make([]string, joiners)
	for i := range tokens {
		tokens[i] = f.register(t, fmt.Sprintf("joiner-%d", i)).Token
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		full      int
	)
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			_, err := f.teamSvc.JoinTeam(ctx, team.ID, token)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrTeamFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(token)
	}
	wg.Wait()

	if successes != 1 || full != joiners-1 {
		t.Fatalf("successes = %d, full = %d", successes, full)
	}
	got, err := f.teams.FindByID(ctx, team.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Size() != models.MaxTeamMembers {
		t.Fatalf("size = %d, want %d", got.Size(), models.MaxTeamMembers)
	}
}

func TestConcurrentCreateAndJoinWithSameToken(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t, TeamServiceOptions{})
		ctx := context.Background()
		other := f.seedTeam(t, "Other", 1)
		dave := f.register(t, "dave")

		var wg sync.WaitGroup
		var createErr, joinErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, createErr = f.teamSvc.CreateTeam(ctx, "Dave's", dave.Token)
		}()
		go func() {
			defer wg.Done()
			_, joinErr = f.teamSvc.JoinTeam(ctx, other.ID, dave.Token)
		}()
		wg.Wait()

		if (createErr == nil) == (joinErr == nil) {
			t.Fatalf("exactly one should win: create=%v join=%v", createErr, joinErr)
		}
		otherNow, err := f.teams.FindByID(ctx, other.ID)
		if err != nil {
			t.Fatalf("find other: %v", err)
		}
		_, ownErr := f.teams.FindByName(ctx, "Dave's")
		got := f.player(t, dave.ID)

		if createErr == nil {
			if !errors.Is(joinErr, ErrAlreadyInTeam) {
				t.Fatalf("join error = %v", joinErr)
			}
			if otherNow.HasMember(dave.ID) || got.TeamID == other.ID {
				t.Fatal("dave is listed in both teams")
			}
		} else {
			if !errors.Is(createErr, ErrAlreadyInTeam) {
				t.Fatalf("create error = %v", createErr)
			}
			if !errors.Is(ownErr, store.ErrNotFound) {
				t.Fatalf("losing create left a team behind: %v", ownErr)
			}
			if !otherNow.HasMember(dave.ID) || got.TeamID != other.ID {
				t.Fatal("dave should be in the joined team")
			}
		}
	}
}

func TestJoinRollsBackWhenPlayerWriteFails(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	team := f.seedTeam(t, "Red", 2)
	erin := f.register(t, "erin")

	f.players.failSave.Store(true)
	if _, err := f.teamSvc.JoinTeam(ctx, team.ID, erin.Token); KindOf(err) != KindInfrastructure {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	got, err := f.teams.FindByID(ctx, team.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Size() != 2 || got.HasMember(erin.ID) {
		t.Fatalf("members were not restored: %v", got.Members)
	}
}

func TestLeaveTeamPromotesNextLeader(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	carol := f.register(t, "carol")

	red, err := f.teamSvc.CreateTeam(ctx, "Red", alice.Token)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, p := range []*models.Player{bob, carol} {
		if _, err := f.teamSvc.JoinTeam(ctx, red.ID, p.Token); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	if err := f.teamSvc.LeaveTeam(ctx, alice.Token); err != nil {
		t.Fatalf("leave: %v", err)
	}
	got, err := f.teamSvc.GetTeamByName(ctx, "Red")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LeaderID() != bob.ID || got.Size() != 2 || got.HasMember(alice.ID) {
		t.Fatalf("unexpected team after leave: %v", got.Members)
	}
	if f.player(t, alice.ID).HasTeam() {
		t.Fatal("alice should be unaffiliated")
	}

	if err := f.teamSvc.LeaveTeam(ctx, alice.Token); !errors.Is(err, ErrNotInTeam) {
		t.Fatalf("expected ErrNotInTeam, got %v", err)
	}
	if err := f.teamSvc.LeaveTeam(ctx, "no-such-token"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestLastMemberLeavingDissolvesTeam(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	red, err := f.teamSvc.CreateTeam(ctx, "Red", alice.Token)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.teamSvc.LeaveTeam(ctx, alice.Token); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := f.teamSvc.GetTeamByName(ctx, "Red"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected dissolved team, got %v", err)
	}
	if _, err := f.teamSvc.JoinTeam(ctx, red.ID, bob.Token); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
	if _, err := f.teamSvc.CreateTeam(ctx, "Red", bob.Token); err != nil {
		t.Fatalf("name should be free again: %v", err)
	}
}

func TestLeaveClearsDanglingReference(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	frank := f.register(t, "frank")

	frank.TeamID = "vanished"
	if _, err := f.players.Save(ctx, frank); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.teamSvc.LeaveTeam(ctx, frank.Token); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if f.player(t, frank.ID).HasTeam() {
		t.Fatal("stale reference should be cleared")
	}
}

func TestLeaveRollsBackWhenTeamWriteFails(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{})
	ctx := context.Background()
	team := f.seedTeam(t, "Red", 3)
	member := f.player(t, team.Members[1])

	f.teams.failSave.Store(true)
	if err := f.teamSvc.LeaveTeam(ctx, member.Token); KindOf(err) != KindInfrastructure {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	if got := f.player(t, member.ID); got.TeamID != team.ID {
		t.Fatalf("player back-reference was not restored: %q", got.TeamID)
	}

	f.teams.failSave.Store(false)
	solo := f.seedTeam(t, "Solo", 1)
	leader := f.player(t, solo.Members[0])
	f.teams.failDelete.Store(true)
	if err := f.teamSvc.LeaveTeam(ctx, leader.Token); KindOf(err) != KindInfrastructure {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	if got := f.player(t, leader.ID); got.TeamID != solo.ID {
		t.Fatalf("player back-reference was not restored: %q", got.TeamID)
	}
}

func TestSampleJoinableTeamsThroughService(t *testing.T) {
	f := newFixture(t, TeamServiceOptions{SampleLimit: 2})
	for i := 0; i < 4; i++ {
		f.seedTeam(t, fmt.Sprintf("Team %d", i), 1)
	}
	got, err := f.teamSvc.SampleJoinableTeams(context.Background())
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}
