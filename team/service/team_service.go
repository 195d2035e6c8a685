// team/service/team_service.go
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

// TeamServiceOptions tunes the membership engine.
type TeamServiceOptions struct {
	LockWait time.Duration
	// CreationCost is the coin price of creating a team. Zero keeps the coin gate inactive.
	CreationCost int64
	SampleLimit  int
}

// TeamService is the membership engine: it owns create/join/leave transitions and their invariants.
type TeamService struct {
	teamStore    store.TeamStore
	playerStore  store.PlayerStore
	sampler      *TeamSampler
	guard        guard
	creationCost int64
	sampleLimit  int
}

// NewTeamService creates a new TeamService instance.
func NewTeamService(ts store.TeamStore, ps store.PlayerStore, locks lock.Locker, sampler *TeamSampler, opts TeamServiceOptions) *TeamService {
	if sampler == nil {
		sampler = NewTeamSampler(ts, nil)
	}
	if opts.SampleLimit <= 0 {
		opts.SampleLimit = DefaultSampleLimit
	}
	return &TeamService{
		teamStore:    ts,
		playerStore:  ps,
		sampler:      sampler,
		guard:        newGuard(locks, opts.LockWait),
		creationCost: opts.CreationCost,
		sampleLimit:  opts.SampleLimit,
	}
}

// CreateTeam creates teamName with the token's player as its sole member and leader.
func (ts *TeamService) CreateTeam(ctx context.Context, teamName, token string) (*models.Team, error) {
	player, err := resolvePlayerByToken(ctx, ts.playerStore, token)
	if err != nil {
		return nil, err
	}

	releasePlayer, err := ts.guard.acquire(ctx, redisu.PlayerLockKey(player.ID))
	if err != nil {
		return nil, err
	}
	defer releasePlayer()

	if player, err = reloadPlayer(ctx, ts.playerStore, player.ID); err != nil {
		return nil, err
	}
	if player.HasTeam() {
		return nil, ErrAlreadyInTeam
	}

	releaseName, err := ts.guard.acquire(ctx, redisu.TeamNameLockKey(teamName))
	if err != nil {
		return nil, err
	}
	defer releaseName()

	if _, err := ts.teamStore.FindByName(ctx, teamName); err == nil {
		return nil, ErrTeamNameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, infra("find team by name", err)
	}

	if ts.creationCost > 0 && player.Coins < ts.creationCost {
		return nil, ErrNotEnoughCoins
	}

	team := models.NewTeam(uuid.NewString(), teamName, player.ID, time.Now())

	// Nobody can see the new id yet, but a sampler could hand it out right after the save.
	releaseTeam, err := ts.guard.acquire(ctx, redisu.TeamLockKey(team.ID))
	if err != nil {
		return nil, err
	}
	defer releaseTeam()

	saved, err := ts.teamStore.Save(ctx, team)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrTeamNameTaken
		}
		return nil, infra("save team", err)
	}

	player.TeamID = team.ID
	player.Coins -= ts.creationCost
	if _, err := ts.playerStore.Save(ctx, player); err != nil {
		compensate("delete team "+team.ID, func(ctx context.Context) error {
			return ts.teamStore.DeleteByID(ctx, team.ID)
		})
		return nil, infra("save player", err)
	}

	log.Printf("INFO: Player %s created team '%s' (%s).", player.ID, team.Name, team.ID)
	return saved, nil
}

// GetTeamByName retrieves a team and its member list.
func (ts *TeamService) GetTeamByName(ctx context.Context, name string) (*models.Team, error) {
	team, err := ts.teamStore.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, infra("find team by name", err)
	}
	if team.IsEmpty() {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

func (ts *TeamService) findTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := ts.teamStore.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, infra("find team "+teamID, err)
	}
	if team.IsEmpty() {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

// JoinTeam adds the token's player to teamID. Capacity and affiliation are checked under both locks.
func (ts *TeamService) JoinTeam(ctx context.Context, teamID, token string) (*models.Team, error) {
	if _, err := ts.findTeam(ctx, teamID); err != nil {
		return nil, err
	}
	player, err := resolvePlayerByToken(ctx, ts.playerStore, token)
	if err != nil {
		return nil, err
	}

	releasePlayer, err := ts.guard.acquire(ctx, redisu.PlayerLockKey(player.ID))
	if err != nil {
		return nil, err
	}
	defer releasePlayer()

	releaseTeam, err := ts.guard.acquire(ctx, redisu.TeamLockKey(teamID))
	if err != nil {
		return nil, err
	}
	defer releaseTeam()

	if player, err = reloadPlayer(ctx, ts.playerStore, player.ID); err != nil {
		return nil, err
	}
	team, err := ts.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.IsFull() {
		return nil, ErrTeamFull
	}
	if player.HasTeam() {
		return nil, ErrAlreadyInTeam
	}

	previous := team.Clone()
	team.AddMember(player.ID)
	saved, err := ts.teamStore.Save(ctx, team)
	if err != nil {
		return nil, infra("save team", err)
	}

	player.TeamID = team.ID
	if _, err := ts.playerStore.Save(ctx, player); err != nil {
		compensate("restore members of team "+team.ID, func(ctx context.Context) error {
			_, err := ts.teamStore.Save(ctx, previous)
			return err
		})
		return nil, infra("save player", err)
	}

	log.Printf("INFO: Player %s joined team '%s' (%d/%d).", player.ID, team.Name, saved.Size(), models.MaxTeamMembers)
	return saved, nil
}

// LeaveTeam removes the token's player from its team, dissolving the team when it becomes empty.
func (ts *TeamService) LeaveTeam(ctx context.Context, token string) error {
	player, err := resolvePlayerByToken(ctx, ts.playerStore, token)
	if err != nil {
		return err
	}

	releasePlayer, err := ts.guard.acquire(ctx, redisu.PlayerLockKey(player.ID))
	if err != nil {
		return err
	}
	defer releasePlayer()

	if player, err = reloadPlayer(ctx, ts.playerStore, player.ID); err != nil {
		return err
	}
	if !player.HasTeam() {
		return ErrNotInTeam
	}

	teamID := player.TeamID
	releaseTeam, err := ts.guard.acquire(ctx, redisu.TeamLockKey(teamID))
	if err != nil {
		return err
	}
	defer releaseTeam()

	team, err := ts.teamStore.FindByID(ctx, teamID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return infra("find team "+teamID, err)
	}
	if err != nil || !team.HasMember(player.ID) {
		log.Printf("WARN: Player %s pointed at team %s which does not list it. Clearing the stale reference.", player.ID, teamID)
		player.TeamID = ""
		if _, err := ts.playerStore.Save(ctx, player); err != nil {
			return infra("save player", err)
		}
		return nil
	}

	previous := player.Clone()
	team.RemoveMember(player.ID)
	player.TeamID = ""
	if _, err := ts.playerStore.Save(ctx, player); err != nil {
		return infra("save player", err)
	}

	restorePlayer := func(ctx context.Context) error {
		_, err := ts.playerStore.Save(ctx, previous)
		return err
	}

	if team.IsEmpty() {
		if err := ts.teamStore.DeleteByID(ctx, team.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			compensate("restore player "+player.ID, restorePlayer)
			return infra("delete team", err)
		}
		log.Printf("INFO: Player %s left team '%s' as its last member. Team dissolved.", player.ID, team.Name)
		return nil
	}

	if _, err := ts.teamStore.Save(ctx, team); err != nil {
		compensate("restore player "+player.ID, restorePlayer)
		return infra("save team", err)
	}
	log.Printf("INFO: Player %s left team '%s' (%d/%d). Leader is now %s.", player.ID, team.Name, team.Size(), models.MaxTeamMembers, team.LeaderID())
	return nil
}

// SampleJoinableTeams returns a random selection of teams with open slots.
func (ts *TeamService) SampleJoinableTeams(ctx context.Context) ([]models.TeamSummary, error) {
	return ts.sampler.SampleJoinable(ctx, ts.sampleLimit)
}
