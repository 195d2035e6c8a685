// team/reconciler/reconciler.go
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	redisu "github.com/Ftotnem/GO-TEAMS/shared/redis"
	"github.com/Ftotnem/GO-TEAMS/team/lock"
	"github.com/Ftotnem/GO-TEAMS/team/store"
)

// Assigner decides which instance sweeps a team. A nil Assigner means this instance sweeps everything.
type Assigner interface {
	IsResponsible(entityID string) (bool, error)
}

// Report summarizes one sweep.
type Report struct {
	Checked int
	Deleted int
	Drifted int
	Skipped int
}

// Reconciler periodically repairs what a failed rollback can leave behind: empty teams
// are deleted and member back-references that disagree with the team are logged.
type Reconciler struct {
	teams    store.TeamStore
	players  store.PlayerStore
	locks    lock.Locker
	assigner Assigner
	interval time.Duration
	lockWait time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func NewReconciler(teams store.TeamStore, players store.PlayerStore, locks lock.Locker, assigner Assigner, interval, lockWait time.Duration) *Reconciler {
	log.Println("INFO: Reconciler: Initializing.")
	ctx, cancel := context.WithCancel(context.Background())
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	return &Reconciler{
		teams:    teams,
		players:  players,
		locks:    locks,
		assigner: assigner,
		interval: interval,
		lockWait: lockWait,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the sweep loop until Stop is called. Run it in a goroutine.
func (r *Reconciler) Start() {
	log.Printf("INFO: Reconciler starting with interval: %v", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			log.Println("INFO: Reconciler shutting down.")
			return
		case <-ticker.C:
			report, err := r.RunOnce(r.ctx)
			if err != nil {
				log.Printf("ERROR: Reconciler: sweep failed: %v", err)
				continue
			}
			if report.Deleted > 0 || report.Drifted > 0 {
				log.Printf("INFO: Reconciler: checked %d teams, deleted %d empty, %d drifted references.", report.Checked, report.Deleted, report.Drifted)
			}
		}
	}
}

func (r *Reconciler) Stop() {
	r.cancel()
}

// RunOnce sweeps every team this instance is responsible for.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	teams, err := r.teams.FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("reconciler: list teams: %w", err)
	}

	for _, t := range teams {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if r.assigner != nil {
			mine, err := r.assigner.IsResponsible(t.ID)
			if err != nil {
				log.Printf("WARN: Reconciler: could not decide ownership of team %s: %v", t.ID, err)
				report.Skipped++
				continue
			}
			if !mine {
				report.Skipped++
				continue
			}
		}
		if err := r.checkTeam(ctx, t.ID, &report); err != nil {
			log.Printf("ERROR: Reconciler: team %s: %v", t.ID, err)
		}
	}
	return report, nil
}

func (r *Reconciler) checkTeam(ctx context.Context, teamID string, report *Report) error {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockWait)
	release, err := r.locks.Acquire(lockCtx, redisu.TeamLockKey(teamID))
	cancel()
	if err != nil {
		return err
	}
	defer release()

	team, err := r.teams.FindByID(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	report.Checked++

	if team.IsEmpty() {
		if err := r.teams.DeleteByID(ctx, team.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete empty team: %w", err)
		}
		report.Deleted++
		log.Printf("WARN: Reconciler: deleted empty team '%s' (%s).", team.Name, team.ID)
		return nil
	}

	for _, memberID := range team.Members {
		p, err := r.players.FindByID(ctx, memberID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			report.Drifted++
			log.Printf("WARN: Reconciler: team %s lists unknown player %s.", team.ID, memberID)
		case err != nil:
			return fmt.Errorf("load member %s: %w", memberID, err)
		case p.TeamID != team.ID:
			report.Drifted++
			log.Printf("WARN: Reconciler: player %s is listed by team %s but points at %q.", p.ID, team.ID, p.TeamID)
		}
	}
	return nil
}
