// team/service/sampler.go
package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	"github.com/Ftotnem/GO-TEAMS/team/store"
)

// DefaultSampleLimit is how many joinable teams a sample returns when no limit is given.
const DefaultSampleLimit = 10

// TeamSampler picks a random handful of teams that still have room.
type TeamSampler struct {
	teams store.TeamStore

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTeamSampler creates a sampler. A nil source seeds from the clock.
func NewTeamSampler(teams store.TeamStore, src rand.Source) *TeamSampler {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &TeamSampler{teams: teams, rng: rand.New(src)}
}

// SampleJoinable returns up to limit joinable teams in a fresh random order.
// It returns an empty slice, not an error, when no team qualifies.
func (s *TeamSampler) SampleJoinable(ctx context.Context, limit int) ([]models.TeamSummary, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}

	all, err := s.teams.FindAll(ctx)
	if err != nil {
		return nil, infra("list teams", err)
	}

	joinable := make([]*models.Team, 0, len(all))
	for _, t := range all {
		if !t.IsFull() && !t.IsEmpty() {
			joinable = append(joinable, t)
		}
	}

	s.mu.Lock()
	s.rng.Shuffle(len(joinable), func(i, j int) {
		joinable[i], joinable[j] = joinable[j], joinable[i]
	})
	s.mu.Unlock()

	if len(joinable) > limit {
		joinable = joinable[:limit]
	}
	summaries := make([]models.TeamSummary, 0, len(joinable))
	for _, t := range joinable {
		summaries = append(summaries, t.Summary())
	}
	return summaries, nil
}
