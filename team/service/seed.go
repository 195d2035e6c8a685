// team/service/seed.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	"github.com/Ftotnem/GO-TEAMS/team/store"
	"github.com/google/uuid"
)

const (
	seedNameLength = 10
	letters        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// DefaultSeedTeams are created when SEED_DEMO_DATA is enabled.
var DefaultSeedTeams = []string{"Team 1", "Team 2"}

// Seeder fills an empty deployment with demo teams and players.
type Seeder struct {
	teams   store.TeamStore
	players store.PlayerStore
	issuer  *TokenIssuer

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeder creates a seeder. A nil source seeds from the clock.
func NewSeeder(teams store.TeamStore, players store.PlayerStore, issuer *TokenIssuer, src rand.Source) *Seeder {
	if issuer == nil {
		issuer = NewTokenIssuer()
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Seeder{teams: teams, players: players, issuer: issuer, rng: rand.New(src)}
}

// SeedDemoData creates each missing team with perTeam generated members. Existing teams are left alone.
// Player i of a team gets level i+1 and 5000+25*i coins.
func (s *Seeder) SeedDemoData(ctx context.Context, teamNames []string, perTeam int) error {
	if perTeam < 1 || perTeam > models.MaxTeamMembers {
		return fmt.Errorf("seed: players per team must be between 1 and %d, got %d", models.MaxTeamMembers, perTeam)
	}

	for _, name := range teamNames {
		if _, err := s.teams.FindByName(ctx, name); err == nil {
			log.Printf("INFO: Team '%s' already exists, skipping seed.", name)
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return infra("find team by name", err)
		}

		now := time.Now()
		team := &models.Team{ID: uuid.NewString(), Name: name, CreatedAt: &now, LastUpdated: &now}
		players := make([]*models.Player, 0, perTeam)
		for i := 0; i < perTeam; i++ {
			playerName := s.randomName()
			token, err := s.issuer.Issue(playerName)
			if err != nil {
				return err
			}
			p := models.NewPlayer(uuid.NewString(), playerName, token, now)
			p.Level = int64(i + 1)
			p.Coins = models.DefaultCoins + models.LevelUpReward*int64(i)
			p.TeamID = team.ID
			players = append(players, p)
			team.AddMember(p.ID)
		}

		if _, err := s.teams.Save(ctx, team); err != nil {
			return infra("save seed team", err)
		}
		if _, err := s.players.SaveAll(ctx, players); err != nil {
			compensate("delete seed team "+team.ID, func(ctx context.Context) error {
				return s.teams.DeleteByID(ctx, team.ID)
			})
			return infra("save seed players", err)
		}
		log.Printf("INFO: Seeded team '%s' with %d players.", name, len(players))
	}
	return nil
}

func (s *Seeder) randomName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, seedNameLength)
	for i := range b {
		b[i] = letters[s.rng.Intn(len(letters))]
	}
	return string(b)
}
