// shared/models/player.go
package models

import (
	"time"
)

const (
	DefaultLevel  int64 = 1
	DefaultCoins  int64 = 5000
	LevelUpReward int64 = 25
)

// Player represents a player's profile data stored persistently.
// TeamID is a lookup edge only; the team's member list is authoritative.
type Player struct {
	ID          string     `bson:"_id" json:"id"`
	Name        string     `bson:"name" json:"name"`
	Level       int64      `bson:"level" json:"level"`
	Coins       int64      `bson:"coins" json:"coins"`
	Token       string     `bson:"token" json:"token"`
	TeamID      string     `bson:"team_id,omitempty" json:"teamId,omitempty"`
	CreatedAt   *time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	LastUpdated *time.Time `bson:"last_updated,omitempty" json:"lastUpdated,omitempty"`
}

// NewPlayer returns an unaffiliated player with the starting level and coin balance.
func NewPlayer(id, name, token string, now time.Time) *Player {
	return &Player{
		ID:          id,
		Name:        name,
		Level:       DefaultLevel,
		Coins:       DefaultCoins,
		Token:       token,
		CreatedAt:   &now,
		LastUpdated: &now,
	}
}

// HasTeam reports whether the player is currently affiliated with a team.
func (p *Player) HasTeam() bool {
	return p.TeamID != ""
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	if p.CreatedAt != nil {
		t := *p.CreatedAt
		c.CreatedAt = &t
	}
	if p.LastUpdated != nil {
		t := *p.LastUpdated
		c.LastUpdated = &t
	}
	return &c
}

// ProgressionResult is the public view returned after a level-up. It never carries the token.
type ProgressionResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int64  `json:"level"`
	Coins int64  `json:"coins"`
}

// Progression returns the token-free view of the player.
func (p *Player) Progression() ProgressionResult {
	return ProgressionResult{
		ID:    p.ID,
		Name:  p.Name,
		Level: p.Level,
		Coins: p.Coins,
	}
}
