// shared/models/team.go
package models

import (
	"slices"
	"time"
)

// MaxTeamMembers is the hard cap on team size.
const MaxTeamMembers = 20

// Team owns its member list. Members holds player ids in join order; the first one is the leader.
type Team struct {
	ID          string     `bson:"_id" json:"id"`
	Name        string     `bson:"name" json:"name"`
	Members     []string   `bson:"members" json:"members"`
	MemberCount int        `bson:"member_count" json:"memberCount"`
	CreatedAt   *time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	LastUpdated *time.Time `bson:"last_updated,omitempty" json:"lastUpdated,omitempty"`
}

// TeamSummary is what the sampler hands out; it never exposes member identities.
type TeamSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

// NewTeam creates a team whose sole member (and leader) is leaderID.
func NewTeam(id, name, leaderID string, now time.Time) *Team {
	return &Team{
		ID:          id,
		Name:        name,
		Members:     []string{leaderID},
		MemberCount: 1,
		CreatedAt:   &now,
		LastUpdated: &now,
	}
}

func (t *Team) Size() int {
	return len(t.Members)
}

func (t *Team) IsFull() bool {
	return len(t.Members) >= MaxTeamMembers
}

func (t *Team) IsEmpty() bool {
	return len(t.Members) == 0
}

func (t *Team) HasMember(playerID string) bool {
	return slices.Contains(t.Members, playerID)
}

// LeaderID returns the earliest member still in the team, or "" for an empty team.
func (t *Team) LeaderID() string {
	if len(t.Members) == 0 {
		return ""
	}
	return t.Members[0]
}

// AddMember appends playerID. It reports false if the team is full or already lists the player.
func (t *Team) AddMember(playerID string) bool {
	if t.IsFull() || t.HasMember(playerID) {
		return false
	}
	t.Members = append(t.Members, playerID)
	t.MemberCount = len(t.Members)
	return true
}

// RemoveMember drops playerID, keeping the join order of the rest.
func (t *Team) RemoveMember(playerID string) bool {
	i := slices.Index(t.Members, playerID)
	if i < 0 {
		return false
	}
	t.Members = slices.Delete(t.Members, i, i+1)
	t.MemberCount = len(t.Members)
	return true
}

func (t *Team) Summary() TeamSummary {
	return TeamSummary{ID: t.ID, Name: t.Name, MemberCount: len(t.Members)}
}

// Clone returns a deep copy of the team.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	c.Members = slices.Clone(t.Members)
	if c.Members == nil {
		c.Members = []string{}
	}
	if t.CreatedAt != nil {
		v := *t.CreatedAt
		c.CreatedAt = &v
	}
	if t.LastUpdated != nil {
		v := *t.LastUpdated
		c.LastUpdated = &v
	}
	return &c
}
