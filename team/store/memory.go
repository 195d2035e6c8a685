// team/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
)

// MemoryPlayerStore keeps players in process memory. Used for local runs and tests.
type MemoryPlayerStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.Player
	byName  map[string]string
	byToken map[string]string
}

func NewMemoryPlayerStore() *MemoryPlayerStore {
	return &MemoryPlayerStore{
		byID:    make(map[string]*models.Player),
		byName:  make(map[string]string),
		byToken: make(map[string]string),
	}
}

func (s *MemoryPlayerStore) FindByID(ctx context.Context, id string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryPlayerStore) FindByToken(ctx context.Context, token string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryPlayerStore) FindByName(ctx context.Context, name string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryPlayerStore) Save(ctx context.Context, player *models.Player) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUniqueLocked(player); err != nil {
		return nil, err
	}
	s.putLocked(player)
	return player.Clone(), nil
}

// SaveAll is all-or-nothing: uniqueness is checked for the whole batch before anything is written.
func (s *MemoryPlayerStore) SaveAll(ctx context.Context, players []*models.Player) ([]*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]string, len(players))
	tokens := make(map[string]string, len(players))
	for _, p := range players {
		if err := s.checkUniqueLocked(p); err != nil {
			return nil, err
		}
		if id, ok := names[p.Name]; ok && id != p.ID {
			return nil, ErrDuplicate
		}
		if id, ok := tokens[p.Token]; ok && id != p.ID {
			return nil, ErrDuplicate
		}
		names[p.Name] = p.ID
		tokens[p.Token] = p.ID
	}
	saved := make([]*models.Player, 0, len(players))
	for _, p := range players {
		s.putLocked(p)
		saved = append(saved, p.Clone())
	}
	return saved, nil
}

func (s *MemoryPlayerStore) checkUniqueLocked(p *models.Player) error {
	if id, ok := s.byName[p.Name]; ok && id != p.ID {
		return ErrDuplicate
	}
	if id, ok := s.byToken[p.Token]; ok && id != p.ID {
		return ErrDuplicate
	}
	return nil
}

func (s *MemoryPlayerStore) putLocked(p *models.Player) {
	if old, ok := s.byID[p.ID]; ok {
		delete(s.byName, old.Name)
		delete(s.byToken, old.Token)
	}
	s.byID[p.ID] = p.Clone()
	s.byName[p.Name] = p.ID
	s.byToken[p.Token] = p.ID
}

// MemoryTeamStore keeps teams in process memory.
type MemoryTeamStore struct {
	mu     sync.RWMutex
	byID   map[string]*models.Team
	byName map[string]string
}

func NewMemoryTeamStore() *MemoryTeamStore {
	return &MemoryTeamStore{
		byID:   make(map[string]*models.Team),
		byName: make(map[string]string),
	}
}

func (s *MemoryTeamStore) FindByID(ctx context.Context, id string) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryTeamStore) FindByName(ctx context.Context, name string) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// FindAll returns teams ordered by creation time, mirroring natural insertion order of the other backends.
func (s *MemoryTeamStore) FindAll(ctx context.Context) ([]*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := make([]*models.Team, 0, len(s.byID))
	for _, t := range s.byID {
		teams = append(teams, t.Clone())
	}
	sort.SliceStable(teams, func(i, j int) bool {
		a, b := teams[i], teams[j]
		if a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt) {
			return a.CreatedAt.Before(*b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return teams, nil
}

func (s *MemoryTeamStore) Save(ctx context.Context, team *models.Team) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byName[team.Name]; ok && id != team.ID {
		return nil, ErrDuplicate
	}
	if old, ok := s.byID[team.ID]; ok {
		delete(s.byName, old.Name)
	}
	stored := team.Clone()
	stored.MemberCount = len(stored.Members)
	s.byID[team.ID] = stored
	s.byName[team.Name] = team.ID
	return stored.Clone(), nil
}

func (s *MemoryTeamStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byName, t.Name)
	delete(s.byID, id)
	return nil
}
