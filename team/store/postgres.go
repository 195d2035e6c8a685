// team/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type playerRow struct {
	ID        string  `gorm:"primaryKey;size:36"`
	Name      string  `gorm:"not null;uniqueIndex;size:100"`
	Level     int64   `gorm:"not null;default:1"`
	Coins     int64   `gorm:"not null;default:5000"`
	Token     string  `gorm:"not null;uniqueIndex;size:128"`
	TeamID    *string `gorm:"index;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (playerRow) TableName() string {
	return "players"
}

type teamRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"not null;uniqueIndex;size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (teamRow) TableName() string {
	return "teams"
}

// teamMemberRow is the authoritative membership list; Position keeps join order.
type teamMemberRow struct {
	TeamID   string `gorm:"primaryKey;size:36"`
	PlayerID string `gorm:"primaryKey;size:36;uniqueIndex"`
	Position int    `gorm:"not null"`
}

func (teamMemberRow) TableName() string {
	return "team_members"
}

// OpenPostgres connects to PostgreSQL and migrates the player and team tables.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&playerRow{}, &teamRow{}, &teamMemberRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate PostgreSQL schema: %w", err)
	}
	log.Println("Successfully connected to PostgreSQL!")
	return db, nil
}

func translateGormErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func toPlayerRow(p *models.Player) playerRow {
	row := playerRow{ID: p.ID, Name: p.Name, Level: p.Level, Coins: p.Coins, Token: p.Token}
	if p.TeamID != "" {
		id := p.TeamID
		row.TeamID = &id
	}
	if p.CreatedAt != nil {
		row.CreatedAt = *p.CreatedAt
	}
	return row
}

func (r playerRow) toModel() *models.Player {
	p := &models.Player{ID: r.ID, Name: r.Name, Level: r.Level, Coins: r.Coins, Token: r.Token}
	if r.TeamID != nil {
		p.TeamID = *r.TeamID
	}
	created, updated := r.CreatedAt, r.UpdatedAt
	p.CreatedAt = &created
	p.LastUpdated = &updated
	return p
}

// PostgresPlayerStore is the gorm-backed identity store.
type PostgresPlayerStore struct {
	db *gorm.DB
}

func NewPostgresPlayerStore(db *gorm.DB) *PostgresPlayerStore {
	return &PostgresPlayerStore{db: db}
}

func (s *PostgresPlayerStore) find(ctx context.Context, column, value string) (*models.Player, error) {
	var row playerRow
	if err := s.db.WithContext(ctx).Where(column+" = ?", value).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find player by %s: %w", column, err)
	}
	return row.toModel(), nil
}

func (s *PostgresPlayerStore) FindByID(ctx context.Context, id string) (*models.Player, error) {
	return s.find(ctx, "id", id)
}

func (s *PostgresPlayerStore) FindByToken(ctx context.Context, token string) (*models.Player, error) {
	return s.find(ctx, "token", token)
}

func (s *PostgresPlayerStore) FindByName(ctx context.Context, name string) (*models.Player, error) {
	return s.find(ctx, "name", name)
}

func (s *PostgresPlayerStore) Save(ctx context.Context, player *models.Player) (*models.Player, error) {
	saved, err := s.SaveAll(ctx, []*models.Player{player})
	if err != nil {
		return nil, err
	}
	return saved[0], nil
}

func (s *PostgresPlayerStore) SaveAll(ctx context.Context, players []*models.Player) ([]*models.Player, error) {
	if len(players) == 0 {
		return players, nil
	}
	rows := make([]playerRow, 0, len(players))
	for _, p := range players {
		rows = append(rows, toPlayerRow(p))
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"level", "coins", "team_id", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save %d players: %w", len(players), translateGormErr(err))
	}
	saved := make([]*models.Player, 0, len(rows))
	for _, r := range rows {
		saved = append(saved, r.toModel())
	}
	return saved, nil
}

// PostgresTeamStore is the gorm-backed team store. A team and its member rows are written in one transaction.
type PostgresTeamStore struct {
	db *gorm.DB
}

func NewPostgresTeamStore(db *gorm.DB) *PostgresTeamStore {
	return &PostgresTeamStore{db: db}
}

func (s *PostgresTeamStore) FindByID(ctx context.Context, id string) (*models.Team, error) {
	return s.findOne(ctx, "id", id)
}

func (s *PostgresTeamStore) FindByName(ctx context.Context, name string) (*models.Team, error) {
	return s.findOne(ctx, "name", name)
}

func (s *PostgresTeamStore) findOne(ctx context.Context, column, value string) (*models.Team, error) {
	var row teamRow
	if err := s.db.WithContext(ctx).Where(column+" = ?", value).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find team by %s: %w", column, err)
	}
	teams, err := s.attachMembers(ctx, []teamRow{row})
	if err != nil {
		return nil, err
	}
	return teams[0], nil
}

func (s *PostgresTeamStore) FindAll(ctx context.Context) ([]*models.Team, error) {
	var rows []teamRow
	if err := s.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find all teams: %w", err)
	}
	return s.attachMembers(ctx, rows)
}

func (s *PostgresTeamStore) attachMembers(ctx context.Context, rows []teamRow) ([]*models.Team, error) {
	teams := make([]*models.Team, 0, len(rows))
	if len(rows) == 0 {
		return teams, nil
	}
	ids := make([]string, 0, len(rows))
	byID := make(map[string]*models.Team, len(rows))
	for _, r := range rows {
		created, updated := r.CreatedAt, r.UpdatedAt
		t := &models.Team{ID: r.ID, Name: r.Name, Members: []string{}, CreatedAt: &created, LastUpdated: &updated}
		teams = append(teams, t)
		byID[r.ID] = t
		ids = append(ids, r.ID)
	}

	var members []teamMemberRow
	err := s.db.WithContext(ctx).Where("team_id IN ?", ids).Order("team_id, position").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	for _, m := range members {
		t := byID[m.TeamID]
		t.Members = append(t.Members, m.PlayerID)
	}
	for _, t := range teams {
		t.MemberCount = len(t.Members)
	}
	return teams, nil
}

func (s *PostgresTeamStore) Save(ctx context.Context, team *models.Team) (*models.Team, error) {
	row := teamRow{ID: team.ID, Name: team.Name}
	if team.CreatedAt != nil {
		row.CreatedAt = *team.CreatedAt
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", team.ID).Delete(&teamMemberRow{}).Error; err != nil {
			return err
		}
		if len(team.Members) == 0 {
			return nil
		}
		members := make([]teamMemberRow, 0, len(team.Members))
		for i, playerID := range team.Members {
			members = append(members, teamMemberRow{TeamID: team.ID, PlayerID: playerID, Position: i})
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save team %s: %w", team.ID, translateGormErr(err))
	}
	saved := team.Clone()
	saved.MemberCount = len(saved.Members)
	updated := row.UpdatedAt
	saved.LastUpdated = &updated
	return saved, nil
}

func (s *PostgresTeamStore) DeleteByID(ctx context.Context, id string) error {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&teamMemberRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&teamRow{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete team %s: %w", id, err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}
