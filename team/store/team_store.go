// team/store/team_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTeamStore represents the MongoDB data store for teams and their member lists.
type MongoTeamStore struct {
	collection *mongo.Collection
}

// NewMongoTeamStore creates a new MongoTeamStore instance.
func NewMongoTeamStore(collection *mongo.Collection) *MongoTeamStore {
	return &MongoTeamStore{
		collection: collection,
	}
}

// EnsureIndexes creates the unique name index and an index on member_count.
func (ts *MongoTeamStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_team_name")},
		{Keys: bson.D{{Key: "member_count", Value: 1}}, Options: options.Index().SetName("team_member_count")},
	}
	names, err := ts.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create team indexes: %w", err)
	}
	log.Printf("INFO: Ensured team indexes %v.", names)
	return nil
}

func (ts *MongoTeamStore) FindByID(ctx context.Context, id string) (*models.Team, error) {
	return ts.findOne(ctx, bson.M{"_id": id})
}

func (ts *MongoTeamStore) FindByName(ctx context.Context, name string) (*models.Team, error) {
	return ts.findOne(ctx, bson.M{"name": name})
}

func (ts *MongoTeamStore) findOne(ctx context.Context, filter bson.M) (*models.Team, error) {
	var team models.Team
	err := ts.collection.FindOne(ctx, filter).Decode(&team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	if team.Members == nil {
		team.Members = []string{}
	}
	return &team, nil
}

// FindAll retrieves all team documents in insertion order.
func (ts *MongoTeamStore) FindAll(ctx context.Context) ([]*models.Team, error) {
	var teams []*models.Team
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := ts.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find all teams: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode all teams: %w", err)
	}
	for _, t := range teams {
		if t.Members == nil {
			t.Members = []string{}
		}
	}
	return teams, nil
}

// Save upserts the team document, recomputing member_count from the member list.
func (ts *MongoTeamStore) Save(ctx context.Context, team *models.Team) (*models.Team, error) {
	now := time.Now()
	team.LastUpdated = &now
	team.MemberCount = len(team.Members)
	filter := bson.M{"_id": team.ID}
	_, err := ts.collection.ReplaceOne(ctx, filter, team, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("team %s: %w", team.Name, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to save team %s: %w", team.ID, err)
	}
	return team, nil
}

func (ts *MongoTeamStore) DeleteByID(ctx context.Context, id string) error {
	res, err := ts.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete team %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
