// team/store/player_store.go
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

// MongoPlayerStore represents the MongoDB data store for player profiles.
type MongoPlayerStore struct {
	collection *mongo.Collection
}

// NewMongoPlayerStore creates a new MongoPlayerStore instance.
func NewMongoPlayerStore(collection *mongo.Collection) *MongoPlayerStore {
	return &MongoPlayerStore{
		collection: collection,
	}
}

// EnsureIndexes creates the unique indexes that back name and token uniqueness.
func (ps *MongoPlayerStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_player_name")},
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_player_token")},
		{Keys: bson.D{{Key: "team_id", Value: 1}}, Options: options.Index().SetName("player_team")},
	}
	names, err := ps.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create player indexes: %w", err)
	}
	log.Printf("INFO: Ensured player indexes %v.", names)
	return nil
}

func (ps *MongoPlayerStore) FindByID(ctx context.Context, id string) (*models.Player, error) {
	return ps.findOne(ctx, bson.M{"_id": id})
}

func (ps *MongoPlayerStore) FindByToken(ctx context.Context, token string) (*models.Player, error) {
	return ps.findOne(ctx, bson.M{"token": token})
}

func (ps *MongoPlayerStore) FindByName(ctx context.Context, name string) (*models.Player, error) {
	return ps.findOne(ctx, bson.M{"name": name})
}

func (ps *MongoPlayerStore) findOne(ctx context.Context, filter bson.M) (*models.Player, error) {
	var player models.Player
	err := ps.collection.FindOne(ctx, filter).Decode(&player)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find player: %w", err)
	}
	return &player, nil
}

// Save upserts the full player document.
func (ps *MongoPlayerStore) Save(ctx context.Context, player *models.Player) (*models.Player, error) {
	now := time.Now()
	player.LastUpdated = &now
	filter := bson.M{"_id": player.ID}
	_, err := ps.collection.ReplaceOne(ctx, filter, player, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("player %s: %w", player.Name, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to save player %s: %w", player.ID, err)
	}
	return player, nil
}

// SaveAll upserts all players in one ordered bulk write.
func (ps *MongoPlayerStore) SaveAll(ctx context.Context, players []*models.Player) ([]*models.Player, error) {
	if len(players) == 0 {
		return players, nil
	}
	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(players))
	for _, p := range players {
		p.LastUpdated = &now
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetReplacement(p).
			SetUpsert(true))
	}
	res, err := ps.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("bulk player save: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to save %d players: %w", len(players), err)
	}
	log.Printf("INFO: Bulk saved players (upserted %d, modified %d).", res.UpsertedCount, res.ModifiedCount)
	return players, nil
}
