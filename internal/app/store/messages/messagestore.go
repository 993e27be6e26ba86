// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"time"

	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// Create appends a message. A zero Timestamp is set to now (epoch ms).
func (s *Store) Create(ctx context.Context, m models.Message) (models.Message, error) {
	m.ID = primitive.NewObjectID()
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// ListRecent returns up to limit messages of a group, newest first.
func (s *Store) ListRecent(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.Message, error) {
	return s.recent(ctx, bson.M{"group_id": groupID}, limit)
}

// ListRecentByGroups returns up to limit messages across the given groups,
// newest first.
func (s *Store) ListRecentByGroups(ctx context.Context, groupIDs []primitive.ObjectID, limit int64) ([]models.Message, error) {
	if len(groupIDs) == 0 {
		return []models.Message{}, nil
	}
	return s.recent(ctx, bson.M{"group_id": bson.M{"$in": groupIDs}}, limit)
}

// CountByGroup returns the number of messages in a group.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}

func (s *Store) recent(ctx context.Context, filter bson.M, limit int64) ([]models.Message, error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
