// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/studysync/internal/app/system/normalize"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	errMissingName   = errors.New("group name is required")
	errMissingCourse = errors.New("group course is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Exists reports whether a group with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts g with a fresh id. Name and course are trimmed; the folded
// course key is derived from Course.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	g.Name = normalize.Name(g.Name)
	g.Course = normalize.Name(g.Course)
	if g.Name == "" {
		return models.Group{}, errMissingName
	}
	if g.Course == "" {
		return models.Group{}, errMissingCourse
	}

	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.CourseKey = normalize.CourseKey(g.Course)
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// ListPublic returns every public group in creation order.
func (s *Store) ListPublic(ctx context.Context) ([]models.Group, error) {
	return s.find(ctx, bson.M{"is_public": true})
}

// ListPublicByCourseKey returns public groups for a folded course key in
// creation order.
func (s *Store) ListPublicByCourseKey(ctx context.Context, courseKey string) ([]models.Group, error) {
	return s.find(ctx, bson.M{"course_key": courseKey, "is_public": true})
}

// ListByIDs returns the groups with the given ids in creation order.
// Ids with no matching group are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return []models.Group{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	groups := []models.Group{}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ByID indexes groups by ObjectID.
func ByID(groups []models.Group) map[primitive.ObjectID]models.Group {
	m := make(map[primitive.ObjectID]models.Group, len(groups))
	for _, g := range groups {
		m[g.ID] = g
	}
	return m
}
