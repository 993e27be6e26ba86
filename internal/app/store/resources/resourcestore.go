// internal/app/store/resources/resourcestore.go
package resourcestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/studysync/internal/app/system/normalize"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrMissingName = errors.New("resource name is required")
	ErrBadURL      = errors.New("resource url must be a valid http(s) URL")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("resources")}
}

// Create inserts a new Resource. When Type is empty or unknown it is derived
// from the URL's file extension. A zero UploadedAt is set to now (epoch ms).
func (s *Store) Create(ctx context.Context, r models.Resource) (models.Resource, error) {
	r.Name = normalize.Name(r.Name)
	r.URL = strings.TrimSpace(r.URL)
	if r.Name == "" {
		return models.Resource{}, ErrMissingName
	}
	if !urlutil.IsValidAbsHTTPURL(r.URL) {
		return models.Resource{}, ErrBadURL
	}

	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	if !models.IsResourceType(r.Type) {
		r.Type = models.ResourceTypeFromURL(r.URL)
	}
	r.ID = primitive.NewObjectID()
	if r.UploadedAt == 0 {
		r.UploadedAt = time.Now().UnixMilli()
	}

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Resource{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Resource, error) {
	var r models.Resource
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Resource{}, err
	}
	return r, nil
}

// ListByGroup returns a group's resources in upload order.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Resource, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.Find(ctx, bson.M{"group_id": groupID}, opts)
}

// ListRecentByGroups returns up to limit resources across the given groups,
// most recent upload first.
func (s *Store) ListRecentByGroups(ctx context.Context, groupIDs []primitive.ObjectID, limit int64) ([]models.Resource, error) {
	if len(groupIDs) == 0 || limit <= 0 {
		return []models.Resource{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	return s.Find(ctx, bson.M{"group_id": bson.M{"$in": groupIDs}}, opts)
}

// Find returns resources matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Resource, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	resources := []models.Resource{}
	if err := cur.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// Count returns the number of resources matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
