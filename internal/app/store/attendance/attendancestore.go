// internal/app/store/attendance/attendancestore.go
package attendancestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/studysync/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateAttendance = errors.New("user is already attending this session")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("session_attendees")}
}

// Add records that userID attends sessionID. A repeat returns
// ErrDuplicateAttendance and leaves the single existing row.
func (s *Store) Add(ctx context.Context, sessionID, userID primitive.ObjectID) error {
	doc := models.SessionAttendance{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateAttendance
		}
		return err
	}
	return nil
}

// Exists reports whether userID attends sessionID.
func (s *Store) Exists(ctx context.Context, sessionID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"session_id": sessionID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns the user's attendance rows in the order they were recorded.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.SessionAttendance, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

// ListBySession returns a session's attendance rows in the order they were recorded.
func (s *Store) ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]models.SessionAttendance, error) {
	return s.find(ctx, bson.M{"session_id": sessionID})
}

// CountBySession returns the number of attendees of a session.
func (s *Store) CountBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"session_id": sessionID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.SessionAttendance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.SessionAttendance{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
