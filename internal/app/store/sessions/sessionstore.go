// internal/app/store/sessions/sessionstore.go
package sessionstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Layouts of StudySession.Date and StudySession.StartTime/EndTime.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrBadDate        = errors.New(`date must be formatted "YYYY-MM-DD"`)
	ErrBadTime        = errors.New(`start_time and end_time must be formatted "HH:MM"`)
	ErrEndBeforeStart = errors.New("end_time must be after start_time")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("study_sessions")}
}

// ValidateSchedule checks the date and clock formats and that end > start.
// Dates and times must be zero-padded so they sort lexically.
func ValidateSchedule(date, start, end string) error {
	if d, err := time.Parse(DateLayout, date); err != nil || d.Format(DateLayout) != date {
		return ErrBadDate
	}
	st, err := time.Parse(TimeLayout, start)
	if err != nil || st.Format(TimeLayout) != start {
		return ErrBadTime
	}
	et, err := time.Parse(TimeLayout, end)
	if err != nil || et.Format(TimeLayout) != end {
		return ErrBadTime
	}
	if !et.After(st) {
		return ErrEndBeforeStart
	}
	return nil
}

// Create inserts a session after validating its schedule.
func (s *Store) Create(ctx context.Context, ss models.StudySession) (models.StudySession, error) {
	ss.Date = strings.TrimSpace(ss.Date)
	ss.StartTime = strings.TrimSpace(ss.StartTime)
	ss.EndTime = strings.TrimSpace(ss.EndTime)
	if err := ValidateSchedule(ss.Date, ss.StartTime, ss.EndTime); err != nil {
		return models.StudySession{}, err
	}
	ss.ID = primitive.NewObjectID()
	ss.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, ss); err != nil {
		return models.StudySession{}, err
	}
	return ss, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.StudySession, error) {
	var ss models.StudySession
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ss); err != nil {
		return models.StudySession{}, err
	}
	return ss, nil
}

// ListByGroup returns a group's sessions in schedule order.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.StudySession, error) {
	return s.find(ctx, bson.M{"group_id": groupID}, scheduleOrder())
}

// ListByGroups returns the sessions of all given groups in schedule order.
func (s *Store) ListByGroups(ctx context.Context, groupIDs []primitive.ObjectID) ([]models.StudySession, error) {
	if len(groupIDs) == 0 {
		return []models.StudySession{}, nil
	}
	return s.find(ctx, bson.M{"group_id": bson.M{"$in": groupIDs}}, scheduleOrder())
}

// ListByIDs returns the sessions with the given ids. Unknown ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.StudySession, error) {
	if len(ids) == 0 {
		return []models.StudySession{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, scheduleOrder())
}

// ListRecentlyCreated returns up to limit sessions from the given groups,
// most recently created first.
func (s *Store) ListRecentlyCreated(ctx context.Context, groupIDs []primitive.ObjectID, limit int64) ([]models.StudySession, error) {
	if len(groupIDs) == 0 || limit <= 0 {
		return []models.StudySession{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	return s.find(ctx, bson.M{"group_id": bson.M{"$in": groupIDs}}, opts)
}

func scheduleOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "start_time", Value: 1},
		{Key: "_id", Value: 1},
	})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.StudySession, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.StudySession{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
