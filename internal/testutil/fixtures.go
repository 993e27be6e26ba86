package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/studysync/internal/app/system/normalize"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert into %s: %v", coll, err)
	}
}

// CreateUser creates a user whose external id is "ext|"+email.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, courses ...string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	email = normalize.Email(email)
	user := models.User{
		ID:         primitive.NewObjectID(),
		ExternalID: "ext|" + email,
		Name:       name,
		NameCI:     text.Fold(name),
		Email:      email,
		University: "Test University",
		Major:      "Undeclared",
		Courses:    normalize.Courses(courses),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "users", user)
	return user
}

// CreateGroup creates a group owned by createdBy. The creator is not made a
// member; use CreateMembership for that.
func (f *Fixtures) CreateGroup(ctx context.Context, name, course string, public bool, createdBy primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Course:      course,
		CourseKey:   normalize.CourseKey(course),
		Description: "Test group description",
		IsPublic:    public,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "groups", g)
	return g
}

// CreateMembership links a user to a group.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, userID primitive.ObjectID) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "group_memberships", m)
	return m
}

// CreateSession schedules a session in a group.
func (f *Fixtures) CreateSession(ctx context.Context, groupID, createdBy primitive.ObjectID, date, start, end, topic string) models.StudySession {
	f.t.Helper()

	s := models.StudySession{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Location:  "Library",
		Topic:     topic,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "study_sessions", s)
	return s
}

// CreateAttendance records that a user attends a session.
func (f *Fixtures) CreateAttendance(ctx context.Context, sessionID, userID primitive.ObjectID) models.SessionAttendance {
	f.t.Helper()

	a := models.SessionAttendance{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "session_attendees", a)
	return a
}

// CreateMessage posts a message at the given epoch-ms timestamp.
func (f *Fixtures) CreateMessage(ctx context.Context, groupID, userID primitive.ObjectID, content string, ts int64) models.Message {
	f.t.Helper()

	m := models.Message{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Content:   content,
		Timestamp: ts,
	}
	f.insert(ctx, "messages", m)
	return m
}

// CreateResource shares a link at the given epoch-ms time.
func (f *Fixtures) CreateResource(ctx context.Context, groupID, userID primitive.ObjectID, name, url string, uploadedAt int64) models.Resource {
	f.t.Helper()

	r := models.Resource{
		ID:         primitive.NewObjectID(),
		GroupID:    groupID,
		Name:       name,
		Type:       models.ResourceTypeFromURL(url),
		URL:        url,
		UploadedBy: userID,
		UploadedAt: uploadedAt,
	}
	f.insert(ctx, "resources", r)
	return r
}
