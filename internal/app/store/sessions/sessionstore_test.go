package sessionstore_test

import (
	"errors"
	"testing"

	sessionstore "github.com/dalemusser/studysync/internal/app/store/sessions"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/studysync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		date, start, end string
		want             error
	}{
		{"2026-03-14", "09:00", "10:30", nil},
		{"2026-03-14", "23:00", "23:59", nil},
		{"2026-3-14", "09:00", "10:00", sessionstore.ErrBadDate},
		{"2026-02-30", "09:00", "10:00", sessionstore.ErrBadDate},
		{"", "09:00", "10:00", sessionstore.ErrBadDate},
		{"2026-03-14", "9:00", "10:00", sessionstore.ErrBadTime},
		{"2026-03-14", "09:00", "24:00", sessionstore.ErrBadTime},
		{"2026-03-14", "09:00", "", sessionstore.ErrBadTime},
		{"2026-03-14", "10:00", "10:00", sessionstore.ErrEndBeforeStart},
		{"2026-03-14", "11:00", "10:00", sessionstore.ErrEndBeforeStart},
	}
	for _, tt := range tests {
		got := sessionstore.ValidateSchedule(tt.date, tt.start, tt.end)
		if !errors.Is(got, tt.want) {
			t.Errorf("ValidateSchedule(%q, %q, %q) = %v, want %v", tt.date, tt.start, tt.end, got, tt.want)
		}
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.StudySession{
		GroupID:   primitive.NewObjectID(),
		Date:      " 2026-03-14 ",
		StartTime: "09:00",
		EndTime:   "10:00",
		Location:  "Library",
		Topic:     "Limits",
		CreatedBy: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID.IsZero() || created.CreatedAt.IsZero() {
		t.Error("expected id and created_at to be set")
	}
	if created.Date != "2026-03-14" {
		t.Errorf("Date = %q", created.Date)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Topic != "Limits" || got.GroupID != created.GroupID {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("missing err = %v", err)
	}
}

func TestStore_Create_RejectsBadSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.StudySession{
		GroupID: primitive.NewObjectID(), Date: "2026-03-14", StartTime: "10:00", EndTime: "09:00",
	})
	if !errors.Is(err, sessionstore.ErrEndBeforeStart) {
		t.Errorf("err = %v, want ErrEndBeforeStart", err)
	}
}

func TestStore_ListByGroupScheduleOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, other, u := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	late := fixtures.CreateSession(ctx, g, u, "2026-03-15", "09:00", "10:00", "late")
	early := fixtures.CreateSession(ctx, g, u, "2026-03-14", "13:00", "14:00", "early")
	earliest := fixtures.CreateSession(ctx, g, u, "2026-03-14", "08:00", "09:00", "earliest")
	fixtures.CreateSession(ctx, other, u, "2026-03-01", "08:00", "09:00", "other")

	got, err := store.ListByGroup(ctx, g)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	want := []primitive.ObjectID{earliest.ID, early.ID, late.ID}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i].Topic, want[i].Hex())
		}
	}

	both, err := store.ListByGroups(ctx, []primitive.ObjectID{g, other})
	if err != nil || len(both) != 4 {
		t.Errorf("ListByGroups = %d, %v", len(both), err)
	}
	none, err := store.ListByGroups(ctx, nil)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("ListByGroups(nil) = %v, %v", none, err)
	}
}

func TestStore_ListByIDsSkipsUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := fixtures.CreateSession(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "2026-03-14", "09:00", "10:00", "x")
	got, err := store.ListByIDs(ctx, []primitive.ObjectID{primitive.NewObjectID(), s.ID})
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(got) != 1 || got[0].ID != s.ID {
		t.Errorf("got %v", got)
	}
}

func TestStore_ListRecentlyCreated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sessionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, u := primitive.NewObjectID(), primitive.NewObjectID()
	first := fixtures.CreateSession(ctx, g, u, "2026-03-20", "09:00", "10:00", "first")
	second := fixtures.CreateSession(ctx, g, u, "2026-03-10", "09:00", "10:00", "second")
	third := fixtures.CreateSession(ctx, g, u, "2026-03-30", "09:00", "10:00", "third")

	got, err := store.ListRecentlyCreated(ctx, []primitive.ObjectID{g}, 2)
	if err != nil {
		t.Fatalf("ListRecentlyCreated: %v", err)
	}
	if len(got) != 2 || got[0].ID != third.ID || got[1].ID != second.ID {
		t.Errorf("got %v (first=%s)", got, first.ID.Hex())
	}
}
