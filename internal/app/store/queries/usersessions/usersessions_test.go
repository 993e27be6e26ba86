package usersessions_test

import (
	"testing"

	"github.com/dalemusser/studysync/internal/app/store/queries/usersessions"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/studysync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func topics(ss []models.StudySession) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Topic
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestForUser_UnionDedupedInOrder(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Student", "s@example.com")
	other := fixtures.CreateUser(ctx, "Other", "o@example.com")
	g1 := fixtures.CreateGroup(ctx, "G1", "CS101", true, other.ID)
	g2 := fixtures.CreateGroup(ctx, "G2", "CS102", true, other.ID)
	g3 := fixtures.CreateGroup(ctx, "G3", "CS103", true, other.ID)

	// Membership order: g2 then g1.
	fixtures.CreateMembership(ctx, g2.ID, u.ID)
	fixtures.CreateMembership(ctx, g1.ID, u.ID)

	g1late := fixtures.CreateSession(ctx, g1.ID, other.ID, "2026-05-02", "10:00", "11:00", "g1-late")
	fixtures.CreateSession(ctx, g1.ID, other.ID, "2026-05-01", "10:00", "11:00", "g1-early")
	fixtures.CreateSession(ctx, g2.ID, other.ID, "2026-06-01", "10:00", "11:00", "g2")
	outside := fixtures.CreateSession(ctx, g3.ID, other.ID, "2026-04-01", "10:00", "11:00", "g3")

	// Attends one session of a member group (no duplicate), one outside, and
	// one that no longer exists.
	fixtures.CreateAttendance(ctx, g1late.ID, u.ID)
	fixtures.CreateAttendance(ctx, outside.ID, u.ID)
	fixtures.CreateAttendance(ctx, primitive.NewObjectID(), u.ID)

	got, err := usersessions.ForUser(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	want := []string{"g2", "g1-early", "g1-late", "g3"}
	if !sameStrings(topics(got), want) {
		t.Errorf("got %v, want %v", topics(got), want)
	}
}

func TestForUser_AttendanceOnly(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Student", "s@example.com")
	g := fixtures.CreateGroup(ctx, "G", "CS101", true, primitive.NewObjectID())
	s := fixtures.CreateSession(ctx, g.ID, primitive.NewObjectID(), "2026-05-01", "10:00", "11:00", "only")
	fixtures.CreateAttendance(ctx, s.ID, u.ID)

	got, err := usersessions.ForUser(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(got) != 1 || got[0].ID != s.ID {
		t.Errorf("got %v", topics(got))
	}
}

func TestForUser_NothingIsEmpty(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := usersessions.ForUser(ctx, db, primitive.NewObjectID())
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("ForUser(nobody) = %v, %v", got, err)
	}
}

func TestUpcoming(t *testing.T) {
	mk := func(topic, date, start string) models.StudySession {
		return models.StudySession{ID: primitive.NewObjectID(), Topic: topic, Date: date, StartTime: start}
	}
	in := []models.StudySession{
		mk("past", "2026-03-13", "09:00"),
		mk("later", "2026-03-20", "09:00"),
		mk("today-pm", "2026-03-14", "15:00"),
		mk("today-am", "2026-03-14", "08:00"),
		mk("tomorrow", "2026-03-15", "12:00"),
	}

	got := usersessions.Upcoming(in, "2026-03-14", 3)
	if want := []string{"today-am", "today-pm", "tomorrow"}; !sameStrings(topics(got), want) {
		t.Errorf("got %v, want %v", topics(got), want)
	}

	all := usersessions.Upcoming(in, "2026-03-14", 10)
	if len(all) != 4 {
		t.Errorf("len = %d, want 4", len(all))
	}
	if n := usersessions.Upcoming(in, "2026-03-14", 0); n == nil || len(n) != 0 {
		t.Errorf("n=0 = %v", n)
	}
	if in[0].Topic != "past" {
		t.Error("input slice was reordered")
	}
}

func TestUpcomingForUser(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Student", "s@example.com")
	g := fixtures.CreateGroup(ctx, "G", "CS101", true, u.ID)
	fixtures.CreateMembership(ctx, g.ID, u.ID)
	fixtures.CreateSession(ctx, g.ID, u.ID, "2020-01-01", "10:00", "11:00", "old")
	fixtures.CreateSession(ctx, g.ID, u.ID, "2099-01-01", "10:00", "11:00", "future")

	got, err := usersessions.UpcomingForUser(ctx, db, u.ID, "2026-01-01", 5)
	if err != nil {
		t.Fatalf("UpcomingForUser: %v", err)
	}
	if !sameStrings(topics(got), []string{"future"}) {
		t.Errorf("got %v", topics(got))
	}
}
