package messagestore_test

import (
	"testing"

	messagestore "github.com/dalemusser/studysync/internal/app/store/messages"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/studysync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateSetsTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Message{
		GroupID: primitive.NewObjectID(),
		UserID:  primitive.NewObjectID(),
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.ID.IsZero() || m.Timestamp == 0 {
		t.Errorf("expected id and timestamp, got %+v", m)
	}
}

func TestStore_ListRecent_NewestFirstAndBounded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, other, u := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	fixtures.CreateMessage(ctx, g, u, "one", 1000)
	fixtures.CreateMessage(ctx, g, u, "three", 3000)
	fixtures.CreateMessage(ctx, g, u, "two", 2000)
	fixtures.CreateMessage(ctx, other, u, "elsewhere", 9000)

	got, err := store.ListRecent(ctx, g, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 || got[0].Content != "three" || got[1].Content != "two" {
		t.Errorf("got %v", got)
	}

	empty, err := store.ListRecent(ctx, primitive.NewObjectID(), 10)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("ListRecent(empty group) = %v, %v", empty, err)
	}

	n, _ := store.CountByGroup(ctx, g)
	if n != 3 {
		t.Errorf("CountByGroup = %d", n)
	}
}

func TestStore_ListRecentByGroups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g1, g2, g3, u := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	fixtures.CreateMessage(ctx, g1, u, "a", 100)
	fixtures.CreateMessage(ctx, g2, u, "b", 300)
	fixtures.CreateMessage(ctx, g3, u, "c", 500)

	got, err := store.ListRecentByGroups(ctx, []primitive.ObjectID{g1, g2}, 10)
	if err != nil {
		t.Fatalf("ListRecentByGroups: %v", err)
	}
	if len(got) != 2 || got[0].Content != "b" || got[1].Content != "a" {
		t.Errorf("got %v", got)
	}
}
