package userstore_test

import (
	"errors"
	"sync"
	"testing"

	userstore "github.com/dalemusser/studysync/internal/app/store/users"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/studysync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newUser(ext, name, email string) models.User {
	return models.User{ExternalID: ext, Name: name, Email: email}
}

func TestStore_Create_Normalizes(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		ExternalID: "  auth|1 ",
		Name:       "  Ada Lovelace ",
		Email:      " Ada@Example.COM ",
		Courses:    []string{" CS101", "", "cs101", "MATH 200"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.ExternalID != "auth|1" {
		t.Errorf("ExternalID = %q", created.ExternalID)
	}
	if created.Name != "Ada Lovelace" || created.NameCI == "" {
		t.Errorf("Name = %q, NameCI = %q", created.Name, created.NameCI)
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email = %q", created.Email)
	}
	if len(created.Courses) != 2 || created.Courses[0] != "CS101" || created.Courses[1] != "MATH 200" {
		t.Errorf("Courses = %v", created.Courses)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_DefaultsCoursesToEmpty(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newUser("auth|1", "No Courses", "nc@example.com"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var raw bson.M
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": created.ID}).Decode(&raw); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	courses, ok := raw["courses"].(bson.A)
	if !ok {
		t.Fatalf("courses stored as %T, want array", raw["courses"])
	}
	if len(courses) != 0 {
		t.Errorf("courses = %v, want empty", courses)
	}
}

func TestStore_Create_RequiresFields(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, u := range []models.User{
		newUser("", "Name", "a@example.com"),
		newUser("auth|1", " ", "a@example.com"),
		newUser("auth|1", "Name", ""),
	} {
		if _, err := store.Create(ctx, u); err == nil {
			t.Errorf("Create(%+v) succeeded, want error", u)
		}
	}
}

func TestStore_Create_DuplicateSentinels(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, newUser("auth|1", "One", "one@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := store.Create(ctx, newUser("auth|2", "Two", "ONE@example.com"))
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("duplicate email: got %v, want ErrDuplicateEmail", err)
	}
	_, err = store.Create(ctx, newUser("auth|1", "Three", "three@example.com"))
	if !errors.Is(err, userstore.ErrDuplicateExternalID) {
		t.Errorf("duplicate external id: got %v, want ErrDuplicateExternalID", err)
	}
}

func TestStore_Lookups(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Grace Hopper", "grace@example.com")

	got, err := store.GetByID(ctx, u.ID)
	if err != nil || got.Email != u.Email {
		t.Errorf("GetByID = %+v, %v", got, err)
	}
	got, err = store.GetByExternalID(ctx, u.ExternalID)
	if err != nil || got.ID != u.ID {
		t.Errorf("GetByExternalID = %+v, %v", got, err)
	}
	got, err = store.GetByEmail(ctx, "  GRACE@example.com")
	if err != nil || got.ID != u.ID {
		t.Errorf("GetByEmail = %+v, %v", got, err)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID(missing) err = %v, want ErrNoDocuments", err)
	}
	if _, err := store.GetByExternalID(ctx, "nobody"); err != mongo.ErrNoDocuments {
		t.Errorf("GetByExternalID(missing) err = %v, want ErrNoDocuments", err)
	}
}

func TestStore_ListAndListByIDs(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	empty, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List (empty): %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List on empty collection = %v, want empty non-nil", empty)
	}

	zed := fixtures.CreateUser(ctx, "Zed", "zed@example.com")
	amy := fixtures.CreateUser(ctx, "amy", "amy@example.com")
	bob := fixtures.CreateUser(ctx, "Bob", "bob@example.com")

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != amy.ID || all[1].ID != bob.ID || all[2].ID != zed.ID {
		t.Errorf("List order wrong: %v", all)
	}

	some, err := store.ListByIDs(ctx, []primitive.ObjectID{zed.ID, primitive.NewObjectID(), amy.ID})
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(some) != 2 {
		t.Fatalf("ListByIDs returned %d users, want 2", len(some))
	}
	byID := userstore.ByID(some)
	if _, ok := byID[bob.ID]; ok {
		t.Error("ListByIDs returned a user that was not requested")
	}

	none, err := store.ListByIDs(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("ListByIDs(nil) = %v, %v", none, err)
	}
}

func TestStore_Onboard_Idempotent(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, created, err := store.Onboard(ctx, newUser("auth|1", "First", "first@example.com"))
	if err != nil || !created {
		t.Fatalf("first Onboard = %v, created=%v", err, created)
	}
	again, created, err := store.Onboard(ctx, newUser("auth|1", "Renamed", "other@example.com"))
	if err != nil {
		t.Fatalf("second Onboard: %v", err)
	}
	if created {
		t.Error("second Onboard should not create")
	}
	if again.ID != first.ID || again.Name != "First" {
		t.Errorf("second Onboard returned %+v, want original", again)
	}

	n, _ := db.Collection("users").CountDocuments(ctx, bson.M{})
	if n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestStore_Onboard_EmailTakenByAnotherIdentity(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := store.Onboard(ctx, newUser("auth|1", "One", "shared@example.com")); err != nil {
		t.Fatalf("Onboard: %v", err)
	}
	_, _, err := store.Onboard(ctx, newUser("auth|2", "Two", "shared@example.com"))
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_Onboard_Concurrent(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	const n = 8
	ids := make([]primitive.ObjectID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, _, err := store.Onboard(ctx, newUser("auth|race", "Racer", "race@example.com"))
			ids[i], errs[i] = u.ID, err
		}(i)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("Onboard[%d]: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("Onboard[%d] id %s != %s", i, ids[i].Hex(), ids[0].Hex())
		}
	}
	count, _ := db.Collection("users").CountDocuments(ctx, bson.M{"external_id": "auth|race"})
	if count != 1 {
		t.Errorf("users = %d, want 1", count)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Old Name", "p@example.com", "CS101")

	name := "  New Name "
	major := "Physics"
	got, err := store.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
		Name:    &name,
		Major:   &major,
		Courses: []string{"PHYS 1", "phys 1"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Name != "New Name" || got.Major != "Physics" {
		t.Errorf("got %+v", got)
	}
	if got.University != u.University {
		t.Errorf("University changed to %q", got.University)
	}
	if len(got.Courses) != 1 || got.Courses[0] != "PHYS 1" {
		t.Errorf("Courses = %v", got.Courses)
	}
	if !got.UpdatedAt.After(u.UpdatedAt) && !got.UpdatedAt.Equal(u.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}

	got, err = store.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{Courses: []string{}})
	if err != nil {
		t.Fatalf("clear courses: %v", err)
	}
	if got.Courses == nil || len(got.Courses) != 0 {
		t.Errorf("Courses after clear = %v", got.Courses)
	}

	blank := " "
	if _, err := store.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{Name: &blank}); err == nil {
		t.Error("blank name accepted")
	}
	if _, err := store.UpdateProfile(ctx, primitive.NewObjectID(), userstore.ProfileUpdate{Major: &major}); err != mongo.ErrNoDocuments {
		t.Errorf("missing user err = %v, want ErrNoDocuments", err)
	}
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	if !(userstore.ProfileUpdate{}).IsEmpty() {
		t.Error("zero update should be empty")
	}
	if (userstore.ProfileUpdate{Courses: []string{}}).IsEmpty() {
		t.Error("empty courses slice is a change")
	}
}
