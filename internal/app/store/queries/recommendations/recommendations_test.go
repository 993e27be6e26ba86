package recommendations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/studysync/internal/app/store/queries/recommendations"
	"github.com/dalemusser/studysync/internal/domain/models"
	"github.com/dalemusser/studysync/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSource holds public groups in _id order.
type fakeSource struct {
	groups  []models.Group
	counts  map[primitive.ObjectID]int
	calls   []string
	failKey string
}

func (f *fakeSource) PublicByCourseKey(_ context.Context, key string) ([]models.Group, error) {
	f.calls = append(f.calls, key)
	if key == f.failKey {
		return nil, errors.New("boom")
	}
	var out []models.Group
	for _, g := range f.groups {
		if g.CourseKey == key {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeSource) Public(context.Context) ([]models.Group, error) {
	return append([]models.Group(nil), f.groups...), nil
}

func (f *fakeSource) MemberCounts(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	return f.counts, nil
}

func group(name, courseKey string) models.Group {
	return models.Group{ID: primitive.NewObjectID(), Name: name, CourseKey: courseKey, IsPublic: true}
}

func names(gs []models.Group) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Name
	}
	return out
}

func equal(a, b []string) bool {
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

func TestRank_CourseMatchesFirstThenPopularity(t *testing.T) {
	cs1 := group("cs-a", "CS101")
	cs2 := group("cs-b", "CS101")
	math := group("math", "MATH200")
	popular := group("popular", "BIO1")
	quiet := group("quiet", "ART1")

	src := &fakeSource{
		groups: []models.Group{cs1, cs2, math, popular, quiet},
		counts: map[primitive.ObjectID]int{popular.ID: 9, math.ID: 2, cs1.ID: 1},
	}
	got, err := recommendations.Rank(context.Background(), src, []string{"cs 101"}, nil, 4)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	want := []string{"cs-a", "cs-b", "popular", "math"}
	if !equal(names(got), want) {
		t.Errorf("got %v, want %v", names(got), want)
	}
}

func TestRank_NeverIncludesJoinedAndNeverExceedsLimit(t *testing.T) {
	var groups []models.Group
	for i := 0; i < 10; i++ {
		groups = append(groups, group(string(rune('a'+i)), "CS101"))
	}
	joined := map[primitive.ObjectID]bool{groups[0].ID: true, groups[3].ID: true}
	src := &fakeSource{groups: groups, counts: map[primitive.ObjectID]int{}}

	for limit := 0; limit <= 12; limit++ {
		got, err := recommendations.Rank(context.Background(), src, []string{"CS101"}, joined, limit)
		if err != nil {
			t.Fatalf("Rank(limit=%d): %v", limit, err)
		}
		if len(got) > limit {
			t.Errorf("limit %d: got %d groups", limit, len(got))
		}
		seen := map[primitive.ObjectID]bool{}
		for _, g := range got {
			if joined[g.ID] {
				t.Errorf("limit %d: recommended joined group %s", limit, g.Name)
			}
			if seen[g.ID] {
				t.Errorf("limit %d: duplicate %s", limit, g.Name)
			}
			seen[g.ID] = true
		}
	}
}

func TestRank_ZeroLimitIsEmpty(t *testing.T) {
	src := &fakeSource{groups: []models.Group{group("a", "X")}}
	got, err := recommendations.Rank(context.Background(), src, []string{"X"}, nil, 0)
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("Rank(0) = %v, %v", got, err)
	}
	if len(src.calls) != 0 {
		t.Errorf("source queried for limit 0: %v", src.calls)
	}
}

func TestRank_NoCoursesUsesPopularityStable(t *testing.T) {
	a, b, c, d := group("a", "X"), group("b", "X"), group("c", "Y"), group("d", "Z")
	src := &fakeSource{
		groups: []models.Group{a, b, c, d},
		counts: map[primitive.ObjectID]int{b.ID: 3, c.ID: 3, d.ID: 1},
	}
	got, err := recommendations.Rank(context.Background(), src, nil, nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"b", "c", "d"}; !equal(names(got), want) {
		t.Errorf("got %v, want %v", names(got), want)
	}
}

func TestRank_StopsScanningCoursesOnceFull(t *testing.T) {
	src := &fakeSource{
		groups: []models.Group{group("a1", "A"), group("a2", "A"), group("b1", "B")},
		counts: map[primitive.ObjectID]int{},
	}
	got, err := recommendations.Rank(context.Background(), src, []string{"A", "B", "C"}, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a1", "a2"}; !equal(names(got), want) {
		t.Errorf("got %v, want %v", names(got), want)
	}
	if !equal(src.calls, []string{"A"}) {
		t.Errorf("course lookups = %v, want [A]", src.calls)
	}
}

func TestRank_FullCourseIsScannedBeforeTruncating(t *testing.T) {
	src := &fakeSource{
		groups: []models.Group{group("a1", "A"), group("a2", "A"), group("a3", "A")},
	}
	got, err := recommendations.Rank(context.Background(), src, []string{"A"}, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a1", "a2"}; !equal(names(got), want) {
		t.Errorf("got %v, want %v", names(got), want)
	}
}

func TestRank_DuplicateCourseKeysScannedOnce(t *testing.T) {
	src := &fakeSource{groups: []models.Group{group("a", "CS101")}, counts: map[primitive.ObjectID]int{}}
	_, err := recommendations.Rank(context.Background(), src, []string{"CS101", "cs 101", " "}, nil, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(src.calls, []string{"CS101"}) {
		t.Errorf("calls = %v", src.calls)
	}
}

func TestRank_PropagatesSourceError(t *testing.T) {
	src := &fakeSource{failKey: "BAD"}
	if _, err := recommendations.Rank(context.Background(), src, []string{"bad"}, nil, 3); err == nil {
		t.Error("expected error")
	}
}

// CS101 scenario: a student taking CS101 who already joined one CS101 group
// is offered the other CS101 groups before anything else.
func TestForUser_CS101Scenario(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := fixtures.CreateUser(ctx, "Student", "student@example.com", "CS101")
	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")

	joined := fixtures.CreateGroup(ctx, "CS101 Joined", "CS101", true, owner.ID)
	csOpen := fixtures.CreateGroup(ctx, "CS101 Open", "cs101", true, owner.ID)
	fixtures.CreateGroup(ctx, "CS101 Private", "CS101", false, owner.ID)
	popular := fixtures.CreateGroup(ctx, "Popular Bio", "BIO100", true, owner.ID)
	other := fixtures.CreateGroup(ctx, "Other", "ART1", true, owner.ID)

	fixtures.CreateMembership(ctx, joined.ID, student.ID)
	for i := 0; i < 3; i++ {
		fixtures.CreateMembership(ctx, popular.ID, primitive.NewObjectID())
	}

	got, err := recommendations.ForUser(ctx, db, student.ID, 3)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	want := []string{csOpen.Name, popular.Name, other.Name}
	if !equal(names(got), want) {
		t.Errorf("got %v, want %v", names(got), want)
	}
}

func TestForUser_UnknownUserIsEmpty(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateGroup(ctx, "Public", "CS101", true, primitive.NewObjectID())
	got, err := recommendations.ForUser(ctx, db, primitive.NewObjectID(), 3)
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("ForUser(unknown) = %v, %v", got, err)
	}
}
