// Package recommendations ranks public groups a user has not joined.
//
// Groups sharing one of the user's courses come first, in the user's course
// order. Remaining slots are filled with the most popular public groups.
package recommendations

import (
	"context"
	"sort"

	groupstore "github.com/dalemusser/studysync/internal/app/store/groups"
	membershipstore "github.com/dalemusser/studysync/internal/app/store/memberships"
	userstore "github.com/dalemusser/studysync/internal/app/store/users"
	"github.com/dalemusser/studysync/internal/app/system/normalize"
	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Source is the data the ranking reads.
type Source interface {
	// PublicByCourseKey returns public groups for a folded course key, by _id.
	PublicByCourseKey(ctx context.Context, courseKey string) ([]models.Group, error)
	// Public returns every public group, by _id.
	Public(ctx context.Context) ([]models.Group, error)
	// MemberCounts returns member counts per group; missing means zero.
	MemberCounts(ctx context.Context, groupIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error)
}

// Rank returns up to limit public groups not in joined. limit <= 0 yields
// an empty result.
func Rank(ctx context.Context, src Source, courses []string, joined map[primitive.ObjectID]bool, limit int) ([]models.Group, error) {
	out := []models.Group{}
	if limit <= 0 {
		return out, nil
	}
	seen := make(map[primitive.ObjectID]bool)
	take := func(g models.Group) {
		if joined[g.ID] || seen[g.ID] {
			return
		}
		seen[g.ID] = true
		out = append(out, g)
	}

	// Course matches, one full course at a time.
	scanned := make(map[string]bool)
	for _, c := range courses {
		if len(out) >= limit {
			break
		}
		key := normalize.CourseKey(c)
		if key == "" || scanned[key] {
			continue
		}
		scanned[key] = true

		groups, err := src.PublicByCourseKey(ctx, key)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			take(g)
		}
	}

	// Popularity fallback.
	if len(out) < limit {
		public, err := src.Public(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]primitive.ObjectID, len(public))
		for i, g := range public {
			ids[i] = g.ID
		}
		counts, err := src.MemberCounts(ctx, ids)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(public, func(i, j int) bool {
			return counts[public[i].ID] > counts[public[j].ID]
		})
		for _, g := range public {
			take(g)
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// StoreSource reads groups and membership counts from MongoDB.
type StoreSource struct {
	Groups      *groupstore.Store
	Memberships *membershipstore.Store
}

// NewStoreSource builds a Source over db.
func NewStoreSource(db *mongo.Database) StoreSource {
	return StoreSource{Groups: groupstore.New(db), Memberships: membershipstore.New(db)}
}

func (s StoreSource) PublicByCourseKey(ctx context.Context, courseKey string) ([]models.Group, error) {
	return s.Groups.ListPublicByCourseKey(ctx, courseKey)
}

func (s StoreSource) Public(ctx context.Context) ([]models.Group, error) {
	return s.Groups.ListPublic(ctx)
}

func (s StoreSource) MemberCounts(ctx context.Context, groupIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	if len(groupIDs) == 0 {
		return map[primitive.ObjectID]int{}, nil
	}
	return s.Memberships.CountPerGroup(ctx, groupIDs)
}

// ForUser loads the user's courses and memberships and ranks groups for them.
// An unknown user yields an empty result.
func ForUser(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, limit int) ([]models.Group, error) {
	if limit <= 0 {
		return []models.Group{}, nil
	}
	u, err := userstore.New(db).GetByID(ctx, userID)
	if err == mongo.ErrNoDocuments {
		return []models.Group{}, nil
	}
	if err != nil {
		return nil, err
	}

	src := NewStoreSource(db)
	groupIDs, err := src.Memberships.GroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined := make(map[primitive.ObjectID]bool, len(groupIDs))
	for _, id := range groupIDs {
		joined[id] = true
	}
	return Rank(ctx, src, u.Courses, joined, limit)
}
