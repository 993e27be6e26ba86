package userstore

import (
	"context"

	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListByIDs loads the users with the given ids, ordered by name.
// Ids with no matching user are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		sortByName())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ByID indexes users by ObjectID.
func ByID(users []models.User) map[primitive.ObjectID]models.User {
	m := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return m
}
