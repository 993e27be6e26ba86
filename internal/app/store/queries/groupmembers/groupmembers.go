package groupmembers

import (
	"context"
	"time"

	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type GroupMember struct {
	User     models.User `bson:"user" json:"user"`
	JoinedAt time.Time   `bson:"joined_at" json:"joined_at"`
}

// ListGroupMembers returns the members of a group ordered by name.
// Memberships whose user no longer exists are skipped.
func ListGroupMembers(ctx context.Context, db *mongo.Database, groupID primitive.ObjectID) ([]GroupMember, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"group_id": groupID}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: "$user"}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "user.name_ci", Value: 1},
			{Key: "user._id", Value: 1},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"user": 1, "joined_at": "$created_at"}}},
	}

	cur, err := db.Collection("group_memberships").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []GroupMember{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MemberIDs returns the user ids of members in the order given.
func MemberIDs(members []GroupMember) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(members))
	for i, m := range members {
		ids[i] = m.User.ID
	}
	return ids
}
