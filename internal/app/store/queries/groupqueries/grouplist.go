// Package groupqueries provides read-only group listings with computed counts.
package groupqueries

import (
	"context"

	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GroupListItem is a group plus its current member count.
type GroupListItem struct {
	models.Group `bson:",inline"`
	MemberCount  int `bson:"member_count" json:"member_count"`
}

// ListFilter selects groups for ListWithCounts. Zero value lists every group.
type ListFilter struct {
	PublicOnly bool
	CourseKey  string               // folded course key; "" = any course
	GroupIDs   []primitive.ObjectID // restrict to these groups when non-nil
}

// ListWithCounts returns the groups matching f in creation order, each with
// its member count, using a single aggregation.
func ListWithCounts(ctx context.Context, db *mongo.Database, f ListFilter) ([]GroupListItem, error) {
	if f.GroupIDs != nil && len(f.GroupIDs) == 0 {
		return []GroupListItem{}, nil
	}

	match := bson.M{}
	if f.PublicOnly {
		match["is_public"] = true
	}
	if f.CourseKey != "" {
		match["course_key"] = f.CourseKey
	}
	if f.GroupIDs != nil {
		match["_id"] = bson.M{"$in": f.GroupIDs}
	}

	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	pipe = append(pipe, memberCountStages()...)

	cur, err := db.Collection("groups").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []GroupListItem{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUser returns the groups userID belongs to in join order, each with
// its member count. Memberships whose group no longer exists are skipped.
func ListForUser(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]GroupListItem, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": userID}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "groups",
			"localField":   "group_id",
			"foreignField": "_id",
			"as":           "group",
		}}},
		// $unwind drops memberships whose group is gone.
		bson.D{{Key: "$unwind", Value: "$group"}},
		bson.D{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$group"}}},
	}
	pipe = append(pipe, memberCountStages()...)

	cur, err := db.Collection("group_memberships").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []GroupListItem{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// memberCountStages adds member_count to each group document in the pipeline.
func memberCountStages() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.M{
			"from": "group_memberships",
			"let":  bson.M{"gid": "$_id"},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$eq": []string{"$group_id", "$$gid"}}}},
				{"$count": "count"},
			},
			"as": "member_counts",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"member_count": bson.M{"$ifNull": []interface{}{
				bson.M{"$arrayElemAt": []interface{}{"$member_counts.count", 0}},
				0,
			}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"member_counts": 0}}},
	}
}

// Groups strips the counts from items.
func Groups(items []GroupListItem) []models.Group {
	out := make([]models.Group, len(items))
	for i, it := range items {
		out[i] = it.Group
	}
	return out
}
