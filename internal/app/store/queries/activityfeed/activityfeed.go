// Package activityfeed merges recent messages, shared resources and newly
// scheduled sessions across a set of groups into one timeline.
package activityfeed

import (
	"context"
	"sort"
	"time"

	groupstore "github.com/dalemusser/studysync/internal/app/store/groups"
	messagestore "github.com/dalemusser/studysync/internal/app/store/messages"
	resourcestore "github.com/dalemusser/studysync/internal/app/store/resources"
	sessionstore "github.com/dalemusser/studysync/internal/app/store/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Item kinds.
const (
	KindMessage  = "message"
	KindResource = "resource"
	KindSession  = "session"
)

// Item is one timeline entry.
type Item struct {
	Kind      string             `json:"kind"`
	At        time.Time          `json:"at"`
	GroupID   primitive.ObjectID `json:"group_id"`
	GroupName string             `json:"group_name"`
	ActorID   primitive.ObjectID `json:"actor_id"`
	EntityID  primitive.ObjectID `json:"entity_id"`
	Summary   string             `json:"summary"`
}

// Recent returns the n newest items across groupIDs, newest first.
// Each source contributes at most n items before merging.
func Recent(ctx context.Context, db *mongo.Database, groupIDs []primitive.ObjectID, n int) ([]Item, error) {
	out := []Item{}
	if n <= 0 || len(groupIDs) == 0 {
		return out, nil
	}
	limit := int64(n)

	msgs, err := messagestore.New(db).ListRecentByGroups(ctx, groupIDs, limit)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out = append(out, Item{
			Kind:     KindMessage,
			At:       time.UnixMilli(m.Timestamp).UTC(),
			GroupID:  m.GroupID,
			ActorID:  m.UserID,
			EntityID: m.ID,
			Summary:  m.Content,
		})
	}

	res, err := resourcestore.New(db).ListRecentByGroups(ctx, groupIDs, limit)
	if err != nil {
		return nil, err
	}
	for _, r := range res {
		out = append(out, Item{
			Kind:     KindResource,
			At:       time.UnixMilli(r.UploadedAt).UTC(),
			GroupID:  r.GroupID,
			ActorID:  r.UploadedBy,
			EntityID: r.ID,
			Summary:  r.Name,
		})
	}

	sess, err := sessionstore.New(db).ListRecentlyCreated(ctx, groupIDs, limit)
	if err != nil {
		return nil, err
	}
	for _, s := range sess {
		out = append(out, Item{
			Kind:     KindSession,
			At:       s.CreatedAt.UTC(),
			GroupID:  s.GroupID,
			ActorID:  s.CreatedBy,
			EntityID: s.ID,
			Summary:  s.Topic,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if len(out) > n {
		out = out[:n]
	}

	groups, err := groupstore.New(db).ListByIDs(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	names := groupstore.ByID(groups)
	for i := range out {
		out[i].GroupName = names[out[i].GroupID].Name
	}
	return out, nil
}
