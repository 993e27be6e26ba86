package service

import (
	"context"
	"fmt"

	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feed is the set of change-feed topics a caller may watch.
type Feed struct {
	UserID    primitive.ObjectID
	UserTopic string
	Topics    []string
}

// CallerFeed resolves the topics visible to the caller: their own user
// topic, one topic per group they belong to, and public group creation.
// Group topics change when the caller joins or leaves; watchers should
// re-resolve after a membership event on UserTopic.
func (s *Service) CallerFeed(ctx context.Context, caller auth.Identity) (Feed, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return Feed{}, err
	}
	groupIDs, err := s.members.GroupIDsForUser(ctx, u.ID)
	if err != nil {
		return Feed{}, fmt.Errorf("load memberships: %w", err)
	}

	f := Feed{UserID: u.ID, UserTopic: changefeed.UserTopic(u.ID)}
	f.Topics = make([]string, 0, len(groupIDs)+2)
	f.Topics = append(f.Topics, f.UserTopic, changefeed.PublicTopic)
	for _, id := range groupIDs {
		f.Topics = append(f.Topics, changefeed.GroupTopic(id))
	}
	return f, nil
}
