package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	membershipstore "github.com/dalemusser/studysync/internal/app/store/memberships"
	"github.com/dalemusser/studysync/internal/app/store/queries/groupmembers"
	"github.com/dalemusser/studysync/internal/app/store/queries/groupqueries"
	"github.com/dalemusser/studysync/internal/app/store/queries/recommendations"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studysync/internal/app/system/inputval"
	"github.com/dalemusser/studysync/internal/app/system/normalize"
	"github.com/dalemusser/studysync/internal/app/system/txn"
	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewGroup is the input to CreateGroup.
type NewGroup struct {
	Name        string `json:"name" validate:"required,max=100" label:"Name"`
	Course      string `json:"course" validate:"required,max=50" label:"Course"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
	IsPublic    bool   `json:"is_public"`
}

// ListPublicGroups returns every public group with its member count.
func (s *Service) ListPublicGroups(ctx context.Context) ([]groupqueries.GroupListItem, error) {
	return groupqueries.ListWithCounts(ctx, s.db, groupqueries.ListFilter{PublicOnly: true})
}

// ListGroupsByCourse returns public groups whose course folds to the same key
// as course.
func (s *Service) ListGroupsByCourse(ctx context.Context, course string) ([]groupqueries.GroupListItem, error) {
	key := normalize.CourseKey(course)
	if key == "" {
		return []groupqueries.GroupListItem{}, nil
	}
	return groupqueries.ListWithCounts(ctx, s.db, groupqueries.ListFilter{PublicOnly: true, CourseKey: key})
}

// GetGroup returns one group with its member count, or ErrNotFound.
func (s *Service) GetGroup(ctx context.Context, groupID primitive.ObjectID) (groupqueries.GroupListItem, error) {
	items, err := groupqueries.ListWithCounts(ctx, s.db, groupqueries.ListFilter{GroupIDs: []primitive.ObjectID{groupID}})
	if err != nil {
		return groupqueries.GroupListItem{}, err
	}
	if len(items) == 0 {
		return groupqueries.GroupListItem{}, ErrNotFound
	}
	return items[0], nil
}

// ListGroupsForUser returns the groups userID belongs to, in join order.
// Memberships whose group is gone are skipped.
func (s *Service) ListGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]groupqueries.GroupListItem, error) {
	return groupqueries.ListForUser(ctx, s.db, userID)
}

// ListMyGroups is ListGroupsForUser for the caller.
func (s *Service) ListMyGroups(ctx context.Context, caller auth.Identity) ([]groupqueries.GroupListItem, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.ListGroupsForUser(ctx, u.ID)
}

// CreateGroup inserts a group and the creator's membership together and
// returns the new group's id.
func (s *Service) CreateGroup(ctx context.Context, caller auth.Identity, in NewGroup) (id primitive.ObjectID, err error) {
	defer func() { s.record("create_group", err) }()

	u, err := s.resolve(ctx, caller)
	if err != nil {
		return primitive.NilObjectID, err
	}

	in.Name = htmlsanitize.PlainText(in.Name)
	in.Course = htmlsanitize.PlainText(in.Course)
	in.Description = htmlsanitize.Sanitize(in.Description)
	if res := inputval.Validate(in); res.HasErrors() {
		return primitive.NilObjectID, invalidResult(res)
	}

	var g models.Group
	err = txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		var err error
		g, err = s.groups.Create(ctx, models.Group{
			Name:        in.Name,
			Course:      in.Course,
			Description: in.Description,
			IsPublic:    in.IsPublic,
			CreatedBy:   u.ID,
		})
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		if err := s.members.Add(ctx, g.ID, u.ID); err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}

	s.audit.GroupCreated(ctx, u.ID, g.ID, g.Name)
	topics := []string{changefeed.GroupTopic(g.ID), changefeed.UserTopic(u.ID)}
	if g.IsPublic {
		topics = append(topics, changefeed.PublicTopic)
	}
	s.publish(ctx, event(changefeed.KindGroup, g.ID, u.ID, g.ID), topics...)
	return g.ID, nil
}

// JoinGroup adds the caller to a group. Joining twice, or racing another
// join for the same pair, leaves one membership. Returns the group id.
func (s *Service) JoinGroup(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID) (_ primitive.ObjectID, err error) {
	defer func() { s.record("join_group", err) }()

	u, err := s.resolve(ctx, caller)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if err := s.requireGroup(ctx, groupID); err != nil {
		return primitive.NilObjectID, err
	}

	already, err := s.members.Exists(ctx, groupID, u.ID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("check membership: %w", err)
	}
	if already {
		return groupID, nil
	}

	err = s.members.Add(ctx, groupID, u.ID)
	if errors.Is(err, membershipstore.ErrDuplicateMembership) {
		return groupID, nil
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert membership: %w", err)
	}

	s.audit.GroupJoined(ctx, u.ID, groupID)
	s.publish(ctx, event(changefeed.KindMembership, groupID, u.ID, primitive.NilObjectID),
		changefeed.GroupTopic(groupID), changefeed.UserTopic(u.ID))
	return groupID, nil
}

// LeaveGroup removes the caller from a group. Leaving a group the caller is
// not in is a no-op. Returns the group id.
func (s *Service) LeaveGroup(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID) (_ primitive.ObjectID, err error) {
	defer func() { s.record("leave_group", err) }()

	u, err := s.resolve(ctx, caller)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if err := s.requireGroup(ctx, groupID); err != nil {
		return primitive.NilObjectID, err
	}

	removed, err := s.members.Remove(ctx, groupID, u.ID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("delete membership: %w", err)
	}
	if removed {
		s.audit.GroupLeft(ctx, u.ID, groupID)
		s.publish(ctx, event(changefeed.KindMembership, groupID, u.ID, primitive.NilObjectID),
			changefeed.GroupTopic(groupID), changefeed.UserTopic(u.ID))
	}
	return groupID, nil
}

// ListGroupMembers returns a group's members ordered by name.
func (s *Service) ListGroupMembers(ctx context.Context, groupID primitive.ObjectID) ([]groupmembers.GroupMember, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return groupmembers.ListGroupMembers(ctx, s.db, groupID)
}

// RecommendGroups ranks up to limit groups userID has not joined: course
// matches first, then the most popular public groups.
func (s *Service) RecommendGroups(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Group, error) {
	start := time.Now()
	out, err := recommendations.ForUser(ctx, s.db, userID, limit)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRecommendation(time.Since(start), len(out))
	return out, nil
}

// RecommendForCaller is RecommendGroups for the caller. A non-positive limit
// uses the configured default; larger limits are capped.
func (s *Service) RecommendForCaller(ctx context.Context, caller auth.Identity, limit int) ([]models.Group, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.RecommendGroups(ctx, u.ID, clamp(limit, s.cfg.RecommendLimit, s.cfg.MaxRecommendLimit))
}
