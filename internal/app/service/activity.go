package service

import (
	"context"
	"fmt"

	"github.com/dalemusser/studysync/internal/app/store/queries/activityfeed"
	"github.com/dalemusser/studysync/internal/app/system/auth"
)

// RecentActivity merges the newest messages, resources and sessions across
// the caller's groups, newest first.
func (s *Service) RecentActivity(ctx context.Context, caller auth.Identity, n int) ([]activityfeed.Item, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	groupIDs, err := s.members.GroupIDsForUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	return activityfeed.Recent(ctx, s.db, groupIDs, clamp(n, s.cfg.ActivityLimit, s.cfg.MaxActivityLimit))
}
