package service

import (
	"context"
	"fmt"

	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studysync/internal/app/system/inputval"
	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewResource is the input to UploadResource. An empty or unknown Type is
// derived from the URL's file extension.
type NewResource struct {
	Name string `json:"name" validate:"required,max=200" label:"Name"`
	URL  string `json:"url" validate:"required,max=2048,httpurl" label:"URL"`
	Type string `json:"type"`
}

// UploadResource shares a link into a group the caller belongs to.
func (s *Service) UploadResource(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID, in NewResource) (_ models.Resource, err error) {
	defer func() { s.record("upload_resource", err) }()

	u, err := s.resolve(ctx, caller)
	if err != nil {
		return models.Resource{}, err
	}
	if err := s.requireGroup(ctx, groupID); err != nil {
		return models.Resource{}, err
	}
	if err := s.requireMember(ctx, groupID, u.ID); err != nil {
		return models.Resource{}, err
	}

	in.Name = htmlsanitize.PlainText(in.Name)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Resource{}, invalidResult(res)
	}

	r, err := s.resources.Create(ctx, models.Resource{
		GroupID:    groupID,
		Name:       in.Name,
		Type:       in.Type,
		URL:        in.URL,
		UploadedBy: u.ID,
		UploadedAt: s.now().UnixMilli(),
	})
	if err != nil {
		return models.Resource{}, fmt.Errorf("insert resource: %w", err)
	}

	s.audit.ResourceShared(ctx, u.ID, groupID, r.ID, r.URL)
	s.publish(ctx, event(changefeed.KindResource, groupID, u.ID, r.ID), changefeed.GroupTopic(groupID))
	return r, nil
}

// ListResources returns a group's resources in upload order. Resources of a
// private group are returned to its members only.
func (s *Service) ListResources(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID) ([]models.Resource, error) {
	if err := s.requireReadable(ctx, caller, groupID); err != nil {
		return nil, err
	}
	return s.resources.ListByGroup(ctx, groupID)
}
