package service

import (
	"context"
	"fmt"

	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageLength bounds a chat message after tags are stripped.
const MaxMessageLength = 4000

// SendMessage appends a chat message from the caller to a group they belong
// to. Markup is stripped; blank messages are rejected.
func (s *Service) SendMessage(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID, content string) (_ models.Message, err error) {
	defer func() { s.record("send_message", err) }()

	u, err := s.resolve(ctx, caller)
	if err != nil {
		return models.Message{}, err
	}
	if err := s.requireGroup(ctx, groupID); err != nil {
		return models.Message{}, err
	}
	if err := s.requireMember(ctx, groupID, u.ID); err != nil {
		return models.Message{}, err
	}

	content = htmlsanitize.PlainText(content)
	switch {
	case content == "":
		return models.Message{}, invalid("Message is required.")
	case len([]rune(content)) > MaxMessageLength:
		return models.Message{}, invalid(fmt.Sprintf("Message must be at most %d characters.", MaxMessageLength))
	}

	m, err := s.messages.Create(ctx, models.Message{
		GroupID:   groupID,
		UserID:    u.ID,
		Content:   content,
		Timestamp: s.now().UnixMilli(),
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}

	s.publish(ctx, event(changefeed.KindMessage, groupID, u.ID, m.ID), changefeed.GroupTopic(groupID))
	return m, nil
}

// ListMessages returns the newest pageSize messages of a group, newest first.
// A non-positive pageSize uses the configured default; larger sizes are capped.
// Messages of a private group are returned to its members only.
func (s *Service) ListMessages(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID, pageSize int) ([]models.Message, error) {
	if err := s.requireReadable(ctx, caller, groupID); err != nil {
		return nil, err
	}
	n := clamp(pageSize, s.cfg.MessagePageSize, s.cfg.MaxMessagePageSize)
	return s.messages.ListRecent(ctx, groupID, int64(n))
}
