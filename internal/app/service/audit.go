package service

import (
	"context"
	"fmt"
	"time"

	auditstore "github.com/dalemusser/studysync/internal/app/store/audit"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditPageSize is the number of events per history page.
const AuditPageSize = 50

// AuditQuery narrows an audit history. Zero values match everything.
type AuditQuery struct {
	Category  string
	EventType string
	Start     *time.Time
	End       *time.Time
	Page      int // 1-based
}

// AuditPage is one page of audit events, newest first.
type AuditPage struct {
	Items      []auditstore.Event `json:"items"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	Total      int64              `json:"total"`
}

// MyAuditHistory returns the caller's own sign-in and activity events.
func (s *Service) MyAuditHistory(ctx context.Context, caller auth.Identity, q AuditQuery) (AuditPage, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return AuditPage{}, err
	}
	return s.auditPage(ctx, auditstore.QueryFilter{UserID: &u.ID}, q)
}

// GroupAuditHistory returns activity recorded against a group. Members only.
func (s *Service) GroupAuditHistory(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID, q AuditQuery) (AuditPage, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return AuditPage{}, err
	}
	if err := s.requireGroup(ctx, groupID); err != nil {
		return AuditPage{}, err
	}
	if err := s.requireMember(ctx, groupID, u.ID); err != nil {
		return AuditPage{}, err
	}
	return s.auditPage(ctx, auditstore.QueryFilter{GroupID: &groupID, Category: auditstore.CategoryActivity}, q)
}

func (s *Service) auditPage(ctx context.Context, f auditstore.QueryFilter, q AuditQuery) (AuditPage, error) {
	switch q.Category {
	case "", auditstore.CategoryAuth, auditstore.CategoryActivity:
	default:
		return AuditPage{}, invalid("category must be auth or activity")
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return AuditPage{}, invalid("end date is before start date")
	}
	if q.Category != "" {
		if f.Category != "" && f.Category != q.Category {
			return AuditPage{Items: []auditstore.Event{}, Page: 1, TotalPages: 1}, nil
		}
		f.Category = q.Category
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	f.EventType = q.EventType
	f.StartTime = q.Start
	f.EndTime = q.End
	f.Limit = AuditPageSize
	f.Offset = int64((page - 1) * AuditPageSize)

	events, err := s.auditLog.Query(ctx, f)
	if err != nil {
		return AuditPage{}, fmt.Errorf("query audit events: %w", err)
	}
	total, err := s.auditLog.CountByFilter(ctx, f)
	if err != nil {
		return AuditPage{}, fmt.Errorf("count audit events: %w", err)
	}

	pages := int((total + AuditPageSize - 1) / AuditPageSize)
	if pages < 1 {
		pages = 1
	}
	return AuditPage{Items: events, Page: page, TotalPages: pages, Total: total}, nil
}
