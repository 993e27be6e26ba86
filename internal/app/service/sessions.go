package service

import (
	"context"
	"errors"
	"fmt"

	attendancestore "github.com/dalemusser/studysync/internal/app/store/attendance"
	groupstore "github.com/dalemusser/studysync/internal/app/store/groups"
	"github.com/dalemusser/studysync/internal/app/store/queries/usersessions"
	sessionstore "github.com/dalemusser/studysync/internal/app/store/sessions"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/calendar"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studysync/internal/app/system/inputval"
	"github.com/dalemusser/studysync/internal/app/system/txn"
	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewSession is the input to CreateSession.
type NewSession struct {
	Date        string `json:"date" validate:"required,date" label:"Date"`
	StartTime   string `json:"start_time" validate:"required,clock" label:"Start time"`
	EndTime     string `json:"end_time" validate:"required,clock" label:"End time"`
	Location    string `json:"location" validate:"max=200" label:"Location"`
	Topic       string `json:"topic" validate:"max=200" label:"Topic"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
}

// SessionsForUser returns the sessions of every group userID belongs to,
// followed by any other sessions they attend. Each session appears once.
func (s *Service) SessionsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.StudySession, error) {
	return usersessions.ForUser(ctx, s.db, userID)
}

// MySessions is SessionsForUser for the caller.
func (s *Service) MySessions(ctx context.Context, caller auth.Identity) ([]models.StudySession, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.SessionsForUser(ctx, u.ID)
}

// UpcomingSessions returns up to n of userID's sessions dated today (UTC) or
// later, soonest first. A non-positive n uses the configured default.
func (s *Service) UpcomingSessions(ctx context.Context, userID primitive.ObjectID, n int) ([]models.StudySession, error) {
	if n <= 0 {
		n = s.cfg.UpcomingLimit
	}
	today := s.now().UTC().Format(sessionstore.DateLayout)
	return usersessions.UpcomingForUser(ctx, s.db, userID, today, n)
}

// MyUpcomingSessions is UpcomingSessions for the caller.
func (s *Service) MyUpcomingSessions(ctx context.Context, caller auth.Identity, n int) ([]models.StudySession, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.UpcomingSessions(ctx, u.ID, n)
}

// SessionsForGroup returns a group's sessions in schedule order.
func (s *Service) SessionsForGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.StudySession, error) {
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.sessions.ListByGroup(ctx, groupID)
}

// CreateSession schedules a session in a group the caller belongs to. The
// caller is recorded as its first attendee.
func (s *Service) CreateSession(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID, in NewSession) (_ models.StudySession, err error) {
	defer func() { s.record("create_session", err) }()

	u, err := s.resolve(ctx, caller)
	if err != nil {
		return models.StudySession{}, err
	}
	if err := s.requireGroup(ctx, groupID); err != nil {
		return models.StudySession{}, err
	}
	if err := s.requireMember(ctx, groupID, u.ID); err != nil {
		return models.StudySession{}, err
	}

	in.Location = htmlsanitize.PlainText(in.Location)
	in.Topic = htmlsanitize.PlainText(in.Topic)
	in.Description = htmlsanitize.Sanitize(in.Description)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.StudySession{}, invalidResult(res)
	}
	if err := sessionstore.ValidateSchedule(in.Date, in.StartTime, in.EndTime); err != nil {
		return models.StudySession{}, invalid(err.Error())
	}

	var ss models.StudySession
	err = txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		var err error
		ss, err = s.sessions.Create(ctx, models.StudySession{
			GroupID:     groupID,
			Date:        in.Date,
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			Location:    in.Location,
			Topic:       in.Topic,
			Description: in.Description,
			CreatedBy:   u.ID,
		})
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if err := s.attendance.Add(ctx, ss.ID, u.ID); err != nil {
			return fmt.Errorf("insert creator attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.StudySession{}, err
	}

	s.audit.SessionCreated(ctx, u.ID, groupID, ss.ID)
	s.publish(ctx, event(changefeed.KindSession, groupID, u.ID, ss.ID), changefeed.GroupTopic(groupID))
	return ss, nil
}

// AttendSession records the caller as attending a session of one of their
// groups. Attending twice is a no-op. Returns the session id.
func (s *Service) AttendSession(ctx context.Context, caller auth.Identity, sessionID primitive.ObjectID) (_ primitive.ObjectID, err error) {
	defer func() { s.record("attend_session", err) }()

	u, err := s.resolve(ctx, caller)
	if err != nil {
		return primitive.NilObjectID, err
	}
	ss, err := s.sessions.GetByID(ctx, sessionID)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, ErrNotFound
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("load session: %w", err)
	}
	if err := s.requireMember(ctx, ss.GroupID, u.ID); err != nil {
		return primitive.NilObjectID, err
	}

	err = s.attendance.Add(ctx, ss.ID, u.ID)
	if errors.Is(err, attendancestore.ErrDuplicateAttendance) {
		return ss.ID, nil
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert attendance: %w", err)
	}

	s.audit.SessionAttended(ctx, u.ID, ss.GroupID, ss.ID)
	s.publish(ctx, event(changefeed.KindAttendance, ss.GroupID, u.ID, ss.ID),
		changefeed.GroupTopic(ss.GroupID), changefeed.UserTopic(u.ID))
	return ss.ID, nil
}

// ExportCalendar renders the caller's sessions as an iCalendar feed.
func (s *Service) ExportCalendar(ctx context.Context, caller auth.Identity) (string, error) {
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return "", err
	}
	sessions, err := s.SessionsForUser(ctx, u.ID)
	if err != nil {
		return "", err
	}

	ids := make([]primitive.ObjectID, 0, len(sessions))
	for _, ss := range sessions {
		ids = append(ids, ss.GroupID)
	}
	groups, err := s.groups.ListByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("load groups: %w", err)
	}
	byID := groupstore.ByID(groups)

	entries := make([]calendar.Entry, 0, len(sessions))
	for _, ss := range sessions {
		entries = append(entries, calendar.Entry{Session: ss, GroupName: byID[ss.GroupID].Name})
	}
	return calendar.Render(s.cfg.CalendarName, entries, s.cfg.CalendarLocation, s.now())
}
