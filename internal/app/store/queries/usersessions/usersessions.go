// Package usersessions aggregates the study sessions relevant to one user:
// every session of every group they belong to, plus any session they attend.
package usersessions

import (
	"context"
	"sort"

	attendancestore "github.com/dalemusser/studysync/internal/app/store/attendance"
	membershipstore "github.com/dalemusser/studysync/internal/app/store/memberships"
	sessionstore "github.com/dalemusser/studysync/internal/app/store/sessions"
	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// lookup is an optional-returning session lookup; ok is false for ids with
// no session, which the aggregation skips.
type lookup func(id primitive.ObjectID) (models.StudySession, bool)

func lookupIn(sessions []models.StudySession) lookup {
	byID := make(map[primitive.ObjectID]models.StudySession, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
	}
	return func(id primitive.ObjectID) (models.StudySession, bool) {
		s, ok := byID[id]
		return s, ok
	}
}

// ForUser returns the sessions of the user's groups, in membership order,
// followed by attended sessions not already listed, in attendance order.
// Within one group sessions are in schedule order. No session appears twice
// and dangling references are skipped.
func ForUser(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]models.StudySession, error) {
	attended, err := attendancestore.New(db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	groupIDs, err := membershipstore.New(db).GroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := sessionstore.New(db)
	groupSessions, err := sessions.ListByGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[primitive.ObjectID][]models.StudySession, len(groupIDs))
	for _, s := range groupSessions {
		byGroup[s.GroupID] = append(byGroup[s.GroupID], s)
	}

	out := []models.StudySession{}
	present := make(map[primitive.ObjectID]bool)
	add := func(s models.StudySession) {
		if present[s.ID] {
			return
		}
		present[s.ID] = true
		out = append(out, s)
	}

	for _, gid := range groupIDs {
		for _, s := range byGroup[gid] {
			add(s)
		}
	}

	var missing []primitive.ObjectID
	for _, a := range attended {
		if !present[a.SessionID] {
			missing = append(missing, a.SessionID)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	extra, err := sessions.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	find := lookupIn(extra)
	for _, id := range missing {
		if s, ok := find(id); ok {
			add(s)
		}
	}
	return out, nil
}

// Upcoming filters sessions to those on or after today ("2006-01-02"),
// sorts them by date then start time, and keeps the first n.
// n <= 0 yields an empty result.
func Upcoming(sessions []models.StudySession, today string, n int) []models.StudySession {
	out := []models.StudySession{}
	if n <= 0 {
		return out
	}
	for _, s := range sessions {
		if s.Date >= today {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// UpcomingForUser is Upcoming applied to ForUser.
func UpcomingForUser(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, today string, n int) ([]models.StudySession, error) {
	if n <= 0 {
		return []models.StudySession{}, nil
	}
	all, err := ForUser(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	return Upcoming(all, today, n), nil
}
