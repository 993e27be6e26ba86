// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/studysync/internal/app/store/audit"
	"github.com/dalemusser/studysync/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls sign-in and sign-out events.
	Auth string
	// Activity controls group, session, resource and profile changes.
	Activity string
}

// IsValidMode reports whether m is a recognized destination.
func IsValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", event.Subject))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.TargetID != nil {
		fields = append(fields, zap.String("target_id", event.TargetID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryActivity:
		setting = l.config.Activity
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// SignedIn logs an established cookie session.
func (l *Logger) SignedIn(ctx context.Context, r *http.Request, userID *primitive.ObjectID, subject, method string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignedIn,
		UserID:    userID,
		Subject:   subject,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"method": method},
	})
}

// SignInFailed logs a rejected sign-in attempt.
func (l *Logger) SignInFailed(ctx context.Context, r *http.Request, method, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSignInFailed,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"method": method},
	})
}

// SignedOut logs a cleared cookie session.
func (l *Logger) SignedOut(ctx context.Context, r *http.Request, subject string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignedOut,
		Subject:   subject,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Activity Events ---

func (l *Logger) activity(ctx context.Context, eventType string, userID primitive.ObjectID, groupID, targetID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryActivity,
		EventType: eventType,
		UserID:    &userID,
		GroupID:   groupID,
		TargetID:  targetID,
		Success:   true,
		Details:   details,
	})
}

// UserOnboarded logs creation of a profile for a new identity.
func (l *Logger) UserOnboarded(ctx context.Context, userID primitive.ObjectID, subject string) {
	l.activity(ctx, audit.EventUserOnboarded, userID, nil, nil, map[string]string{"subject": subject})
}

// ProfileUpdated logs a profile edit.
func (l *Logger) ProfileUpdated(ctx context.Context, userID primitive.ObjectID) {
	l.activity(ctx, audit.EventProfileUpdated, userID, nil, nil, nil)
}

// GroupCreated logs creation of a group by userID.
func (l *Logger) GroupCreated(ctx context.Context, userID, groupID primitive.ObjectID, name string) {
	l.activity(ctx, audit.EventGroupCreated, userID, &groupID, nil, map[string]string{"name": name})
}

// GroupJoined logs userID joining a group.
func (l *Logger) GroupJoined(ctx context.Context, userID, groupID primitive.ObjectID) {
	l.activity(ctx, audit.EventGroupJoined, userID, &groupID, nil, nil)
}

// GroupLeft logs userID leaving a group.
func (l *Logger) GroupLeft(ctx context.Context, userID, groupID primitive.ObjectID) {
	l.activity(ctx, audit.EventGroupLeft, userID, &groupID, nil, nil)
}

// SessionCreated logs scheduling of a session.
func (l *Logger) SessionCreated(ctx context.Context, userID, groupID, sessionID primitive.ObjectID) {
	l.activity(ctx, audit.EventSessionCreated, userID, &groupID, &sessionID, nil)
}

// SessionAttended logs userID signing up for a session.
func (l *Logger) SessionAttended(ctx context.Context, userID, groupID, sessionID primitive.ObjectID) {
	l.activity(ctx, audit.EventSessionAttended, userID, &groupID, &sessionID, nil)
}

// ResourceShared logs a resource link added to a group.
func (l *Logger) ResourceShared(ctx context.Context, userID, groupID, resourceID primitive.ObjectID, url string) {
	l.activity(ctx, audit.EventResourceShared, userID, &groupID, &resourceID, map[string]string{"url": url})
}
