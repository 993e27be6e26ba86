// Package service implements StudySync's queries and mutations on top of the
// stores. Every mutation takes the caller's identity as an explicit
// parameter and resolves it to a user once per call.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	attendancestore "github.com/dalemusser/studysync/internal/app/store/attendance"
	auditstore "github.com/dalemusser/studysync/internal/app/store/audit"
	groupstore "github.com/dalemusser/studysync/internal/app/store/groups"
	membershipstore "github.com/dalemusser/studysync/internal/app/store/memberships"
	messagestore "github.com/dalemusser/studysync/internal/app/store/messages"
	resourcestore "github.com/dalemusser/studysync/internal/app/store/resources"
	sessionstore "github.com/dalemusser/studysync/internal/app/store/sessions"
	userstore "github.com/dalemusser/studysync/internal/app/store/users"
	"github.com/dalemusser/studysync/internal/app/system/auditlog"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/changefeed"
	"github.com/dalemusser/studysync/internal/app/system/inputval"
	"github.com/dalemusser/studysync/internal/app/system/metrics"
	"github.com/dalemusser/studysync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Error taxonomy. Callers match with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrNotAMember   = errors.New("not a member of this group")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

// validationError carries a user-facing message and matches ErrValidation.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error { return &validationError{msg: msg} }

func invalidResult(res *inputval.Result) error { return invalid(res.All()) }

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotAMember):
		return "forbidden"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "error"
}

// Config holds list sizes and calendar settings.
type Config struct {
	MessagePageSize    int // default page for ListMessages
	MaxMessagePageSize int
	UpcomingLimit      int // default n for UpcomingSessions
	ActivityLimit      int
	MaxActivityLimit   int
	RecommendLimit     int
	MaxRecommendLimit  int
	CalendarName       string
	CalendarLocation   *time.Location // zone session times are interpreted in
}

// DefaultConfig returns the sizes used when Config fields are zero.
func DefaultConfig() Config {
	return Config{
		MessagePageSize:    50,
		MaxMessagePageSize: 200,
		UpcomingLimit:      5,
		ActivityLimit:      20,
		MaxActivityLimit:   100,
		RecommendLimit:     3,
		MaxRecommendLimit:  50,
		CalendarName:       "StudySync sessions",
		CalendarLocation:   time.UTC,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MessagePageSize <= 0 {
		c.MessagePageSize = d.MessagePageSize
	}
	if c.MaxMessagePageSize <= 0 {
		c.MaxMessagePageSize = d.MaxMessagePageSize
	}
	if c.UpcomingLimit <= 0 {
		c.UpcomingLimit = d.UpcomingLimit
	}
	if c.ActivityLimit <= 0 {
		c.ActivityLimit = d.ActivityLimit
	}
	if c.MaxActivityLimit <= 0 {
		c.MaxActivityLimit = d.MaxActivityLimit
	}
	if c.RecommendLimit <= 0 {
		c.RecommendLimit = d.RecommendLimit
	}
	if c.MaxRecommendLimit <= 0 {
		c.MaxRecommendLimit = d.MaxRecommendLimit
	}
	if c.CalendarName == "" {
		c.CalendarName = d.CalendarName
	}
	if c.CalendarLocation == nil {
		c.CalendarLocation = d.CalendarLocation
	}
	return c
}

// Deps wires a Service. DB is required; everything else has a usable default.
type Deps struct {
	DB      *mongo.Database
	Client  *mongo.Client // enables transactions for compound creates
	Log     *zap.Logger
	Broker  changefeed.Broker
	Metrics metrics.Recorder
	Audit   *auditlog.Logger
	Now     func() time.Time
	Config  Config
}

type Service struct {
	db      *mongo.Database
	client  *mongo.Client
	log     *zap.Logger
	broker  changefeed.Broker
	metrics metrics.Recorder
	audit   *auditlog.Logger
	now     func() time.Time
	cfg     Config

	users      *userstore.Store
	groups     *groupstore.Store
	members    *membershipstore.Store
	sessions   *sessionstore.Store
	attendance *attendancestore.Store
	messages   *messagestore.Store
	resources  *resourcestore.Store
	auditLog   *auditstore.Store
}

func New(d Deps) *Service {
	s := &Service{
		db:      d.DB,
		client:  d.Client,
		log:     d.Log,
		broker:  d.Broker,
		metrics: d.Metrics,
		audit:   d.Audit,
		now:     d.Now,
		cfg:     d.Config.withDefaults(),

		users:      userstore.New(d.DB),
		groups:     groupstore.New(d.DB),
		members:    membershipstore.New(d.DB),
		sessions:   sessionstore.New(d.DB),
		attendance: attendancestore.New(d.DB),
		messages:   messagestore.New(d.DB),
		resources:  resourcestore.New(d.DB),
		auditLog:   auditstore.New(d.DB),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.broker == nil {
		s.broker = changefeed.NewMemoryBroker()
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Broker returns the change feed mutations publish to.
func (s *Service) Broker() changefeed.Broker { return s.broker }

// resolve maps the caller's identity to its user. A zero identity or one
// with no profile is ErrUnauthorized.
func (s *Service) resolve(ctx context.Context, caller auth.Identity) (models.User, error) {
	if caller.IsZero() {
		return models.User{}, ErrUnauthorized
	}
	u, err := s.users.GetByExternalID(ctx, strings.TrimSpace(caller.Subject))
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrUnauthorized
	}
	if err != nil {
		return models.User{}, fmt.Errorf("resolve caller: %w", err)
	}
	return *u, nil
}

func (s *Service) requireGroup(ctx context.Context, groupID primitive.ObjectID) error {
	ok, err := s.groups.Exists(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load group: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// requireReadable lets any caller read a public group's messages and
// resources; a private group's are readable by its members only.
func (s *Service) requireReadable(ctx context.Context, caller auth.Identity, groupID primitive.ObjectID) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load group: %w", err)
	}
	if g.IsPublic {
		return nil
	}
	u, err := s.resolve(ctx, caller)
	if err != nil {
		return err
	}
	return s.requireMember(ctx, groupID, u.ID)
}

func (s *Service) requireMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	ok, err := s.members.Exists(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return ErrNotAMember
	}
	return nil
}

func (s *Service) record(op string, err error) {
	s.metrics.RecordMutation(op, Outcome(err))
}

func event(kind changefeed.Kind, groupID, userID, entityID primitive.ObjectID) changefeed.Event {
	ev := changefeed.Event{Kind: kind}
	if !groupID.IsZero() {
		ev.GroupID = groupID.Hex()
	}
	if !userID.IsZero() {
		ev.UserID = userID.Hex()
	}
	if !entityID.IsZero() {
		ev.EntityID = entityID.Hex()
	}
	return ev
}

// publish sends ev on each topic. Failures are logged; the mutation has
// already committed.
func (s *Service) publish(ctx context.Context, ev changefeed.Event, topics ...string) {
	ev.At = s.now().UTC()
	for _, t := range topics {
		ev.Topic = t
		if err := s.broker.Publish(ctx, ev); err != nil {
			s.log.Warn("changefeed publish failed",
				zap.String("topic", t),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err))
			continue
		}
		s.metrics.RecordPublish(string(ev.Kind))
	}
}

func clamp(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
