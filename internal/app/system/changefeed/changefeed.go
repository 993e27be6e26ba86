// Package changefeed notifies interested clients that data they display has
// changed. Events carry ids only; clients re-query the API on receipt.
//
// Topics:
//   - group:<id>   membership, session, attendance, message and resource changes in one group
//   - user:<id>    profile changes and the user's own membership changes
//   - groups:public a public group was created
package changefeed

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind names what changed.
type Kind string

const (
	KindGroup      Kind = "group"
	KindMembership Kind = "membership"
	KindSession    Kind = "session"
	KindAttendance Kind = "attendance"
	KindMessage    Kind = "message"
	KindResource   Kind = "resource"
	KindProfile    Kind = "profile"
)

// PublicTopic carries creation of public groups.
const PublicTopic = "groups:public"

// Event is one change notification.
type Event struct {
	Kind     Kind      `json:"kind"`
	Topic    string    `json:"topic"`
	GroupID  string    `json:"group_id,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	EntityID string    `json:"entity_id,omitempty"`
	At       time.Time `json:"at"`
}

// GroupTopic is the topic for changes inside one group.
func GroupTopic(id primitive.ObjectID) string { return "group:" + id.Hex() }

// UserTopic is the topic for changes to one user.
func UserTopic(id primitive.ObjectID) string { return "user:" + id.Hex() }

// ErrClosed is returned by a broker after Close.
var ErrClosed = errors.New("changefeed: broker closed")

// Broker fans events out to subscribers of their topic.
type Broker interface {
	// Publish delivers ev to current subscribers of ev.Topic. Delivery is
	// best-effort: a slow subscriber may miss events.
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a subscription receiving events for topics until ctx
	// is done or the subscription is closed.
	Subscribe(ctx context.Context, topics ...string) (*Subscription, error)
	Close() error
}

// Subscription is a stream of events. C is closed when the subscription ends.
type Subscription struct {
	C     <-chan Event
	close func()
}

// Close ends the subscription. Safe to call more than once and on a nil
// subscription.
func (s *Subscription) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}
