// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each index set is reconciled idempotently.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, set := range desiredSets() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type indexSet struct {
	collection string
	models     []mongo.IndexModel
}

func named(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func unique(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetName(name)}
}

func desiredSets() []indexSet {
	return []indexSet{
		{"users", []mongo.IndexModel{
			// One profile per auth identity; Create relies on this for idempotency.
			unique("uniq_users_external_id", bson.D{{Key: "external_id", Value: 1}}),
			unique("uniq_users_email", bson.D{{Key: "email", Value: 1}}),
			named("idx_users_nameci_id", bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}),
		}},
		{"groups", []mongo.IndexModel{
			// Recommendation phase 1: public groups for one course, in _id order.
			named("idx_groups_coursekey_public_id", bson.D{
				{Key: "course_key", Value: 1},
				{Key: "is_public", Value: 1},
				{Key: "_id", Value: 1},
			}),
			named("idx_groups_public_id", bson.D{{Key: "is_public", Value: 1}, {Key: "_id", Value: 1}}),
			named("idx_groups_created_by", bson.D{{Key: "created_by", Value: 1}}),
		}},
		{"group_memberships", []mongo.IndexModel{
			// Makes concurrent joins collapse to one row.
			unique("uniq_membership_user_group", bson.D{{Key: "user_id", Value: 1}, {Key: "group_id", Value: 1}}),
			named("idx_membership_group_user", bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}}),
		}},
		{"study_sessions", []mongo.IndexModel{
			named("idx_sessions_group_date_start", bson.D{
				{Key: "group_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "start_time", Value: 1},
			}),
			named("idx_sessions_date", bson.D{{Key: "date", Value: 1}}),
			named("idx_sessions_created_by", bson.D{{Key: "created_by", Value: 1}}),
		}},
		{"session_attendees", []mongo.IndexModel{
			unique("uniq_attendance_session_user", bson.D{{Key: "session_id", Value: 1}, {Key: "user_id", Value: 1}}),
			named("idx_attendance_user_created", bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}),
		}},
		{"messages", []mongo.IndexModel{
			named("idx_messages_group_ts", bson.D{
				{Key: "group_id", Value: 1},
				{Key: "timestamp", Value: -1},
				{Key: "_id", Value: -1},
			}),
			named("idx_messages_user", bson.D{{Key: "user_id", Value: 1}}),
		}},
		{"resources", []mongo.IndexModel{
			named("idx_resources_group_uploaded", bson.D{
				{Key: "group_id", Value: 1},
				{Key: "uploaded_at", Value: 1},
				{Key: "_id", Value: 1},
			}),
			named("idx_resources_uploader", bson.D{{Key: "uploaded_by", Value: 1}}),
		}},
		{"oauth_states", []mongo.IndexModel{
			unique("uniq_oauth_state", bson.D{{Key: "state", Value: 1}}),
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
			},
		}},
		{"audit_events", []mongo.IndexModel{
			named("idx_audit_user_ts", bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}),
			named("idx_audit_group_ts", bson.D{{Key: "group_id", Value: 1}, {Key: "timestamp", Value: -1}}),
			named("idx_audit_ts", bson.D{{Key: "timestamp", Value: -1}}),
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                       */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isTrue(b *bool) bool { return b != nil && *b }

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A missing collection lists as empty on most servers; anything else
		// just means every index goes through CreateOne.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		if err := ensureOne(ctx, coll, m, existing); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureOne(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, existing map[string]existingIndex) error {
	var name string
	var wantUnique *bool
	if m.Options != nil {
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		wantUnique = m.Options.Unique
	}
	sig := keySig(m.Keys.(bson.D))
	start := time.Now()
	log := zap.L().With(
		zap.String("collection", coll.Name()),
		zap.String("name", name),
		zap.String("keys", sig),
		zap.Bool("unique", isTrue(wantUnique)))

	if ex, ok := existing[sig]; ok {
		if isTrue(ex.Unique) == isTrue(wantUnique) && (name == "" || ex.Name == name) {
			log.Debug("reusing existing index")
			return nil
		}
		// Same keys but a different name or uniqueness: drop and recreate.
		if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
			log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
			return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), name, err)
		}
		log.Info("dropped index for recreation", zap.String("existing", ex.Name))
	}

	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		if isTrue(wantUnique) && wafflemongo.IsDup(err) {
			return fmt.Errorf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), name, sig)
		}
		return fmt.Errorf("%s(%s): %v", coll.Name(), name, err)
	}
	log.Info("index ensured", zap.Duration("took", time.Since(start)))
	return nil
}
