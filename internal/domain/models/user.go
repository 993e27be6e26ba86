// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a student profile, bound one-to-one to an external auth identity.
//
// NOTE:
//   - Group membership is not embedded on User.
//     Use the group_memberships collection to discover a user's groups.
//   - Courses holds raw course tags as entered; matching folds them with
//     normalize.CourseKey.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExternalID string             `bson:"external_id" json:"external_id"` // subject of the identity token
	Name       string             `bson:"name" json:"name"`
	NameCI     string             `bson:"name_ci" json:"-"`
	Email      string             `bson:"email" json:"email"`
	University string             `bson:"university" json:"university"`
	Major      string             `bson:"major" json:"major"`
	ImageURL   string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Courses    []string           `bson:"courses" json:"courses"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
