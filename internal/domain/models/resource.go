// internal/domain/models/resource.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Resource is a link shared into a group.
// UploadedAt is epoch milliseconds.
type Resource struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	GroupID    primitive.ObjectID `bson:"group_id" json:"group_id"`
	Name       string             `bson:"name" json:"name"`
	Type       string             `bson:"type" json:"type"`
	URL        string             `bson:"url" json:"url"`
	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt int64              `bson:"uploaded_at" json:"uploaded_at"`
}
