// internal/domain/models/message.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message is an immutable chat entry in a group.
// Timestamp is epoch milliseconds.
type Message struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Content   string             `bson:"content" json:"content"`
	Timestamp int64              `bson:"timestamp" json:"timestamp"`
}
