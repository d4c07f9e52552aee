package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription is one browser push endpoint registered by a user's
// device. Deleted when the push service reports the endpoint permanently
// gone (HTTP 404/410) or when the user opts out.
type PushSubscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Endpoint  string             `bson:"endpoint" json:"endpoint"`
	P256dh    string             `bson:"p256dh" json:"p256dh"`
	Auth      string             `bson:"auth" json:"auth"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
