package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimelineEvent is a per-user materialized feed entry for one content
// item. Invariant: at most one event per (user_id, content_id) pair.
// NotificationsSent is keyed by D-day key ("d7", "d3", "d0") so the
// scheduler can mark a single milestone sent with a dotted field update.
type TimelineEvent struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"user_id" json:"user_id"`
	ContentID         primitive.ObjectID `bson:"content_id" json:"content_id"`
	DisplayDate       time.Time          `bson:"display_date" json:"display_date"`
	IsRead            bool               `bson:"is_read" json:"is_read"`
	IsDismissed       bool               `bson:"is_dismissed" json:"is_dismissed"`
	IsBookmarked      bool               `bson:"is_bookmarked" json:"is_bookmarked"`
	NotificationsSent map[string]bool    `bson:"notifications_sent" json:"notifications_sent"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}
