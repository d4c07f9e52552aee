package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultNotificationDays are the D-day offsets applied to a milestone
// created without an explicit notification_days list.
var DefaultNotificationDays = []int{7, 3, 0}

// Milestone is the legacy "timeline" record: a user-scheduled entry with
// a concrete calendar date, predating content-library events. It shares
// the scheduler's dedup contract but keys sent notifications by the
// integer day offset instead of a string D-day key.
type Milestone struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title             string             `bson:"title" json:"title"`
	Category          string             `bson:"category,omitempty" json:"category,omitempty"`
	ScheduledDate     time.Time          `bson:"scheduled_date" json:"scheduled_date"`
	Completed         bool               `bson:"completed" json:"completed"`
	NotificationDays  []int              `bson:"notification_days" json:"notification_days"`
	NotificationsSent []int              `bson:"notifications_sent" json:"notifications_sent"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}
