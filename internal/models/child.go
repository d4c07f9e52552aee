package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ChildExpecting = "expecting"
	ChildBorn      = "born"
)

// Child is one expected or born child of a user. Matching treats each
// child independently and unions the results.
type Child struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name               string             `bson:"name,omitempty" json:"name,omitempty"`
	Status             string             `bson:"status" json:"status"`
	PregnancyStartDate *time.Time         `bson:"pregnancy_start_date,omitempty" json:"pregnancy_start_date,omitempty"`
	DueDate            *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	BirthDate          *time.Time         `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}
