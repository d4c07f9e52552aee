package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Life stages a profile can be in. Stage is a cached projection of the
// user's child list; it is recomputed through a single writer path
// (ProfileService.RecomputeStage) on every child mutation.
const (
	StagePlanning   = "planning"
	StagePregnant   = "pregnant"
	StagePostpartum = "postpartum"
	StageParenting  = "parenting"
)

// Profile is the current life-stage snapshot of a user. No history is kept.
type Profile struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"user_id" json:"user_id"`
	Stage              string             `bson:"stage" json:"stage"`
	DueDate            *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	PregnancyStartDate *time.Time         `bson:"pregnancy_start_date,omitempty" json:"pregnancy_start_date,omitempty"`
	IsWorking          bool               `bson:"is_working" json:"is_working"`
	RegionProvince     string             `bson:"region_province,omitempty" json:"region_province,omitempty"`
	RegionCity         string             `bson:"region_city,omitempty" json:"region_city,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}
