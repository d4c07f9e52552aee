package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content categories. Each category has its own notification template.
const (
	CategoryPregnancyPlanning = "pregnancy_planning"
	CategoryPregnancy         = "pregnancy"
	CategoryPostpartum        = "postpartum"
	CategoryParenting         = "parenting"
	CategoryWork              = "work"
	CategoryGovernmentSupport = "government_support"
)

// ContentItem is a catalog entry from the content library, read-only to
// this server. The week window and the month window are mutually
// exclusive: week_start/week_end is relative to pregnancy start,
// month_start/month_end is relative to birth. An item with neither window
// is always eligible once stage and category match.
type ContentItem struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Summary          string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Category         string             `bson:"category" json:"category"`
	Stage            string             `bson:"stage,omitempty" json:"stage,omitempty"`
	WeekStart        *int               `bson:"week_start,omitempty" json:"week_start,omitempty"`
	WeekEnd          *int               `bson:"week_end,omitempty" json:"week_end,omitempty"`
	MonthStart       *int               `bson:"month_start,omitempty" json:"month_start,omitempty"`
	MonthEnd         *int               `bson:"month_end,omitempty" json:"month_end,omitempty"`
	RegionFilter     string             `bson:"region_filter,omitempty" json:"region_filter,omitempty"`
	EmploymentFilter bool               `bson:"employment_filter,omitempty" json:"employment_filter,omitempty"`
	SourceURL        string             `bson:"source_url,omitempty" json:"source_url,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}
