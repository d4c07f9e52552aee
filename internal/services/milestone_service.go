package services

import (
	"context"
	"fmt"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MilestoneService encapsulates the business logic for legacy timeline
// milestones.
type MilestoneService struct {
	milestones *repository.MilestoneRepository
}

// NewMilestoneService creates a new instance of MilestoneService.
func NewMilestoneService(milestones *repository.MilestoneRepository) *MilestoneService {
	return &MilestoneService{milestones: milestones}
}

// CreateMilestone validates and creates a milestone, defaulting the
// notification offsets to 7/3/0 days before the scheduled date.
func (s *MilestoneService) CreateMilestone(ctx context.Context, m *models.Milestone) (*models.Milestone, error) {
	if m.Title == "" {
		return nil, fmt.Errorf("milestone title is required")
	}
	if m.ScheduledDate.IsZero() {
		return nil, fmt.Errorf("milestone scheduled date is required")
	}
	if len(m.NotificationDays) == 0 {
		m.NotificationDays = append([]int(nil), models.DefaultNotificationDays...)
	}
	if m.NotificationsSent == nil {
		m.NotificationsSent = []int{}
	}
	return s.milestones.Create(ctx, m)
}

// ListMilestones fetches all milestones of one user.
func (s *MilestoneService) ListMilestones(ctx context.Context, userID primitive.ObjectID) ([]models.Milestone, error) {
	return s.milestones.ListByUser(ctx, userID)
}

// UpdateMilestone applies a partial update.
func (s *MilestoneService) UpdateMilestone(ctx context.Context, id, userID primitive.ObjectID, m *models.Milestone) error {
	fields := bson.M{}
	if m.Title != "" {
		fields["title"] = m.Title
	}
	if m.Category != "" {
		fields["category"] = m.Category
	}
	if !m.ScheduledDate.IsZero() {
		fields["scheduled_date"] = m.ScheduledDate
	}
	if len(m.NotificationDays) > 0 {
		fields["notification_days"] = m.NotificationDays
	}
	if len(fields) == 0 {
		return nil
	}
	return s.milestones.Update(ctx, id, userID, fields)
}

// SetCompleted marks a milestone done or not done. Completed milestones
// drop out of the notification sweep.
func (s *MilestoneService) SetCompleted(ctx context.Context, id, userID primitive.ObjectID, completed bool) error {
	return s.milestones.SetCompleted(ctx, id, userID, completed)
}

// DeleteMilestone removes a milestone.
func (s *MilestoneService) DeleteMilestone(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.milestones.Delete(ctx, id, userID)
}
