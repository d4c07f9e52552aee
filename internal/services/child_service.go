package services

import (
	"context"
	"fmt"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChildService encapsulates the business logic for child records. Every
// mutation ends with a stage recompute on the owning profile.
type ChildService struct {
	children *repository.ChildRepository
	profiles *ProfileService
}

// NewChildService creates a new instance of ChildService.
func NewChildService(children *repository.ChildRepository, profiles *ProfileService) *ChildService {
	return &ChildService{
		children: children,
		profiles: profiles,
	}
}

// AddChild validates and creates a child record.
func (s *ChildService) AddChild(ctx context.Context, child *models.Child) (*models.Child, error) {
	switch child.Status {
	case models.ChildExpecting:
		if child.DueDate == nil && child.PregnancyStartDate == nil {
			return nil, fmt.Errorf("an expecting child needs a due date or pregnancy start date")
		}
	case models.ChildBorn:
		if child.BirthDate == nil {
			return nil, fmt.Errorf("a born child needs a birth date")
		}
	default:
		return nil, fmt.Errorf("invalid child status %q", child.Status)
	}

	created, err := s.children.Create(ctx, child)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.RecomputeStage(ctx, child.UserID); err != nil {
		return nil, err
	}
	return created, nil
}

// ListChildren fetches all children of one user.
func (s *ChildService) ListChildren(ctx context.Context, userID primitive.ObjectID) ([]models.Child, error) {
	return s.children.ListByUser(ctx, userID)
}

// UpdateChild applies a partial update, e.g. recording a birth.
func (s *ChildService) UpdateChild(ctx context.Context, id, userID primitive.ObjectID, child *models.Child) error {
	fields := bson.M{}
	if child.Name != "" {
		fields["name"] = child.Name
	}
	if child.Status != "" {
		if child.Status != models.ChildExpecting && child.Status != models.ChildBorn {
			return fmt.Errorf("invalid child status %q", child.Status)
		}
		fields["status"] = child.Status
	}
	if child.DueDate != nil {
		fields["due_date"] = child.DueDate
	}
	if child.PregnancyStartDate != nil {
		fields["pregnancy_start_date"] = child.PregnancyStartDate
	}
	if child.BirthDate != nil {
		fields["birth_date"] = child.BirthDate
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.children.Update(ctx, id, userID, fields); err != nil {
		return err
	}
	return s.profiles.RecomputeStage(ctx, userID)
}

// RemoveChild deletes a child record.
func (s *ChildService) RemoveChild(ctx context.Context, id, userID primitive.ObjectID) error {
	if err := s.children.Delete(ctx, id, userID); err != nil {
		return err
	}
	return s.profiles.RecomputeStage(ctx, userID)
}
