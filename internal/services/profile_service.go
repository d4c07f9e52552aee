package services

import (
	"context"
	"errors"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/repository"
	"github.com/yerin5822/Maternote_Server/pkg/dday"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Age in months at which a born child moves the profile from postpartum
// to parenting.
const postpartumMonths = 12

// ProfileService encapsulates the business logic for life-stage
// profiles, including the single writer path for the derived stage.
type ProfileService struct {
	profiles *repository.ProfileRepository
	children *repository.ChildRepository
}

// NewProfileService creates a new instance of ProfileService.
func NewProfileService(profiles *repository.ProfileRepository, children *repository.ChildRepository) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		children: children,
	}
}

// GetProfile fetches the profile of one user.
func (s *ProfileService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// UpsertProfile creates or updates the user's profile, then recomputes
// the cached stage so a freshly entered due date is reflected
// immediately.
func (s *ProfileService) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if _, err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	if err := s.RecomputeStage(ctx, profile.UserID); err != nil {
		return nil, err
	}
	return s.profiles.GetByUserID(ctx, profile.UserID)
}

// RecomputeStage rewrites the profile's cached stage from the current
// child list. Stage is a denormalized projection; every child-mutating
// operation and every profile edit funnels through this one function so
// the cache cannot drift.
func (s *ProfileService) RecomputeStage(ctx context.Context, userID primitive.ObjectID) error {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrProfileNotFound
		}
		return err
	}

	children, err := s.children.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	stage := deriveStage(profile, children, time.Now())
	if stage == profile.Stage {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID.Hex(),
		"from":    profile.Stage,
		"to":      stage,
	}).Info("Recomputed profile stage")
	return s.profiles.SetStage(ctx, userID, stage)
}

// deriveStage maps the child list (and, failing that, the profile's own
// pregnancy dates) to a life stage. An expecting child wins over born
// ones; the youngest born child decides postpartum vs parenting.
func deriveStage(profile *models.Profile, children []models.Child, now time.Time) string {
	var youngestBirth *time.Time
	hasExpecting := false
	for i := range children {
		child := children[i]
		switch child.Status {
		case models.ChildExpecting:
			hasExpecting = true
		case models.ChildBorn:
			if child.BirthDate != nil && (youngestBirth == nil || child.BirthDate.After(*youngestBirth)) {
				youngestBirth = child.BirthDate
			}
		}
	}

	if hasExpecting {
		return models.StagePregnant
	}
	if youngestBirth != nil {
		if dday.AgeMonths(*youngestBirth, now) < postpartumMonths {
			return models.StagePostpartum
		}
		return models.StageParenting
	}
	if profile.DueDate != nil || profile.PregnancyStartDate != nil {
		return models.StagePregnant
	}
	return models.StagePlanning
}
