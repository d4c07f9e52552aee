package repository

import (
	"context"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileRepository handles database operations on life-stage profiles.
type ProfileRepository struct {
	collection *mongo.Collection
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{
		collection: db.Collection("profiles"),
	}
}

// Upsert creates or replaces the profile for a user, keyed by user_id.
// Only one profile exists per user.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	profile.UpdatedAt = time.Now()

	filter := bson.M{"user_id": profile.UserID}
	update := bson.M{
		"$set": bson.M{
			"stage":                profile.Stage,
			"due_date":             profile.DueDate,
			"pregnancy_start_date": profile.PregnancyStartDate,
			"is_working":           profile.IsWorking,
			"region_province":      profile.RegionProvince,
			"region_city":          profile.RegionCity,
			"updated_at":           profile.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"user_id":    profile.UserID,
			"created_at": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var updated models.Profile
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		logger.Log.WithError(err).WithField("user_id", profile.UserID.Hex()).Error("Failed to upsert profile")
		return nil, err
	}
	return &updated, nil
}

// GetByUserID fetches the profile of one user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	var profile models.Profile
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListOnboarded fetches every profile that finished onboarding, i.e. has
// a life stage set. The batch content sweep iterates exactly this set.
func (r *ProfileRepository) ListOnboarded(ctx context.Context) ([]models.Profile, error) {
	filter := bson.M{"stage": bson.M{"$nin": bson.A{"", nil}}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch onboarded profiles")
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// SetStage rewrites the cached stage projection for a user.
func (r *ProfileRepository) SetStage(ctx context.Context, userID primitive.ObjectID, stage string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"stage": stage, "updated_at": time.Now()}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to set profile stage")
		return err
	}
	return nil
}
