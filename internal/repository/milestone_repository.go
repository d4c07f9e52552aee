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

// MilestoneRepository handles database operations on legacy "timeline"
// milestone records.
type MilestoneRepository struct {
	collection *mongo.Collection
}

// NewMilestoneRepository creates a new instance of MilestoneRepository.
func NewMilestoneRepository(db *mongo.Database) *MilestoneRepository {
	return &MilestoneRepository{
		collection: db.Collection("timelines"),
	}
}

// Create inserts a new milestone.
func (r *MilestoneRepository) Create(ctx context.Context, m *models.Milestone) (*models.Milestone, error) {
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert milestone")
		return nil, err
	}

	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		m.ID = insertedID
	}
	return m, nil
}

// ListByUser fetches all milestones of one user, soonest first.
func (r *MilestoneRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Milestone, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_date", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch milestones")
		return nil, err
	}
	defer cursor.Close(ctx)

	var milestones []models.Milestone
	if err := cursor.All(ctx, &milestones); err != nil {
		return nil, err
	}
	return milestones, nil
}

// ListIncomplete fetches every incomplete milestone across all users, the
// candidate set for the milestone pass of the sweep.
func (r *MilestoneRepository) ListIncomplete(ctx context.Context) ([]models.Milestone, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"completed": false})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch incomplete milestones")
		return nil, err
	}
	defer cursor.Close(ctx)

	var milestones []models.Milestone
	if err := cursor.All(ctx, &milestones); err != nil {
		return nil, err
	}
	return milestones, nil
}

// Update applies a partial update to a milestone owned by the user.
func (r *MilestoneRepository) Update(ctx context.Context, id, userID primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": fields},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("milestone_id", id.Hex()).Error("Failed to update milestone")
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetCompleted marks a milestone done or not done.
func (r *MilestoneRepository) SetCompleted(ctx context.Context, id, userID primitive.ObjectID, completed bool) error {
	return r.Update(ctx, id, userID, bson.M{"completed": completed})
}

// Delete removes a milestone owned by the user.
func (r *MilestoneRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		logger.Log.WithError(err).WithField("milestone_id", id.Hex()).Error("Failed to delete milestone")
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkNotificationSent appends one fired day offset to the milestone's
// sent list. $addToSet keeps the list duplicate-free even if two sweeps
// overlap on the same record.
func (r *MilestoneRepository) MarkNotificationSent(ctx context.Context, id primitive.ObjectID, offset int) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"notifications_sent": offset},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("milestone_id", id.Hex()).Error("Failed to mark milestone notification sent")
		return err
	}
	return nil
}
