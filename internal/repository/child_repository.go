package repository

import (
	"context"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ChildRepository handles database operations on child records.
type ChildRepository struct {
	collection *mongo.Collection
}

// NewChildRepository creates a new instance of ChildRepository.
func NewChildRepository(db *mongo.Database) *ChildRepository {
	return &ChildRepository{
		collection: db.Collection("children"),
	}
}

// Create inserts a new child record.
func (r *ChildRepository) Create(ctx context.Context, child *models.Child) (*models.Child, error) {
	child.CreatedAt = time.Now()
	child.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, child)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert child")
		return nil, err
	}

	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		child.ID = insertedID
	}
	return child, nil
}

// ListByUser fetches all children of one user.
func (r *ChildRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Child, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch children")
		return nil, err
	}
	defer cursor.Close(ctx)

	var children []models.Child
	if err := cursor.All(ctx, &children); err != nil {
		return nil, err
	}
	return children, nil
}

// ListAll fetches every child record across all users. Used by the
// notification sweep to project birth-relative target dates.
func (r *ChildRepository) ListAll(ctx context.Context) ([]models.Child, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch all children")
		return nil, err
	}
	defer cursor.Close(ctx)

	var children []models.Child
	if err := cursor.All(ctx, &children); err != nil {
		return nil, err
	}
	return children, nil
}

// Update applies a partial update to a child owned by the given user.
func (r *ChildRepository) Update(ctx context.Context, id, userID primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": fields},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("child_id", id.Hex()).Error("Failed to update child")
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a child owned by the given user.
func (r *ChildRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		logger.Log.WithError(err).WithField("child_id", id.Hex()).Error("Failed to delete child")
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
