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

// SubscriptionRepository handles database operations on push
// subscriptions.
type SubscriptionRepository struct {
	collection *mongo.Collection
}

// NewSubscriptionRepository creates a new instance of SubscriptionRepository.
func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{
		collection: db.Collection("push_subscriptions"),
	}
}

// Upsert registers a device endpoint, keyed by the endpoint URL so a
// browser re-subscribing does not create duplicate rows.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	filter := bson.M{"endpoint": sub.Endpoint}
	update := bson.M{
		"$set": bson.M{
			"user_id": sub.UserID,
			"p256dh":  sub.P256dh,
			"auth":    sub.Auth,
		},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", sub.UserID.Hex()).Error("Failed to upsert push subscription")
		return err
	}
	return nil
}

// ListByUser fetches every registered endpoint of one user.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch push subscriptions")
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.PushSubscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Delete prunes one subscription, used when the push endpoint reports
// itself permanently gone.
func (r *SubscriptionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("subscription_id", id.Hex()).Error("Failed to delete push subscription")
		return err
	}
	return nil
}

// DeleteByEndpoint removes a user's subscription by endpoint URL, the
// explicit opt-out path.
func (r *SubscriptionRepository) DeleteByEndpoint(ctx context.Context, userID primitive.ObjectID, endpoint string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "endpoint": endpoint})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to delete push subscription by endpoint")
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
