package repository

import (
	"context"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/pkg/dday"
	"github.com/yerin5822/Maternote_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TimelineEventRepository handles database operations on materialized
// timeline events.
type TimelineEventRepository struct {
	collection *mongo.Collection
}

// NewTimelineEventRepository creates a new instance of TimelineEventRepository.
func NewTimelineEventRepository(db *mongo.Database) *TimelineEventRepository {
	return &TimelineEventRepository{
		collection: db.Collection("timeline_events"),
	}
}

// InsertEvents inserts a batch of newly materialized events.
func (r *TimelineEventRepository) InsertEvents(ctx context.Context, events []models.TimelineEvent) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(events))
	for i := range events {
		events[i].CreatedAt = time.Now()
		events[i].UpdatedAt = time.Now()
		docs = append(docs, events[i])
	}

	_, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert timeline events")
		return err
	}
	return nil
}

// ExistingContentIDs returns, out of the candidate content ids, the ones
// already materialized for the user. The materializer subtracts this set
// to keep at most one event per (user, content) pair.
func (r *TimelineEventRepository) ExistingContentIDs(ctx context.Context, userID primitive.ObjectID, contentIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	existing := make(map[primitive.ObjectID]bool)
	if len(contentIDs) == 0 {
		return existing, nil
	}

	filter := bson.M{
		"user_id":    userID,
		"content_id": bson.M{"$in": contentIDs},
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"content_id": 1}))
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch existing event content ids")
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ContentID primitive.ObjectID `bson:"content_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		existing[doc.ContentID] = true
	}
	return existing, cursor.Err()
}

// ListByUser fetches a user's feed, newest display date first. Dismissed
// events stay stored for dedup but never reappear in the feed.
func (r *TimelineEventRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.TimelineEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "display_date", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "is_dismissed": false}, opts)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch timeline events")
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.TimelineEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListUndismissed fetches every event still visible in some user's feed.
// This is the candidate set for the D-day pass of the sweep.
func (r *TimelineEventRepository) ListUndismissed(ctx context.Context) ([]models.TimelineEvent, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"is_dismissed": false})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch undismissed timeline events")
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.TimelineEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListUnreadByDisplayDate fetches unread events materialized on the given
// day, the candidate set for the new-content digest.
func (r *TimelineEventRepository) ListUnreadByDisplayDate(ctx context.Context, day time.Time) ([]models.TimelineEvent, error) {
	day = dday.Midnight(day)
	filter := bson.M{
		"is_read": false,
		"display_date": bson.M{
			"$gte": day,
			"$lt":  day.AddDate(0, 0, 1),
		},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch today's timeline events")
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.TimelineEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// setFlag updates one boolean flag of an event owned by the user. Flags
// are written individually so a concurrent sweep marking a notification
// sent is never clobbered.
func (r *TimelineEventRepository) setFlag(ctx context.Context, id, userID primitive.ObjectID, field string, value bool) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now()}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("event_id", id.Hex()).Errorf("Failed to set %s", field)
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetRead marks an event read or unread.
func (r *TimelineEventRepository) SetRead(ctx context.Context, id, userID primitive.ObjectID, read bool) error {
	return r.setFlag(ctx, id, userID, "is_read", read)
}

// SetDismissed removes an event from (or restores it to) the feed.
func (r *TimelineEventRepository) SetDismissed(ctx context.Context, id, userID primitive.ObjectID, dismissed bool) error {
	return r.setFlag(ctx, id, userID, "is_dismissed", dismissed)
}

// SetBookmarked toggles the bookmark flag of an event.
func (r *TimelineEventRepository) SetBookmarked(ctx context.Context, id, userID primitive.ObjectID, bookmarked bool) error {
	return r.setFlag(ctx, id, userID, "is_bookmarked", bookmarked)
}

// MarkNotificationSent durably records that the notification for one
// D-day key fired. The dotted path touches only that key, so two
// overlapping sweeps at worst write the same true value twice.
func (r *TimelineEventRepository) MarkNotificationSent(ctx context.Context, id primitive.ObjectID, key string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"notifications_sent." + key: true, "updated_at": time.Now()}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("event_id", id.Hex()).Error("Failed to mark notification sent")
		return err
	}
	return nil
}

// DeleteByUser removes every event of a user. Only the user-triggered
// reset path calls this.
func (r *TimelineEventRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to delete timeline events")
		return 0, err
	}
	logger.Log.WithFields(map[string]interface{}{
		"user_id": userID.Hex(),
		"count":   result.DeletedCount,
	}).Info("Deleted timeline events for reset")
	return result.DeletedCount, nil
}
