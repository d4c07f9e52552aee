package repository

import (
	"context"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ContentRepository reads the content library. The library is seeded by
// an external ingestion pipeline and is read-only from this server.
// Each method corresponds to one matcher branch, so a single match run
// costs one query per applicable branch rather than one per item.
type ContentRepository struct {
	collection *mongo.Collection
}

// NewContentRepository creates a new instance of ContentRepository.
func NewContentRepository(db *mongo.Database) *ContentRepository {
	return &ContentRepository{
		collection: db.Collection("content_items"),
	}
}

func (r *ContentRepository) find(ctx context.Context, filter bson.M) ([]models.ContentItem, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to query content library")
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.ContentItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByStage fetches every item tagged with one stage.
func (r *ContentRepository) FindByStage(ctx context.Context, stage string) ([]models.ContentItem, error) {
	return r.find(ctx, bson.M{"stage": stage})
}

// FindByStageWeekRange fetches items of a stage whose week window
// overlaps [weekLo, weekHi].
func (r *ContentRepository) FindByStageWeekRange(ctx context.Context, stage string, weekLo, weekHi int) ([]models.ContentItem, error) {
	return r.find(ctx, bson.M{
		"stage":      stage,
		"week_start": bson.M{"$lte": weekHi},
		"week_end":   bson.M{"$gte": weekLo},
	})
}

// FindByStagesMonthRange fetches items of any of the given stages whose
// month window overlaps [monthLo, monthHi].
func (r *ContentRepository) FindByStagesMonthRange(ctx context.Context, stages []string, monthLo, monthHi int) ([]models.ContentItem, error) {
	return r.find(ctx, bson.M{
		"stage":       bson.M{"$in": stages},
		"month_start": bson.M{"$lte": monthHi},
		"month_end":   bson.M{"$gte": monthLo},
	})
}

// FindByStageWindowless fetches stage content carrying neither a week
// nor a month window. Such items are always eligible once the stage
// matches.
func (r *ContentRepository) FindByStageWindowless(ctx context.Context, stage string) ([]models.ContentItem, error) {
	return r.find(ctx, bson.M{
		"stage":       stage,
		"week_start":  bson.M{"$exists": false},
		"month_start": bson.M{"$exists": false},
	})
}

// FindWorkItems fetches the employment-gated work content, which is
// eligible for working users regardless of week.
func (r *ContentRepository) FindWorkItems(ctx context.Context) ([]models.ContentItem, error) {
	return r.find(ctx, bson.M{
		"category":          models.CategoryWork,
		"employment_filter": true,
	})
}

// FindGovernmentSupport fetches every government-support item. Region
// filtering happens in the matcher because the city fallback is a title
// substring match that mongo cannot index usefully.
func (r *ContentRepository) FindGovernmentSupport(ctx context.Context) ([]models.ContentItem, error) {
	return r.find(ctx, bson.M{"category": models.CategoryGovernmentSupport})
}

// ListAll fetches the whole content library. The notification sweep uses
// it to join events to their content in one round trip.
func (r *ContentRepository) ListAll(ctx context.Context) ([]models.ContentItem, error) {
	return r.find(ctx, bson.M{})
}
