package services

import (
	"context"
	"errors"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/pkg/dday"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrProfileNotFound is returned when a user has no onboarded profile.
var ErrProfileNotFound = errors.New("profile not found")

// EventStore is the slice of timeline-event persistence the materializer
// and feed operations need.
type EventStore interface {
	InsertEvents(ctx context.Context, events []models.TimelineEvent) error
	ExistingContentIDs(ctx context.Context, userID primitive.ObjectID, contentIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.TimelineEvent, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	SetRead(ctx context.Context, id, userID primitive.ObjectID, read bool) error
	SetDismissed(ctx context.Context, id, userID primitive.ObjectID, dismissed bool) error
	SetBookmarked(ctx context.Context, id, userID primitive.ObjectID, bookmarked bool) error
}

// ProfileStore reads profiles for the materializer.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	ListOnboarded(ctx context.Context) ([]models.Profile, error)
}

// ChildStore reads a user's children for matching.
type ChildStore interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Child, error)
}

// Matcher computes the eligible content set for one profile snapshot.
type Matcher interface {
	Match(ctx context.Context, profile *models.Profile, children []models.Child, now time.Time, widened bool) ([]models.ContentItem, error)
}

// BatchResult summarizes one batch materialization sweep.
type BatchResult struct {
	UsersProcessed int `json:"users_processed"`
	EventsCreated  int `json:"events_created"`
}

// TimelineService materializes matched content into timeline events and
// serves feed mutations. Materialization is idempotent: it inserts only
// the matched content not yet represented by an event for that user, so
// re-running after a partial prior run creates no duplicates.
type TimelineService struct {
	events   EventStore
	profiles ProfileStore
	children ChildStore
	matcher  Matcher
	now      func() time.Time
}

// NewTimelineService creates a new instance of TimelineService.
func NewTimelineService(events EventStore, profiles ProfileStore, children ChildStore, matcher Matcher) *TimelineService {
	return &TimelineService{
		events:   events,
		profiles: profiles,
		children: children,
		matcher:  matcher,
		now:      time.Now,
	}
}

// GenerateForUser matches the user's current profile against the content
// library and persists the not-yet-materialized subset, returning the
// number of events created. Zero is a valid, common result. With reset,
// every existing event is deleted first so stale eligibility (e.g. a
// changed region) does not linger; reset is only ever user-triggered.
func (s *TimelineService) GenerateForUser(ctx context.Context, userID primitive.ObjectID, reset, widened bool) (int, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrProfileNotFound
		}
		return 0, err
	}

	children, err := s.children.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	matched, err := s.matcher.Match(ctx, profile, children, s.now(), widened)
	if err != nil {
		return 0, err
	}

	if reset {
		if _, err := s.events.DeleteByUser(ctx, userID); err != nil {
			return 0, err
		}
	}

	contentIDs := make([]primitive.ObjectID, 0, len(matched))
	for _, item := range matched {
		contentIDs = append(contentIDs, item.ID)
	}

	existing, err := s.events.ExistingContentIDs(ctx, userID, contentIDs)
	if err != nil {
		return 0, err
	}

	today := dday.Midnight(s.now())
	var newEvents []models.TimelineEvent
	for _, item := range matched {
		if existing[item.ID] {
			continue
		}
		newEvents = append(newEvents, models.TimelineEvent{
			UserID:            userID,
			ContentID:         item.ID,
			DisplayDate:       today,
			NotificationsSent: map[string]bool{},
		})
	}

	if len(newEvents) == 0 {
		return 0, nil
	}
	if err := s.events.InsertEvents(ctx, newEvents); err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID.Hex(),
		"created": len(newEvents),
	}).Info("Materialized timeline events")
	return len(newEvents), nil
}

// GenerateForAll runs the batch sweep over every onboarded profile with
// exact eligibility windows. A failing profile is logged and skipped; it
// never aborts the sweep for other users.
func (s *TimelineService) GenerateForAll(ctx context.Context) (*BatchResult, error) {
	profiles, err := s.profiles.ListOnboarded(ctx)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, profile := range profiles {
		created, err := s.GenerateForUser(ctx, profile.UserID, false, false)
		if err != nil {
			logrus.WithError(err).Warnf("Skipping content generation for user %s", profile.UserID.Hex())
			continue
		}
		result.UsersProcessed++
		result.EventsCreated += created
	}
	return result, nil
}

// ListFeed returns the user's feed, generating it on demand (widened
// windows) when it is empty.
func (s *TimelineService) ListFeed(ctx context.Context, userID primitive.ObjectID) ([]models.TimelineEvent, error) {
	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		return events, nil
	}

	if _, err := s.GenerateForUser(ctx, userID, false, true); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return events, nil
		}
		return nil, err
	}
	return s.events.ListByUser(ctx, userID)
}

// MarkRead flags one event as read.
func (s *TimelineService) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.events.SetRead(ctx, id, userID, true)
}

// Dismiss removes one event from the feed.
func (s *TimelineService) Dismiss(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.events.SetDismissed(ctx, id, userID, true)
}

// SetBookmarked toggles an event's bookmark.
func (s *TimelineService) SetBookmarked(ctx context.Context, id, userID primitive.ObjectID, bookmarked bool) error {
	return s.events.SetBookmarked(ctx, id, userID, bookmarked)
}
