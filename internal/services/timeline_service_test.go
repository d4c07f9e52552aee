package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeEventStore struct {
	events []models.TimelineEvent
}

func (f *fakeEventStore) InsertEvents(_ context.Context, events []models.TimelineEvent) error {
	for i := range events {
		events[i].ID = primitive.NewObjectID()
	}
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEventStore) ExistingContentIDs(_ context.Context, userID primitive.ObjectID, contentIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	asked := make(map[primitive.ObjectID]bool, len(contentIDs))
	for _, id := range contentIDs {
		asked[id] = true
	}
	existing := make(map[primitive.ObjectID]bool)
	for _, e := range f.events {
		if e.UserID == userID && asked[e.ContentID] {
			existing[e.ContentID] = true
		}
	}
	return existing, nil
}

func (f *fakeEventStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.TimelineEvent, error) {
	var out []models.TimelineEvent
	for _, e := range f.events {
		if e.UserID == userID && !e.IsDismissed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var kept []models.TimelineEvent
	var deleted int64
	for _, e := range f.events {
		if e.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.events = kept
	return deleted, nil
}

func (f *fakeEventStore) setFlag(id, userID primitive.ObjectID, set func(*models.TimelineEvent)) error {
	for i := range f.events {
		if f.events[i].ID == id && f.events[i].UserID == userID {
			set(&f.events[i])
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (f *fakeEventStore) SetRead(_ context.Context, id, userID primitive.ObjectID, read bool) error {
	return f.setFlag(id, userID, func(e *models.TimelineEvent) { e.IsRead = read })
}

func (f *fakeEventStore) SetDismissed(_ context.Context, id, userID primitive.ObjectID, dismissed bool) error {
	return f.setFlag(id, userID, func(e *models.TimelineEvent) { e.IsDismissed = dismissed })
}

func (f *fakeEventStore) SetBookmarked(_ context.Context, id, userID primitive.ObjectID, bookmarked bool) error {
	return f.setFlag(id, userID, func(e *models.TimelineEvent) { e.IsBookmarked = bookmarked })
}

type fakeProfileStore struct {
	profiles []models.Profile
}

func (f *fakeProfileStore) GetByUserID(_ context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	for i := range f.profiles {
		if f.profiles[i].UserID == userID {
			return &f.profiles[i], nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeProfileStore) ListOnboarded(_ context.Context) ([]models.Profile, error) {
	return f.profiles, nil
}

type fakeChildStore struct {
	children map[primitive.ObjectID][]models.Child
	errFor   map[primitive.ObjectID]error
}

func (f *fakeChildStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Child, error) {
	if err := f.errFor[userID]; err != nil {
		return nil, err
	}
	return f.children[userID], nil
}

// fakeMatcher returns a fixed eligible set per user and records the last
// widened flag it was asked for.
type fakeMatcher struct {
	itemsFor    map[primitive.ObjectID][]models.ContentItem
	lastWidened bool
}

func (f *fakeMatcher) Match(_ context.Context, profile *models.Profile, _ []models.Child, _ time.Time, widened bool) ([]models.ContentItem, error) {
	f.lastWidened = widened
	return f.itemsFor[profile.UserID], nil
}

func contentItems(n int) []models.ContentItem {
	items := make([]models.ContentItem, n)
	for i := range items {
		items[i] = models.ContentItem{ID: primitive.NewObjectID(), Title: "item", Category: models.CategoryPregnancy}
	}
	return items
}

func newTimelineFixture(userID primitive.ObjectID, items []models.ContentItem) (*TimelineService, *fakeEventStore, *fakeMatcher) {
	events := &fakeEventStore{}
	profiles := &fakeProfileStore{profiles: []models.Profile{{UserID: userID, Stage: models.StagePlanning}}}
	children := &fakeChildStore{}
	matcher := &fakeMatcher{itemsFor: map[primitive.ObjectID][]models.ContentItem{userID: items}}
	svc := NewTimelineService(events, profiles, children, matcher)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC) }
	return svc, events, matcher
}

func TestGenerateForUserIdempotent(t *testing.T) {
	userID := primitive.NewObjectID()
	svc, events, _ := newTimelineFixture(userID, contentItems(2))

	created, err := svc.GenerateForUser(context.Background(), userID, false, false)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Len(t, events.events, 2)

	// A second run over the same eligible set creates nothing.
	created, err = svc.GenerateForUser(context.Background(), userID, false, false)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, events.events, 2)
}

func TestGenerateForUserNormalizesDisplayDate(t *testing.T) {
	userID := primitive.NewObjectID()
	svc, events, _ := newTimelineFixture(userID, contentItems(1))

	_, err := svc.GenerateForUser(context.Background(), userID, false, false)
	require.NoError(t, err)

	require.Len(t, events.events, 1)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), events.events[0].DisplayDate)
	assert.NotNil(t, events.events[0].NotificationsSent)
}

func TestGenerateForUserReset(t *testing.T) {
	userID := primitive.NewObjectID()
	newItems := contentItems(3)
	svc, events, matcher := newTimelineFixture(userID, contentItems(5))

	// First materialization under the old profile: 5 events.
	_, err := svc.GenerateForUser(context.Background(), userID, false, false)
	require.NoError(t, err)
	require.Len(t, events.events, 5)
	oldIDs := make([]primitive.ObjectID, 0, 5)
	for _, e := range events.events {
		oldIDs = append(oldIDs, e.ContentID)
	}

	// The region changed, so the eligible set is different now.
	matcher.itemsFor[userID] = newItems

	created, err := svc.GenerateForUser(context.Background(), userID, true, false)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Len(t, events.events, 3)
	for _, e := range events.events {
		assert.NotContains(t, oldIDs, e.ContentID, "events from the old region must be gone")
	}
}

func TestGenerateForUserWithoutProfile(t *testing.T) {
	svc, _, _ := newTimelineFixture(primitive.NewObjectID(), nil)

	_, err := svc.GenerateForUser(context.Background(), primitive.NewObjectID(), false, false)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGenerateForAllSkipsFailingUser(t *testing.T) {
	okUser := primitive.NewObjectID()
	badUser := primitive.NewObjectID()

	events := &fakeEventStore{}
	profiles := &fakeProfileStore{profiles: []models.Profile{
		{UserID: badUser, Stage: models.StagePlanning},
		{UserID: okUser, Stage: models.StagePlanning},
	}}
	children := &fakeChildStore{errFor: map[primitive.ObjectID]error{badUser: errors.New("read timeout")}}
	matcher := &fakeMatcher{itemsFor: map[primitive.ObjectID][]models.ContentItem{okUser: contentItems(2)}}
	svc := NewTimelineService(events, profiles, children, matcher)

	result, err := svc.GenerateForAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.UsersProcessed)
	assert.Equal(t, 2, result.EventsCreated)
}

func TestListFeedGeneratesOnDemand(t *testing.T) {
	userID := primitive.NewObjectID()
	svc, _, matcher := newTimelineFixture(userID, contentItems(2))

	feed, err := svc.ListFeed(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
	assert.True(t, matcher.lastWidened, "on-demand generation uses widened windows")
}

func TestListFeedWithoutProfile(t *testing.T) {
	svc, _, _ := newTimelineFixture(primitive.NewObjectID(), nil)

	feed, err := svc.ListFeed(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestDismissHidesEventFromFeed(t *testing.T) {
	userID := primitive.NewObjectID()
	svc, events, _ := newTimelineFixture(userID, contentItems(2))

	_, err := svc.GenerateForUser(context.Background(), userID, false, false)
	require.NoError(t, err)

	require.NoError(t, svc.Dismiss(context.Background(), events.events[0].ID, userID))

	feed, err := svc.ListFeed(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, feed, 1)
}
