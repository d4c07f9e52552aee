package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeSweepEventStore struct {
	events []models.TimelineEvent
	err    error
}

func (f *fakeSweepEventStore) ListUndismissed(_ context.Context) ([]models.TimelineEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.TimelineEvent
	for _, e := range f.events {
		if !e.IsDismissed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSweepEventStore) ListUnreadByDisplayDate(_ context.Context, day time.Time) ([]models.TimelineEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	next := day.AddDate(0, 0, 1)
	var out []models.TimelineEvent
	for _, e := range f.events {
		if !e.IsRead && !e.DisplayDate.Before(day) && e.DisplayDate.Before(next) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSweepEventStore) MarkNotificationSent(_ context.Context, id primitive.ObjectID, key string) error {
	for i := range f.events {
		if f.events[i].ID == id {
			if f.events[i].NotificationsSent == nil {
				f.events[i].NotificationsSent = map[string]bool{}
			}
			f.events[i].NotificationsSent[key] = true
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type fakeSweepMilestoneStore struct {
	milestones []models.Milestone
	err        error
}

func (f *fakeSweepMilestoneStore) ListIncomplete(_ context.Context) ([]models.Milestone, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Milestone
	for _, m := range f.milestones {
		if !m.Completed {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSweepMilestoneStore) MarkNotificationSent(_ context.Context, id primitive.ObjectID, offset int) error {
	for i := range f.milestones {
		if f.milestones[i].ID != id {
			continue
		}
		if !containsInt(f.milestones[i].NotificationsSent, offset) {
			f.milestones[i].NotificationsSent = append(f.milestones[i].NotificationsSent, offset)
		}
		return nil
	}
	return mongo.ErrNoDocuments
}

type fakeSweepProfileStore struct {
	profiles []models.Profile
}

func (f *fakeSweepProfileStore) ListOnboarded(_ context.Context) ([]models.Profile, error) {
	return f.profiles, nil
}

type fakeSweepChildStore struct {
	children []models.Child
}

func (f *fakeSweepChildStore) ListAll(_ context.Context) ([]models.Child, error) {
	return f.children, nil
}

type fakeLibrary struct {
	items []models.ContentItem
}

func (f *fakeLibrary) ListAll(_ context.Context) ([]models.ContentItem, error) {
	return f.items, nil
}

type fakeNotificationPruner struct {
	pruned int
}

func (f *fakeNotificationPruner) DeleteExpired(_ context.Context) error {
	f.pruned++
	return nil
}

// fakeDispatcher records every payload per user.
type fakeDispatcher struct {
	payloads map[primitive.ObjectID][]services.PushPayload
	hadSubs  bool
	err      error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, userID primitive.ObjectID, payload services.PushPayload) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.payloads == nil {
		f.payloads = map[primitive.ObjectID][]services.PushPayload{}
	}
	f.payloads[userID] = append(f.payloads[userID], payload)
	return f.hadSubs, nil
}

func (f *fakeDispatcher) total() int {
	n := 0
	for _, p := range f.payloads {
		n += len(p)
	}
	return n
}

var sweepNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
var sweepToday = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newNotifier(events *fakeSweepEventStore, milestones *fakeSweepMilestoneStore, profiles *fakeSweepProfileStore, children *fakeSweepChildStore, library *fakeLibrary, dispatcher *fakeDispatcher) *DdayNotifier {
	n := NewDdayNotifier(events, milestones, profiles, children, library, &fakeNotificationPruner{}, dispatcher)
	n.now = func() time.Time { return sweepNow }
	return n
}

func intPtr(v int) *int { return &v }

func TestSweepFiresEventOnceAndMarksKey(t *testing.T) {
	userID := primitive.NewObjectID()
	// Pregnancy started 133 days before today, so week-20 content
	// projects to today + 7 days.
	start := sweepToday.AddDate(0, 0, -133)
	item := models.ContentItem{
		ID:        primitive.NewObjectID(),
		Title:     "Glucose screening",
		Category:  models.CategoryPregnancy,
		WeekStart: intPtr(20),
		WeekEnd:   intPtr(24),
	}
	events := &fakeSweepEventStore{events: []models.TimelineEvent{{
		ID:                primitive.NewObjectID(),
		UserID:            userID,
		ContentID:         item.ID,
		DisplayDate:       sweepToday.AddDate(0, 0, -30),
		NotificationsSent: map[string]bool{},
	}}}
	// No subscriptions registered: the threshold is still marked sent,
	// best-effort with no backfill.
	dispatcher := &fakeDispatcher{hadSubs: false}
	notifier := newNotifier(events, &fakeSweepMilestoneStore{}, &fakeSweepProfileStore{profiles: []models.Profile{
		{UserID: userID, Stage: models.StagePregnant, PregnancyStartDate: &start},
	}}, &fakeSweepChildStore{}, &fakeLibrary{items: []models.ContentItem{item}}, dispatcher)

	result, err := notifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TimelineEventsChecked)
	assert.Equal(t, 1, result.NotificationsSent)
	assert.True(t, events.events[0].NotificationsSent["d7"])

	require.Len(t, dispatcher.payloads[userID], 1)
	payload := dispatcher.payloads[userID][0]
	assert.Equal(t, "dday", payload.Type)
	assert.Contains(t, payload.Body, "7 days away")

	// The same tick repeated dispatches nothing new.
	result, err = notifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.NotificationsSent)
	assert.Equal(t, 1, dispatcher.total())
}

func TestSweepMilestoneOffsets(t *testing.T) {
	tests := []struct {
		name       string
		daysAhead  int
		wantSent   int
		wantInBody string
	}{
		{"d-day", 0, 1, "scheduled for today"},
		{"three days before", 3, 1, "coming up in 3 days"},
		{"week before", 7, 1, "7 days away"},
		{"off-schedule day", 10, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID := primitive.NewObjectID()
			milestones := &fakeSweepMilestoneStore{milestones: []models.Milestone{{
				ID:            primitive.NewObjectID(),
				UserID:        userID,
				Title:         "First checkup",
				Category:      models.CategoryPregnancy,
				ScheduledDate: sweepToday.AddDate(0, 0, tt.daysAhead),
			}}}
			dispatcher := &fakeDispatcher{hadSubs: true}
			notifier := newNotifier(&fakeSweepEventStore{}, milestones, &fakeSweepProfileStore{}, &fakeSweepChildStore{}, &fakeLibrary{}, dispatcher)

			result, err := notifier.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, result.TimelinesChecked)
			assert.Equal(t, tt.wantSent, result.NotificationsSent)

			if tt.wantSent == 0 {
				assert.Empty(t, dispatcher.payloads)
				assert.Empty(t, milestones.milestones[0].NotificationsSent)
				return
			}
			require.Len(t, dispatcher.payloads[userID], 1)
			assert.Contains(t, dispatcher.payloads[userID][0].Body, tt.wantInBody)
			assert.Equal(t, []int{tt.daysAhead}, milestones.milestones[0].NotificationsSent)
		})
	}
}

func TestSweepMilestoneCustomOffsetsAndDedup(t *testing.T) {
	userID := primitive.NewObjectID()
	fired := models.Milestone{
		ID:                primitive.NewObjectID(),
		UserID:            userID,
		Title:             "Already notified",
		ScheduledDate:     sweepToday.AddDate(0, 0, 7),
		NotificationsSent: []int{7},
	}
	custom := models.Milestone{
		ID:               primitive.NewObjectID(),
		UserID:           userID,
		Title:            "Day-before reminder",
		ScheduledDate:    sweepToday.AddDate(0, 0, 1),
		NotificationDays: []int{1},
	}
	milestones := &fakeSweepMilestoneStore{milestones: []models.Milestone{fired, custom}}
	dispatcher := &fakeDispatcher{hadSubs: true}
	notifier := newNotifier(&fakeSweepEventStore{}, milestones, &fakeSweepProfileStore{}, &fakeSweepChildStore{}, &fakeLibrary{}, dispatcher)

	result, err := notifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.TimelinesChecked)
	assert.Equal(t, 1, result.NotificationsSent)
	require.Len(t, dispatcher.payloads[userID], 1)
	assert.Contains(t, dispatcher.payloads[userID][0].Body, "Day-before reminder")
}

func TestSweepProjectsMonthTargetFromYoungestChild(t *testing.T) {
	userID := primitive.NewObjectID()
	// Born Feb 4: month-4 content projects to Jun 4, three days out.
	birth := time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)
	older := time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC)
	item := models.ContentItem{
		ID:         primitive.NewObjectID(),
		Title:      "4-month checkup",
		Category:   models.CategoryParenting,
		MonthStart: intPtr(4),
		MonthEnd:   intPtr(5),
	}
	events := &fakeSweepEventStore{events: []models.TimelineEvent{{
		ID:                primitive.NewObjectID(),
		UserID:            userID,
		ContentID:         item.ID,
		DisplayDate:       sweepToday.AddDate(0, 0, -30),
		NotificationsSent: map[string]bool{},
	}}}
	dispatcher := &fakeDispatcher{hadSubs: true}
	notifier := newNotifier(events, &fakeSweepMilestoneStore{}, &fakeSweepProfileStore{profiles: []models.Profile{
		{UserID: userID, Stage: models.StageParenting},
	}}, &fakeSweepChildStore{children: []models.Child{
		{UserID: userID, Status: models.ChildBorn, BirthDate: &older},
		{UserID: userID, Status: models.ChildBorn, BirthDate: &birth},
	}}, &fakeLibrary{items: []models.ContentItem{item}}, dispatcher)

	result, err := notifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotificationsSent)
	assert.True(t, events.events[0].NotificationsSent["d3"])
	require.Len(t, dispatcher.payloads[userID], 1)
	assert.Contains(t, dispatcher.payloads[userID][0].Body, "coming up in 3 days")
}

func TestSweepSkipsEventWithoutProfile(t *testing.T) {
	orphan := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	start := sweepToday.AddDate(0, 0, -140)
	item := models.ContentItem{
		ID:        primitive.NewObjectID(),
		Title:     "Checkup",
		Category:  models.CategoryPregnancy,
		WeekStart: intPtr(20),
	}
	events := &fakeSweepEventStore{events: []models.TimelineEvent{
		{ID: primitive.NewObjectID(), UserID: orphan, ContentID: item.ID, DisplayDate: sweepToday.AddDate(0, 0, -30)},
		{ID: primitive.NewObjectID(), UserID: userID, ContentID: item.ID, DisplayDate: sweepToday.AddDate(0, 0, -30)},
	}}
	dispatcher := &fakeDispatcher{hadSubs: true}
	notifier := newNotifier(events, &fakeSweepMilestoneStore{}, &fakeSweepProfileStore{profiles: []models.Profile{
		{UserID: userID, Stage: models.StagePregnant, PregnancyStartDate: &start},
	}}, &fakeSweepChildStore{}, &fakeLibrary{items: []models.ContentItem{item}}, dispatcher)

	result, err := notifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.TimelineEventsChecked)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.NotificationsSent)
}

func TestSweepAbortsOnStoreReadError(t *testing.T) {
	dispatcher := &fakeDispatcher{hadSubs: true}
	notifier := newNotifier(&fakeSweepEventStore{}, &fakeSweepMilestoneStore{err: errors.New("connection reset")}, &fakeSweepProfileStore{}, &fakeSweepChildStore{}, &fakeLibrary{}, dispatcher)

	_, err := notifier.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, dispatcher.payloads)
}

func TestSweepPrunesExpiredNotifications(t *testing.T) {
	pruner := &fakeNotificationPruner{}
	notifier := NewDdayNotifier(&fakeSweepEventStore{}, &fakeSweepMilestoneStore{}, &fakeSweepProfileStore{}, &fakeSweepChildStore{}, &fakeLibrary{}, pruner, &fakeDispatcher{hadSubs: true})
	notifier.now = func() time.Time { return sweepNow }

	_, err := notifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pruner.pruned)
}

func TestSweepSendsNewContentDigests(t *testing.T) {
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	library := &fakeLibrary{}
	var eventsToday []models.TimelineEvent
	for _, title := range []string{"Folic acid", "Checkup schedule", "Leave forms", "Support fund"} {
		item := models.ContentItem{ID: primitive.NewObjectID(), Title: title, Category: models.CategoryPregnancy}
		library.items = append(library.items, item)
		eventsToday = append(eventsToday, models.TimelineEvent{
			ID:          primitive.NewObjectID(),
			UserID:      userA,
			ContentID:   item.ID,
			DisplayDate: sweepToday,
		})
	}
	single := models.ContentItem{ID: primitive.NewObjectID(), Title: "Daycare waitlist", Category: models.CategoryParenting}
	library.items = append(library.items, single)
	eventsToday = append(eventsToday, models.TimelineEvent{
		ID:          primitive.NewObjectID(),
		UserID:      userB,
		ContentID:   single.ID,
		DisplayDate: sweepToday,
	})

	events := &fakeSweepEventStore{events: eventsToday}
	dispatcher := &fakeDispatcher{hadSubs: true}
	notifier := newNotifier(events, &fakeSweepMilestoneStore{}, &fakeSweepProfileStore{profiles: []models.Profile{
		{UserID: userA, Stage: models.StagePregnant},
		{UserID: userB, Stage: models.StageParenting},
	}}, &fakeSweepChildStore{}, library, dispatcher)

	result, err := notifier.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewContentUsers)
	assert.Equal(t, 0, result.NotificationsSent, "window-less content has no D-day")

	require.Len(t, dispatcher.payloads[userA], 1)
	digestA := dispatcher.payloads[userA][0]
	assert.Equal(t, "new_content", digestA.Type)
	assert.Equal(t, "Folic acid, Checkup schedule and 2 more", digestA.Body)

	require.Len(t, dispatcher.payloads[userB], 1)
	assert.Equal(t, "Daycare waitlist", dispatcher.payloads[userB][0].Body)
}
