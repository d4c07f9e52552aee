package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/yerin5822/Maternote_Server/internal/services"
	"github.com/yerin5822/Maternote_Server/pkg/dday"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationDayOffsets are the D-day triggers for timeline events:
// 7 and 3 days before the projected target date, and the day itself.
var NotificationDayOffsets = []int{7, 3, 0}

// EventStore is the timeline-event access the sweep needs.
type EventStore interface {
	ListUndismissed(ctx context.Context) ([]models.TimelineEvent, error)
	ListUnreadByDisplayDate(ctx context.Context, day time.Time) ([]models.TimelineEvent, error)
	MarkNotificationSent(ctx context.Context, id primitive.ObjectID, key string) error
}

// MilestoneStore is the legacy-milestone access the sweep needs.
type MilestoneStore interface {
	ListIncomplete(ctx context.Context) ([]models.Milestone, error)
	MarkNotificationSent(ctx context.Context, id primitive.ObjectID, offset int) error
}

// ProfileStore lists the profiles the sweep joins events against.
type ProfileStore interface {
	ListOnboarded(ctx context.Context) ([]models.Profile, error)
}

// ChildStore lists all children, for birth-relative target projection.
type ChildStore interface {
	ListAll(ctx context.Context) ([]models.Child, error)
}

// ContentStore reads the content library for the event join.
type ContentStore interface {
	ListAll(ctx context.Context) ([]models.ContentItem, error)
}

// NotificationStore prunes the in-app notification inbox.
type NotificationStore interface {
	DeleteExpired(ctx context.Context) error
}

// Dispatcher fans one logical notification out to a user's devices. The
// bool reports whether the user had any subscription to attempt.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID primitive.ObjectID, payload services.PushPayload) (bool, error)
}

// SweepResult is the summary returned to the cron trigger.
type SweepResult struct {
	TimelinesChecked      int `json:"timelines_checked"`
	TimelineEventsChecked int `json:"timeline_events_checked"`
	NotificationsSent     int `json:"notifications_sent"`
	Skipped               int `json:"skipped"`
	NewContentUsers       int `json:"new_content_users"`
}

// DdayNotifier runs the daily notification sweep: for every incomplete
// milestone and undismissed timeline event it decides whether today
// crosses a notification threshold not yet fired, dispatches, and
// durably marks the threshold sent. The dedup key (record, offset) is
// checked before dispatch and written after, so a crash re-attempts on
// the next tick rather than losing a milestone.
type DdayNotifier struct {
	events        EventStore
	milestones    MilestoneStore
	profiles      ProfileStore
	children      ChildStore
	content       ContentStore
	notifications NotificationStore
	dispatcher    Dispatcher
	now           func() time.Time
}

// NewDdayNotifier creates a new instance of DdayNotifier.
func NewDdayNotifier(events EventStore, milestones MilestoneStore, profiles ProfileStore, children ChildStore, content ContentStore, notifications NotificationStore, dispatcher Dispatcher) *DdayNotifier {
	return &DdayNotifier{
		events:        events,
		milestones:    milestones,
		profiles:      profiles,
		children:      children,
		content:       content,
		notifications: notifications,
		dispatcher:    dispatcher,
		now:           time.Now,
	}
}

// Run executes one full sweep. A store read error on any candidate query
// aborts the whole run (the next scheduled tick retries); a per-record
// failure only skips that record.
func (n *DdayNotifier) Run(ctx context.Context) (*SweepResult, error) {
	runLog := logrus.WithField("run_id", uuid.NewString())
	runLog.Info("Starting D-day notification sweep")

	result := &SweepResult{}
	today := dday.Midnight(n.now())

	if err := n.sweepMilestones(ctx, today, result); err != nil {
		return nil, err
	}
	if err := n.sweepTimelineEvents(ctx, today, result); err != nil {
		return nil, err
	}
	if err := n.sendNewContentDigests(ctx, today, result); err != nil {
		return nil, err
	}

	// Inbox housekeeping rides along with the daily tick; a failure
	// here never fails the sweep.
	if err := n.notifications.DeleteExpired(ctx); err != nil {
		runLog.WithError(err).Warn("Failed to prune expired notifications")
	}

	runLog.WithFields(logrus.Fields{
		"timelines_checked":       result.TimelinesChecked,
		"timeline_events_checked": result.TimelineEventsChecked,
		"notifications_sent":      result.NotificationsSent,
		"skipped":                 result.Skipped,
		"new_content_users":       result.NewContentUsers,
	}).Info("D-day notification sweep completed")
	return result, nil
}

func (n *DdayNotifier) sweepMilestones(ctx context.Context, today time.Time, result *SweepResult) error {
	milestones, err := n.milestones.ListIncomplete(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch timelines: %w", err)
	}

	for _, m := range milestones {
		result.TimelinesChecked++

		offsets := m.NotificationDays
		if len(offsets) == 0 {
			offsets = models.DefaultNotificationDays
		}

		daysUntil := dday.DaysUntil(today, m.ScheduledDate)
		if !containsInt(offsets, daysUntil) || containsInt(m.NotificationsSent, daysUntil) {
			continue
		}

		title, body := milestoneMessage(m, daysUntil)
		if _, err := n.dispatcher.Dispatch(ctx, m.UserID, services.PushPayload{
			Type:  "timeline",
			Title: title,
			Body:  body,
			URL:   "/timeline",
		}); err != nil {
			logrus.WithError(err).Warnf("Skipping milestone %s, dispatch failed", m.ID.Hex())
			result.Skipped++
			continue
		}

		// Marked sent even when the user had zero subscriptions:
		// best-effort, no backfill. Without this, unreachable users
		// would be re-evaluated forever.
		if err := n.milestones.MarkNotificationSent(ctx, m.ID, daysUntil); err != nil {
			logrus.WithError(err).Warnf("Failed to mark milestone %s sent", m.ID.Hex())
			result.Skipped++
			continue
		}
		result.NotificationsSent++
	}
	return nil
}

func (n *DdayNotifier) sweepTimelineEvents(ctx context.Context, today time.Time, result *SweepResult) error {
	events, err := n.events.ListUndismissed(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch timeline events: %w", err)
	}

	contentByID, err := n.contentByID(ctx)
	if err != nil {
		return err
	}
	profilesByUser, err := n.profilesByUser(ctx)
	if err != nil {
		return err
	}
	birthByUser, err := n.youngestBirthByUser(ctx)
	if err != nil {
		return err
	}

	for _, event := range events {
		result.TimelineEventsChecked++

		item, ok := contentByID[event.ContentID]
		if !ok {
			result.Skipped++
			continue
		}
		profile, ok := profilesByUser[event.UserID]
		if !ok {
			result.Skipped++
			continue
		}

		target, ok := projectTarget(item, profile, birthByUser[event.UserID])
		if !ok {
			// Window-less content has no D-day; date-less profiles are
			// re-evaluated next tick once the dates are filled in.
			continue
		}

		daysUntil := dday.DaysUntil(today, target)
		if !containsInt(NotificationDayOffsets, daysUntil) {
			continue
		}
		key := dday.Key(daysUntil)
		if event.NotificationsSent[key] {
			continue
		}

		title, body := contentMessage(item, daysUntil)
		if _, err := n.dispatcher.Dispatch(ctx, event.UserID, services.PushPayload{
			Type:  "dday",
			Title: title,
			Body:  body,
			URL:   "/timeline",
		}); err != nil {
			logrus.WithError(err).Warnf("Skipping event %s, dispatch failed", event.ID.Hex())
			result.Skipped++
			continue
		}

		if err := n.events.MarkNotificationSent(ctx, event.ID, key); err != nil {
			logrus.WithError(err).Warnf("Failed to mark event %s sent", event.ID.Hex())
			result.Skipped++
			continue
		}
		result.NotificationsSent++
	}
	return nil
}

// sendNewContentDigests sends one digest per user summarizing events
// materialized today and not yet read. No dedup key is needed:
// display_date equals today exactly once.
func (n *DdayNotifier) sendNewContentDigests(ctx context.Context, today time.Time, result *SweepResult) error {
	events, err := n.events.ListUnreadByDisplayDate(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to fetch today's events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	contentByID, err := n.contentByID(ctx)
	if err != nil {
		return err
	}

	titlesByUser := make(map[primitive.ObjectID][]string)
	var order []primitive.ObjectID
	for _, event := range events {
		item, ok := contentByID[event.ContentID]
		if !ok {
			continue
		}
		if _, seen := titlesByUser[event.UserID]; !seen {
			order = append(order, event.UserID)
		}
		titlesByUser[event.UserID] = append(titlesByUser[event.UserID], item.Title)
	}

	for _, userID := range order {
		title, body := digestMessage(titlesByUser[userID])
		if _, err := n.dispatcher.Dispatch(ctx, userID, services.PushPayload{
			Type:  "new_content",
			Title: title,
			Body:  body,
			URL:   "/timeline",
		}); err != nil {
			logrus.WithError(err).Warnf("Digest dispatch failed for user %s", userID.Hex())
			result.Skipped++
			continue
		}
		result.NewContentUsers++
	}
	return nil
}

// projectTarget maps a content window onto a concrete calendar date for
// one user: week_start weeks from pregnancy start, or month_start
// calendar months from the youngest child's birth date.
func projectTarget(item models.ContentItem, profile models.Profile, birth *time.Time) (time.Time, bool) {
	if item.WeekStart != nil {
		start, ok := dday.PregnancyStart(profile.DueDate, profile.PregnancyStartDate)
		if !ok {
			return time.Time{}, false
		}
		return dday.ProjectWeekTarget(start, *item.WeekStart), true
	}
	if item.MonthStart != nil {
		if birth == nil {
			return time.Time{}, false
		}
		return dday.ProjectMonthTarget(*birth, *item.MonthStart), true
	}
	return time.Time{}, false
}

func (n *DdayNotifier) contentByID(ctx context.Context) (map[primitive.ObjectID]models.ContentItem, error) {
	items, err := n.content.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content library: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.ContentItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID, nil
}

func (n *DdayNotifier) profilesByUser(ctx context.Context) (map[primitive.ObjectID]models.Profile, error) {
	profiles, err := n.profiles.ListOnboarded(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profiles: %w", err)
	}
	byUser := make(map[primitive.ObjectID]models.Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}
	return byUser, nil
}

func (n *DdayNotifier) youngestBirthByUser(ctx context.Context) (map[primitive.ObjectID]*time.Time, error) {
	children, err := n.children.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch children: %w", err)
	}
	byUser := make(map[primitive.ObjectID]*time.Time)
	for i := range children {
		child := children[i]
		if child.Status != models.ChildBorn || child.BirthDate == nil {
			continue
		}
		if current := byUser[child.UserID]; current == nil || child.BirthDate.After(*current) {
			byUser[child.UserID] = child.BirthDate
		}
	}
	return byUser, nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
