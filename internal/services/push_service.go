package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrSubscriptionGone signals that a push endpoint is permanently
// invalid and its subscription must be pruned.
var ErrSubscriptionGone = errors.New("push subscription gone")

// PushPayload is one logical notification to a user.
type PushPayload struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// SubscriptionStore is the push-subscription persistence the dispatcher
// needs.
type SubscriptionStore interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// NotificationStore records the in-app copy of each dispatched
// notification.
type NotificationStore interface {
	Create(ctx context.Context, notif *models.Notification) error
}

// PushTransport delivers one payload to one endpoint. It returns
// ErrSubscriptionGone when the endpoint is permanently invalid; any
// other error is treated as transient and swallowed.
type PushTransport interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

// PushService fans one logical notification out to every registered
// device of a user. Per-subscription attempts run independently: one
// failing endpoint never blocks delivery to the user's other devices.
type PushService struct {
	subs          SubscriptionStore
	notifications NotificationStore
	transport     PushTransport
}

// NewPushService creates a new instance of PushService.
func NewPushService(subs SubscriptionStore, notifications NotificationStore, transport PushTransport) *PushService {
	return &PushService{
		subs:          subs,
		notifications: notifications,
		transport:     transport,
	}
}

// Dispatch sends the payload to every subscription of the user, prunes
// endpoints that report themselves permanently gone, and writes one
// in-app notification record so the event is visible even without push.
// It returns whether the user had at least one subscription to attempt.
func (s *PushService) Dispatch(ctx context.Context, userID primitive.ObjectID, payload PushPayload) (bool, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.PushSubscription) {
			defer wg.Done()
			err := s.transport.Send(ctx, sub, body)
			if err == nil {
				return
			}
			if errors.Is(err, ErrSubscriptionGone) {
				if delErr := s.subs.Delete(ctx, sub.ID); delErr != nil {
					logrus.WithError(delErr).Warnf("Failed to prune dead subscription %s", sub.ID.Hex())
					return
				}
				logrus.WithField("subscription_id", sub.ID.Hex()).Info("Pruned permanently invalid push subscription")
				return
			}
			// Transient delivery failure, no retry here.
			logrus.WithError(err).WithField("user_id", userID.Hex()).Warn("Push delivery failed")
		}(sub)
	}
	wg.Wait()

	notif := &models.Notification{
		UserID:  userID,
		Type:    payload.Type,
		Title:   payload.Title,
		Message: payload.Body,
		URL:     payload.URL,
	}
	if err := s.notifications.Create(ctx, notif); err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Warn("Failed to record in-app notification")
	}

	return len(subs) > 0, nil
}
