package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yerin5822/Maternote_Server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeSubscriptionStore struct {
	mu   sync.Mutex
	subs []models.PushSubscription
}

func (f *fakeSubscriptionStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PushSubscription
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.PushSubscription
	for _, s := range f.subs {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.subs = kept
	return nil
}

type fakeNotificationStore struct {
	created []models.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, notif *models.Notification) error {
	f.created = append(f.created, *notif)
	return nil
}

// fakeTransport fails per endpoint as configured and records every
// attempted delivery.
type fakeTransport struct {
	mu        sync.Mutex
	errFor    map[string]error
	attempted []string
}

func (f *fakeTransport) Send(_ context.Context, sub models.PushSubscription, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempted = append(f.attempted, sub.Endpoint)
	return f.errFor[sub.Endpoint]
}

func subscription(userID primitive.ObjectID, endpoint string) models.PushSubscription {
	return models.PushSubscription{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   "p256dh-key",
		Auth:     "auth-secret",
	}
}

func TestDispatchPrunesGoneSubscription(t *testing.T) {
	userID := primitive.NewObjectID()
	subs := &fakeSubscriptionStore{subs: []models.PushSubscription{
		subscription(userID, "https://push.example.com/dead"),
		subscription(userID, "https://push.example.com/alive"),
	}}
	notifs := &fakeNotificationStore{}
	transport := &fakeTransport{errFor: map[string]error{
		"https://push.example.com/dead": ErrSubscriptionGone,
	}}
	svc := NewPushService(subs, notifs, transport)

	hadSubs, err := svc.Dispatch(context.Background(), userID, PushPayload{
		Type:  "dday",
		Title: "Checkup",
		Body:  "Tomorrow",
	})
	require.NoError(t, err)
	assert.True(t, hadSubs)

	// Both endpoints were attempted; only the dead one was pruned, and
	// exactly one in-app record was written.
	assert.ElementsMatch(t,
		[]string{"https://push.example.com/dead", "https://push.example.com/alive"},
		transport.attempted)
	require.Len(t, subs.subs, 1)
	assert.Equal(t, "https://push.example.com/alive", subs.subs[0].Endpoint)
	assert.Len(t, notifs.created, 1)
}

func TestDispatchKeepsSubscriptionOnTransientError(t *testing.T) {
	userID := primitive.NewObjectID()
	subs := &fakeSubscriptionStore{subs: []models.PushSubscription{
		subscription(userID, "https://push.example.com/flaky"),
	}}
	notifs := &fakeNotificationStore{}
	transport := &fakeTransport{errFor: map[string]error{
		"https://push.example.com/flaky": errors.New("503 service unavailable"),
	}}
	svc := NewPushService(subs, notifs, transport)

	hadSubs, err := svc.Dispatch(context.Background(), userID, PushPayload{Type: "dday", Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.True(t, hadSubs)
	assert.Len(t, subs.subs, 1, "transient failures must not prune the subscription")
}

func TestDispatchWithoutSubscriptions(t *testing.T) {
	userID := primitive.NewObjectID()
	subs := &fakeSubscriptionStore{}
	notifs := &fakeNotificationStore{}
	svc := NewPushService(subs, notifs, &fakeTransport{})

	hadSubs, err := svc.Dispatch(context.Background(), userID, PushPayload{
		Type:  "new_content",
		Title: "New in your timeline",
		Body:  "Two new items",
		URL:   "/timeline",
	})
	require.NoError(t, err)
	assert.False(t, hadSubs)

	// The in-app record is written even when no device is reachable.
	require.Len(t, notifs.created, 1)
	assert.Equal(t, userID, notifs.created[0].UserID)
	assert.Equal(t, "new_content", notifs.created[0].Type)
	assert.Equal(t, "/timeline", notifs.created[0].URL)
}
