package services

import (
	"context"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/yerin5822/Maternote_Server/internal/models"
)

// webpushTransport delivers payloads over the Web Push protocol with
// VAPID authentication. The keys are fixed at construction, once per
// process.
type webpushTransport struct {
	publicKey  string
	privateKey string
	subscriber string
}

// NewWebPushTransport creates the production push transport.
func NewWebPushTransport(publicKey, privateKey, subscriber string) PushTransport {
	return &webpushTransport{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
	}
}

func (t *webpushTransport) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      t.subscriber,
		VAPIDPublicKey:  t.publicKey,
		VAPIDPrivateKey: t.privateKey,
		TTL:             12 * 60 * 60,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 404/410 means the endpoint is permanently gone and the
	// subscription must be pruned.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ErrSubscriptionGone
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
