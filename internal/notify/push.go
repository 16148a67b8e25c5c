package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/repository"
)

const maxEndpointLen = 2000

// WebPushConfig carries the VAPID identity of this server.
type WebPushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string // mailto: contact required by the push services
}

// sendFunc matches webpush.SendNotificationWithContext; tests inject a stub.
type sendFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Pusher delivers notifications to a user's registered Web Push endpoints
// and maintains their health: success resets the failure streak, the third
// consecutive failure deactivates the subscription.
type Pusher struct {
	subs repository.PushSubscriptionRepo
	cfg  WebPushConfig
	log  *slog.Logger
	now  func() time.Time
	send sendFunc
}

// NewPusher creates a pusher over the subscription store.
func NewPusher(subs repository.PushSubscriptionRepo, cfg WebPushConfig, log *slog.Logger) *Pusher {
	if log == nil {
		log = slog.Default()
	}
	return &Pusher{
		subs: subs,
		cfg:  cfg,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
		send: webpush.SendNotificationWithContext,
	}
}

// RegisterInput is a push registration request.
type RegisterInput struct {
	Endpoint   string
	P256dhKey  string
	AuthKey    string
	UserAgent  string
	DeviceType string
}

// Register stores or revives a subscription keyed by (user, endpoint).
func (p *Pusher) Register(ctx context.Context, userID string, in RegisterInput) (*domain.PushSubscription, error) {
	if in.Endpoint == "" || len(in.Endpoint) > maxEndpointLen {
		return nil, contract.Invalid("endpoint must be non-empty and at most %d characters", maxEndpointLen)
	}
	if in.P256dhKey == "" || in.AuthKey == "" {
		return nil, contract.Invalid("both p256dh and auth keys are required")
	}

	now := p.now()
	sub := &domain.PushSubscription{
		ID:         uuid.New().String(),
		UserID:     userID,
		Endpoint:   in.Endpoint,
		P256dhKey:  in.P256dhKey,
		AuthKey:    in.AuthKey,
		UserAgent:  in.UserAgent,
		DeviceType: in.DeviceType,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("registering push subscription: %w", err)
	}
	return p.subs.GetByEndpoint(ctx, userID, in.Endpoint)
}

// Unregister deactivates the subscription for (user, endpoint).
func (p *Pusher) Unregister(ctx context.Context, userID, endpoint string) error {
	err := p.subs.Deactivate(ctx, userID, endpoint)
	if errors.Is(err, repository.ErrNotFound) {
		return contract.NotFound("no push subscription for this endpoint")
	}
	return err
}

// SendToUser pushes the message to every active subscription of the user and
// returns the number of accepted deliveries.
func (p *Pusher) SendToUser(ctx context.Context, userID string, msg NotificationMessage) int {
	subs, err := p.subs.ListActiveByUser(ctx, userID)
	if err != nil {
		p.log.Error("listing push subscriptions failed", "user_id", userID, "error", err)
		return 0
	}
	if len(subs) == 0 {
		return 0
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("encoding push payload failed", "error", err)
		return 0
	}

	delivered := 0
	for _, sub := range subs {
		if p.deliver(ctx, sub, payload) {
			delivered++
		}
	}
	return delivered
}

func (p *Pusher) deliver(ctx context.Context, sub *domain.PushSubscription, payload []byte) bool {
	resp, err := p.send(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		Subscriber:      p.cfg.Subscriber,
		VAPIDPublicKey:  p.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: p.cfg.VAPIDPrivateKey,
		TTL:             60,
	})
	ok := err == nil && resp != nil && resp.StatusCode < 300
	if resp != nil {
		_ = resp.Body.Close()
	}

	now := p.now()
	if ok {
		sub.RecordSuccess(now)
	} else {
		if sub.RecordFailure() {
			p.log.Warn("push subscription deactivated after repeated failures",
				"user_id", sub.UserID, "endpoint", sub.Endpoint)
		}
	}
	sub.UpdatedAt = now
	if uerr := p.subs.Update(ctx, sub); uerr != nil {
		p.log.Error("updating push subscription state failed", "error", uerr)
	}
	if err != nil {
		p.log.Warn("push delivery failed", "user_id", sub.UserID, "error", err)
	}
	return ok
}
