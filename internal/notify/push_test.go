package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/repository"
	"github.com/alexanderramin/horae/internal/testutil"
)

func pushResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}
}

func newTestPusher(t *testing.T) (*Pusher, repository.PushSubscriptionRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	subs := repository.NewSQLitePushSubscriptionRepo(database)
	p := NewPusher(subs, WebPushConfig{Subscriber: "mailto:ops@example.com"}, nil)
	return p, subs
}

func register(t *testing.T, p *Pusher, endpoint string) *domain.PushSubscription {
	t.Helper()
	sub, err := p.Register(context.Background(), testutil.DefaultUserID, RegisterInput{
		Endpoint:  endpoint,
		P256dhKey: "p256dh-key",
		AuthKey:   "auth-key",
	})
	require.NoError(t, err)
	return sub
}

func TestPusher_RegisterValidation(t *testing.T) {
	p, _ := newTestPusher(t)

	_, err := p.Register(context.Background(), testutil.DefaultUserID, RegisterInput{
		Endpoint: "https://push.example.com/x", P256dhKey: "k",
	})
	var se *contract.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, contract.CodeInvalid, se.Code)

	_, err = p.Register(context.Background(), testutil.DefaultUserID, RegisterInput{
		Endpoint: strings.Repeat("x", 2001), P256dhKey: "k", AuthKey: "a",
	})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, contract.CodeInvalid, se.Code)
}

func TestPusher_RegisterRevivesInactive(t *testing.T) {
	p, subs := newTestPusher(t)
	ctx := context.Background()

	sub := register(t, p, "https://push.example.com/a")
	require.NoError(t, p.Unregister(ctx, testutil.DefaultUserID, sub.Endpoint))

	revived := register(t, p, "https://push.example.com/a")
	assert.True(t, revived.Active)
	assert.Zero(t, revived.FailureCount)

	active, err := subs.ListActiveByUser(ctx, testutil.DefaultUserID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestPusher_SendSuccessResetsFailureStreak(t *testing.T) {
	p, subs := newTestPusher(t)
	ctx := context.Background()
	sub := register(t, p, "https://push.example.com/a")

	p.send = func(context.Context, []byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
		return pushResponse(http.StatusCreated), nil
	}

	delivered := p.SendToUser(ctx, testutil.DefaultUserID, NotificationMessage{ID: "n-1"})
	assert.Equal(t, 1, delivered)

	got, err := subs.GetByEndpoint(ctx, testutil.DefaultUserID, sub.Endpoint)
	require.NoError(t, err)
	assert.Zero(t, got.FailureCount)
	assert.NotNil(t, got.LastSuccessAt)
}

func TestPusher_ThirdFailureDeactivates(t *testing.T) {
	p, subs := newTestPusher(t)
	ctx := context.Background()
	sub := register(t, p, "https://push.example.com/a")

	p.send = func(context.Context, []byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
		return nil, errors.New("endpoint gone")
	}

	for i := 0; i < domain.PushFailureLimit; i++ {
		assert.Zero(t, p.SendToUser(ctx, testutil.DefaultUserID, NotificationMessage{ID: "n"}))
	}

	got, err := subs.GetByEndpoint(ctx, testutil.DefaultUserID, sub.Endpoint)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, domain.PushFailureLimit, got.FailureCount)

	// Deactivated subscriptions are no longer targeted.
	assert.Zero(t, p.SendToUser(ctx, testutil.DefaultUserID, NotificationMessage{ID: "n"}))
	after, err := subs.GetByEndpoint(ctx, testutil.DefaultUserID, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, domain.PushFailureLimit, after.FailureCount)
}

func TestPusher_NonSuccessStatusCountsAsFailure(t *testing.T) {
	p, subs := newTestPusher(t)
	ctx := context.Background()
	sub := register(t, p, "https://push.example.com/a")

	p.send = func(context.Context, []byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
		return pushResponse(http.StatusGone), nil
	}

	assert.Zero(t, p.SendToUser(ctx, testutil.DefaultUserID, NotificationMessage{ID: "n"}))

	got, err := subs.GetByEndpoint(ctx, testutil.DefaultUserID, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FailureCount)
}

func TestPusher_SendWithNoSubscriptions(t *testing.T) {
	p, _ := newTestPusher(t)

	assert.Zero(t, p.SendToUser(context.Background(), "nobody", NotificationMessage{ID: "n"}))
}

func TestNewMessage_EmbedsTaskTitle(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	m := newMessage(domain.LevelStrong, "s-1", "Write draft", now)

	assert.Equal(t, "notification", m.Type)
	assert.Equal(t, domain.LevelStrong, m.Level)
	assert.Contains(t, m.Body, "Write draft")
	assert.Equal(t, "/runner", m.ActionURL)
	assert.Equal(t, "2026-08-24T10:00:00Z", m.Timestamp)
	assert.NotEmpty(t, m.ID)
}
