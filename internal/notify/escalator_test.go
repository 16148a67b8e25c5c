package notify

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/repository"
	"github.com/alexanderramin/horae/internal/testutil"
)

type escalatorEnv struct {
	escalator *Escalator
	sessions  *repository.SQLiteWorkSessionRepo
	hub       *Hub
	pusher    *Pusher
	pushed    *int
	task      *domain.Task
	now       time.Time
	database  *sql.DB
}

func newEscalatorEnv(t *testing.T) *escalatorEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	projects := repository.NewSQLiteProjectRepo(database)
	goals := repository.NewSQLiteGoalRepo(database)
	tasks := repository.NewSQLiteTaskRepo(database)

	p := testutil.NewTestProject("Ops")
	require.NoError(t, projects.Create(ctx, p))
	g := testutil.NewTestGoal(p.ID, "Keep the lights on")
	require.NoError(t, goals.Create(ctx, g))
	task := testutil.NewTestTask(g.ID, "Rotate credentials")
	require.NoError(t, tasks.Create(ctx, task))

	subs := repository.NewSQLitePushSubscriptionRepo(database)
	pusher := NewPusher(subs, WebPushConfig{}, nil)
	pushed := 0
	pusher.send = func(context.Context, []byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
		pushed++
		return pushResponse(http.StatusCreated), nil
	}

	hub := NewHub(nil)
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	env := &escalatorEnv{
		sessions: repository.NewSQLiteWorkSessionRepo(database),
		hub:      hub,
		pusher:   pusher,
		pushed:   &pushed,
		task:     task,
		now:      now,
		database: database,
	}
	env.escalator = NewEscalator(env.sessions, testutil.NewTestUoW(database), hub, pusher, nil).
		WithClock(func() time.Time { return env.now })
	return env
}

func (e *escalatorEnv) openSession(t *testing.T, deadline time.Time) *domain.WorkSession {
	t.Helper()
	s := testutil.NewTestSession(testutil.DefaultUserID, e.task.ID,
		testutil.WithSessionStart(e.now.Add(-time.Hour)),
		testutil.WithPlannedCheckout(deadline))
	require.NoError(t, e.sessions.Create(context.Background(), s))
	return s
}

func (e *escalatorEnv) reload(t *testing.T, id string) *domain.WorkSession {
	t.Helper()
	s, err := e.sessions.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (e *escalatorEnv) live(t *testing.T) *fakeConn {
	t.Helper()
	c := &fakeConn{}
	e.hub.register(testutil.DefaultUserID, c)
	return c
}

func (e *escalatorEnv) subscribePush(t *testing.T) {
	t.Helper()
	_, err := e.pusher.Register(context.Background(), testutil.DefaultUserID, RegisterInput{
		Endpoint: "https://push.example.com/device", P256dhKey: "k", AuthKey: "a",
	})
	require.NoError(t, err)
}

func TestEscalator_LightReminderWithinWarnWindow(t *testing.T) {
	env := newEscalatorEnv(t)
	conn := env.live(t)
	env.subscribePush(t)
	s := env.openSession(t, env.now.Add(3*time.Minute))

	require.NoError(t, env.escalator.Tick(context.Background()))

	require.Len(t, conn.messages, 1)
	msg := conn.messages[0].(NotificationMessage)
	assert.Equal(t, domain.LevelLight, msg.Level)
	assert.Equal(t, s.ID, msg.SessionID)
	assert.Contains(t, msg.Body, "Rotate credentials")
	assert.Zero(t, *env.pushed, "light reminders never go to push")
	assert.True(t, env.reload(t, s.ID).Notified5Min)
}

func TestEscalator_LightSkippedWithoutLiveChannel(t *testing.T) {
	env := newEscalatorEnv(t)
	env.subscribePush(t)
	s := env.openSession(t, env.now.Add(3*time.Minute))

	require.NoError(t, env.escalator.Tick(context.Background()))

	assert.Zero(t, *env.pushed)
	// The flag is still claimed: the level fires at most once per epoch.
	assert.True(t, env.reload(t, s.ID).Notified5Min)
}

func TestEscalator_StrongGoesToLiveAndPush(t *testing.T) {
	env := newEscalatorEnv(t)
	conn := env.live(t)
	env.subscribePush(t)
	s := env.openSession(t, env.now.Add(-time.Minute))

	require.NoError(t, env.escalator.Tick(context.Background()))

	require.Len(t, conn.messages, 1)
	assert.Equal(t, domain.LevelStrong, conn.messages[0].(NotificationMessage).Level)
	assert.Equal(t, 1, *env.pushed)
	got := env.reload(t, s.ID)
	assert.True(t, got.NotifiedCheckout)
	assert.Nil(t, got.MarkedUnresponsiveAt)
}

func TestEscalator_OverdueMarksUnresponsive(t *testing.T) {
	env := newEscalatorEnv(t)
	conn := env.live(t)
	s := env.openSession(t, env.now.Add(-UnresponsiveAfter))

	require.NoError(t, env.escalator.Tick(context.Background()))

	require.Len(t, conn.messages, 1)
	assert.Equal(t, domain.LevelOverdue, conn.messages[0].(NotificationMessage).Level)
	got := env.reload(t, s.ID)
	assert.True(t, got.NotifiedOverdue)
	require.NotNil(t, got.MarkedUnresponsiveAt)
	assert.Equal(t, env.now, got.MarkedUnresponsiveAt.UTC())
}

func TestEscalator_OverdueSilencesWeakerLevels(t *testing.T) {
	env := newEscalatorEnv(t)
	conn := env.live(t)
	s := env.openSession(t, env.now.Add(-UnresponsiveAfter-time.Minute))

	// First seen already past the unresponsive threshold: one overdue
	// message, and the next tick owes nothing at all.
	require.NoError(t, env.escalator.Tick(context.Background()))
	require.Len(t, conn.messages, 1)
	assert.Equal(t, domain.LevelOverdue, conn.messages[0].(NotificationMessage).Level)

	env.now = env.now.Add(time.Minute)
	require.NoError(t, env.escalator.Tick(context.Background()))

	assert.Len(t, conn.messages, 1, "no strong reminder after overdue")
	got := env.reload(t, s.ID)
	assert.True(t, got.Notified5Min)
	assert.True(t, got.NotifiedCheckout)
	assert.True(t, got.NotifiedOverdue)
}

func TestEscalator_EachLevelFiresOnce(t *testing.T) {
	env := newEscalatorEnv(t)
	conn := env.live(t)
	env.openSession(t, env.now.Add(3*time.Minute))

	require.NoError(t, env.escalator.Tick(context.Background()))
	require.NoError(t, env.escalator.Tick(context.Background()))

	assert.Len(t, conn.messages, 1)
}

func TestEscalator_SnoozeReopensEscalation(t *testing.T) {
	env := newEscalatorEnv(t)
	conn := env.live(t)
	s := env.openSession(t, env.now.Add(2*time.Minute))

	require.NoError(t, env.escalator.Tick(context.Background()))
	require.Len(t, conn.messages, 1)

	// Snoozing resets the flags: the new deadline epoch escalates again.
	got := env.reload(t, s.ID)
	require.NoError(t, got.Snooze(env.now, 5))
	require.NoError(t, env.sessions.Update(context.Background(), got))

	env.now = env.now.Add(4 * time.Minute) // 3 minutes before the new deadline
	require.NoError(t, env.escalator.Tick(context.Background()))

	require.Len(t, conn.messages, 2)
	assert.Equal(t, domain.LevelLight, conn.messages[1].(NotificationMessage).Level)
}

func TestEscalator_FarFutureDeadlineUntouched(t *testing.T) {
	env := newEscalatorEnv(t)
	conn := env.live(t)
	env.openSession(t, env.now.Add(time.Hour))

	require.NoError(t, env.escalator.Tick(context.Background()))

	assert.Empty(t, conn.messages)
}
