package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/notify"
	"github.com/alexanderramin/horae/internal/planner"
	"github.com/alexanderramin/horae/internal/priority"
	"github.com/alexanderramin/horae/internal/repository"
	"github.com/alexanderramin/horae/internal/reschedule"
	"github.com/alexanderramin/horae/internal/session"
	"github.com/alexanderramin/horae/internal/testutil"
)

type apiEnv struct {
	router    *gin.Engine
	taskID    string
	schedules *repository.SQLiteScheduleRepo
	now       time.Time
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	now := time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	projects := repository.NewSQLiteProjectRepo(database)
	goals := repository.NewSQLiteGoalRepo(database)
	tasks := repository.NewSQLiteTaskRepo(database)
	logs := repository.NewSQLiteWorkLogRepo(database)
	deps := repository.NewSQLiteDependencyRepo(database)
	recurring := repository.NewSQLiteRecurringTaskRepo(database)
	sessionRepo := repository.NewSQLiteWorkSessionRepo(database)
	schedules := repository.NewSQLiteScheduleRepo(database)
	suggestions := repository.NewSQLiteSuggestionRepo(database)
	profiles := repository.NewSQLiteUserProfileRepo(database)
	subs := repository.NewSQLitePushSubscriptionRepo(database)

	ctx := context.Background()
	project := testutil.NewTestProject("Research")
	require.NoError(t, projects.Create(ctx, project))
	goal := testutil.NewTestGoal(project.ID, "Ship draft")
	require.NoError(t, goals.Create(ctx, goal))
	task := testutil.NewTestTask(goal.ID, "Write abstract")
	require.NoError(t, tasks.Create(ctx, task))

	pipeline := planner.NewPipeline(
		tasks, goals, recurring, logs, deps, schedules, profiles,
		priority.NewService(nil, nil), nil, nil,
	).WithClock(clock)
	engine := session.NewEngine(sessionRepo, tasks, logs, uow, nil).WithClock(clock)
	resched := reschedule.NewEngine(schedules, suggestions, profiles, uow, nil).WithClock(clock)
	hub := notify.NewHub(nil)
	pusher := notify.NewPusher(subs, notify.WebPushConfig{}, nil)

	server := NewServer(pipeline, engine, resched, hub, pusher, schedules, nil)
	return &apiEnv{
		router:    server.Router(),
		taskID:    task.ID,
		schedules: schedules,
		now:       now,
	}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userHeader, testutil.DefaultUserID)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestMissingUserHeaderRejected(t *testing.T) {
	env := newAPIEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/current", nil)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/sessions/start", gin.H{
		"task_id":             env.taskID,
		"planned_checkout_at": env.now.Add(time.Hour),
		"planned_outcome":     "rough draft",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	started := decode[sessionView](t, w)
	assert.Equal(t, env.taskID, started.TaskID)

	// A second start conflicts.
	w = env.do(t, http.MethodPost, "/api/sessions/start", gin.H{
		"task_id":             env.taskID,
		"planned_checkout_at": env.now.Add(time.Hour),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/sessions/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, started.ID, decode[sessionView](t, w).ID)

	w = env.do(t, http.MethodPost, "/api/sessions/pause", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/sessions/resume", gin.H{"extend_checkout": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/sessions/checkout", gin.H{
		"decision":  "COMPLETE",
		"keep_note": "finished early",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[checkoutView](t, w)
	assert.NotEmpty(t, out.WorkLogID)
	assert.NotNil(t, out.Session.EndedAt)

	// No more current session.
	w = env.do(t, http.MethodGet, "/api/sessions/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/sessions/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[map[string][]sessionView](t, w)
	assert.Len(t, history["sessions"], 1)
}

func TestStartUnknownTaskIs404(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/sessions/start", gin.H{
		"task_id":             "missing",
		"planned_checkout_at": env.now.Add(time.Hour),
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutRejectsUnknownDecision(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/sessions/checkout", gin.H{
		"decision": "MAYBE",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutReturnsRescheduleSuggestion(t *testing.T) {
	env := newAPIEnv(t)
	require.NoError(t, env.schedules.PutDaily(context.Background(), &domain.DailySchedule{
		UserID: testutil.DefaultUserID,
		Date:   "2026-08-24",
		Plan: domain.DayPlan{
			Date: "2026-08-24",
			Assignments: []domain.PlanAssignment{
				{TaskID: env.taskID, SlotIndex: 0, Start: "13:00", End: "15:00", DurationHours: 2},
				{TaskID: "other", SlotIndex: 1, Start: "15:00", End: "16:00", DurationHours: 1},
			},
		},
		CreatedAt: env.now,
		UpdatedAt: env.now,
	}))

	w := env.do(t, http.MethodPost, "/api/sessions/start", gin.H{
		"task_id":             env.taskID,
		"planned_checkout_at": env.now.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/sessions/checkout", gin.H{"decision": "COMPLETE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[checkoutView](t, w)

	require.NotNil(t, out.Suggestion)
	assert.Equal(t, "PENDING", out.Suggestion.Status)
	assert.Len(t, out.Suggestion.ProposedPlan.Assignments, 1)

	// And it is retrievable through the suggestions listing.
	w = env.do(t, http.MethodGet, "/api/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[map[string][]suggestionView](t, w)
	require.Len(t, listed["suggestions"], 1)

	// Accepting swaps the stored plan.
	w = env.do(t, http.MethodPost, "/api/suggestions/"+out.Suggestion.ID+"/accept", gin.H{"reason": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ACCEPTED", decode[suggestionView](t, w).Status)

	w = env.do(t, http.MethodGet, "/api/schedules/daily/2026-08-24", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sched := decode[dailyScheduleView](t, w)
	require.Len(t, sched.Plan.Assignments, 1)
	assert.Equal(t, "other", sched.Plan.Assignments[0].TaskID)
}

func TestDailySchedulePutAndGet(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPut, "/api/schedules/daily/2026-08-25", domain.DayPlan{
		Assignments: []domain.PlanAssignment{
			{TaskID: env.taskID, Start: "09:00", End: "10:00", DurationHours: 1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/schedules/daily/2026-08-25", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sched := decode[dailyScheduleView](t, w)
	assert.Equal(t, "2026-08-25", sched.Plan.Date)
	assert.Len(t, sched.Plan.Assignments, 1)

	w = env.do(t, http.MethodGet, "/api/schedules/daily/not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/schedules/daily/2030-01-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWeeklyPlanningOverHTTP(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/planning/weekly", gin.H{
		"week_start_date": "2026-08-24",
		"constraints":     gin.H{"total_capacity_hours": 10},
		"daily_time_slots": []gin.H{
			{"start": "09:00", "end": "12:00", "kind": "FOCUSED_WORK"},
		},
		"fallback_on_failure": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "SUCCESS", resp["status"])

	w = env.do(t, http.MethodGet, "/api/schedules/weekly-options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	options := decode[map[string][]domain.WeeklyScheduleOption](t, w)
	require.Len(t, options["options"], 1)
	assert.Equal(t, "2026-08-24", options["options"][0].WeekStartDate)

	w = env.do(t, http.MethodGet, "/api/schedules/weekly/2026-08-24", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Binding failure: missing constraints.
	w = env.do(t, http.MethodPost, "/api/planning/weekly", gin.H{
		"week_start_date": "2026-08-24",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPushSubscriptionEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/push/subscriptions", gin.H{
		"endpoint":   "https://push.example.com/abc",
		"p256dh_key": "p256",
		"auth_key":   "auth",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Missing auth_key fails binding.
	w = env.do(t, http.MethodPost, "/api/push/subscriptions", gin.H{
		"endpoint":   "https://push.example.com/abc",
		"p256dh_key": "p256",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/api/push/subscriptions", gin.H{
		"endpoint": "https://push.example.com/abc",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, "/api/push/subscriptions", gin.H{
		"endpoint": "https://push.example.com/unknown",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaginationClampsLimit(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodGet, "/api/schedules/daily?limit=500", nil)

	// Clamped to 100; the handler still succeeds with an empty page.
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string][]dailyScheduleView](t, w)
	assert.Empty(t, body["schedules"])
}
