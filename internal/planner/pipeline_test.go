package planner

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/priority"
	"github.com/alexanderramin/horae/internal/repository"
	"github.com/alexanderramin/horae/internal/scheduler"
	"github.com/alexanderramin/horae/internal/testutil"
)

type plannerEnv struct {
	pipeline *Pipeline
	database *sql.DB
	project  *domain.Project
	goal     *domain.Goal
}

func newPlannerEnv(t *testing.T) *plannerEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	projects := repository.NewSQLiteProjectRepo(database)
	goals := repository.NewSQLiteGoalRepo(database)

	p := testutil.NewTestProject("Research")
	require.NoError(t, projects.Create(ctx, p))
	g := testutil.NewTestGoal(p.ID, "Publish paper")
	require.NoError(t, goals.Create(ctx, g))

	pipeline := NewPipeline(
		repository.NewSQLiteTaskRepo(database),
		goals,
		repository.NewSQLiteRecurringTaskRepo(database),
		repository.NewSQLiteWorkLogRepo(database),
		repository.NewSQLiteDependencyRepo(database),
		repository.NewSQLiteScheduleRepo(database),
		repository.NewSQLiteUserProfileRepo(database),
		priority.NewService(nil, nil),
		NewPlanCache(time.Minute),
		nil,
	).WithClock(func() time.Time {
		return time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	})

	return &plannerEnv{pipeline: pipeline, database: database, project: p, goal: g}
}

func (e *plannerEnv) addTask(t *testing.T, title string, hours float64) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(e.goal.ID, title, testutil.WithEstimate(hours))
	require.NoError(t, repository.NewSQLiteTaskRepo(e.database).Create(context.Background(), task))
	return task
}

func weeklyRequest() contract.WeeklyPlanRequest {
	return contract.WeeklyPlanRequest{
		WeekStartDate: "2026-08-24",
		Constraints:   contract.PlanConstraints{TotalCapacityHours: 10},
		DailyTimeSlots: []contract.TimeSlotInput{
			{Start: "09:00", End: "12:00", Kind: string(domain.KindFocusedWork)},
			{Start: "13:00", End: "15:00", Kind: string(domain.KindLightWork)},
		},
		FallbackOnFailure: true,
	}
}

func TestPlanWeekly_EndToEnd(t *testing.T) {
	env := newPlannerEnv(t)
	env.addTask(t, "Write draft", 3)
	env.addTask(t, "Review literature", 2)

	resp, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, weeklyRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, contract.PlanSuccess, resp.Status)
	require.NotNil(t, resp.WeeklySelection)
	assert.Len(t, resp.WeeklySelection.SelectedTaskIDs, 2)
	assert.Len(t, resp.DailyOptimizations, 7)
	assert.Greater(t, resp.TotalOptimizedHours, 0.0)
	assert.Len(t, resp.StageResults, 5)
	for _, sr := range resp.StageResults {
		assert.True(t, sr.Success, "stage %s", sr.Stage)
	}

	// The aggregated outcome is persisted as the weekly blob.
	stored, err := repository.NewSQLiteScheduleRepo(env.database).
		GetWeekly(context.Background(), testutil.DefaultUserID, "2026-08-24")
	require.NoError(t, err)
	assert.Len(t, stored.Record.SelectedTasks, 2)
	assert.Len(t, stored.Record.Days, 7)
}

func TestPlanWeekly_InvalidWeekStartFailsWithoutFallback(t *testing.T) {
	env := newPlannerEnv(t)

	req := weeklyRequest()
	req.WeekStartDate = "not-a-date"
	req.FallbackOnFailure = false

	resp, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, req)
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, contract.PlanFailed, resp.Status)
	require.Len(t, resp.StageResults, 1)
	assert.Equal(t, contract.StageInit, resp.StageResults[0].Stage)
	assert.NotEmpty(t, resp.StageResults[0].Errors)
}

func TestPlanWeekly_StaleWeekStartRejected(t *testing.T) {
	env := newPlannerEnv(t)

	req := weeklyRequest()
	req.WeekStartDate = "2026-08-01"
	req.FallbackOnFailure = false

	resp, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, req)
	require.NoError(t, err)

	assert.Equal(t, contract.PlanFailed, resp.Status)
}

func TestPlanWeekly_InitFallbackDegradesGracefully(t *testing.T) {
	env := newPlannerEnv(t)

	req := weeklyRequest()
	req.DailyTimeSlots = nil // invalid, but fallback_on_failure carries on

	resp, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, req)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.StageResults[0].Warnings)
	for _, d := range resp.DailyOptimizations {
		assert.Equal(t, scheduler.StatusNoTasksOrSlots, d.Status)
	}
}

func TestPlanWeekly_EmptyCandidateSetIsValid(t *testing.T) {
	env := newPlannerEnv(t)

	resp, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, weeklyRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Empty(t, resp.WeeklySelection.SelectedTaskIDs)
	assert.Contains(t, resp.OptimizationInsights[0], "No tasks were selected")
}

func TestPlanWeekly_RecurringSelectionFlowsToRecord(t *testing.T) {
	env := newPlannerEnv(t)
	env.addTask(t, "Write draft", 3)

	rec := testutil.NewTestRecurring("Weekly review", 1)
	require.NoError(t, repository.NewSQLiteRecurringTaskRepo(env.database).Create(context.Background(), rec))

	req := weeklyRequest()
	req.SelectedRecurringTaskIDs = []string{rec.ID}

	resp, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, req)
	require.NoError(t, err)
	assert.Contains(t, resp.WeeklySelection.SelectedRecurringIDs, rec.ID)

	stored, err := repository.NewSQLiteScheduleRepo(env.database).
		GetWeekly(context.Background(), testutil.DefaultUserID, "2026-08-24")
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, stored.Record.SelectedRecurringTaskIDs)
}

func TestPlanWeekly_BlockedDependencyExcluded(t *testing.T) {
	env := newPlannerEnv(t)
	blocked := env.addTask(t, "Depends on missing work", 2)

	// Prerequisite exists but is PENDING and outside the candidate pool
	// (fully logged), so the successor cannot be planned.
	prereq := env.addTask(t, "Prerequisite", 1)
	logs := repository.NewSQLiteWorkLogRepo(env.database)
	require.NoError(t, logs.Create(context.Background(), &domain.WorkLog{
		ID: "wl-1", TaskID: prereq.ID, ActualMinutes: 60, CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, repository.NewSQLiteDependencyRepo(env.database).Create(context.Background(), &domain.Dependency{
		SuccessorKind: domain.DepTask, SuccessorID: blocked.ID,
		PredecessorKind: domain.DepTask, PredecessorID: prereq.ID,
	}))

	resp, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, weeklyRequest())
	require.NoError(t, err)

	assert.NotContains(t, resp.WeeklySelection.SelectedTaskIDs, blocked.ID)
}

func TestPlanWeekly_CachingReusesPriorities(t *testing.T) {
	env := newPlannerEnv(t)
	env.addTask(t, "Write draft", 3)

	req := weeklyRequest()
	req.EnableCaching = true

	_, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, req)
	require.NoError(t, err)

	resp, err := env.pipeline.PlanWeekly(context.Background(), testutil.DefaultUserID, req)
	require.NoError(t, err)

	var prioritiesStage contract.StageResult
	for _, sr := range resp.StageResults {
		if sr.Stage == contract.StagePriorities {
			prioritiesStage = sr
		}
	}
	require.NotEmpty(t, prioritiesStage.Warnings)
	assert.Contains(t, prioritiesStage.Warnings[0], "cache")

	// A mutation invalidates the user's cached weeks.
	env.pipeline.Cache().Invalidate(testutil.DefaultUserID)
	assert.Nil(t, env.pipeline.Cache().Priorities(testutil.DefaultUserID, "2026-08-24"))
}

func TestPlanDaily_FromAllTasks(t *testing.T) {
	env := newPlannerEnv(t)
	env.addTask(t, "Write draft", 2)

	resp, err := env.pipeline.PlanDaily(context.Background(), testutil.DefaultUserID, contract.DailyPlanRequest{
		Date:   "2026-08-25",
		Source: contract.TaskSource{Type: contract.SourceAllTasks},
		TimeSlots: []contract.TimeSlotInput{
			{Start: "09:00", End: "12:00", Kind: string(domain.KindFocusedWork)},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "Write draft", resp.Assignments[0].TaskTitle)
	assert.Equal(t, "09:00", resp.Assignments[0].SlotStart)
	assert.Equal(t, "12:00", resp.Assignments[0].SlotEnd)
	assert.Equal(t, string(domain.KindFocusedWork), resp.Assignments[0].SlotKind)
}

func TestPlanDaily_ProjectSourceRequiresProjectID(t *testing.T) {
	env := newPlannerEnv(t)

	_, err := env.pipeline.PlanDaily(context.Background(), testutil.DefaultUserID, contract.DailyPlanRequest{
		Date:   "2026-08-25",
		Source: contract.TaskSource{Type: contract.SourceProject},
		TimeSlots: []contract.TimeSlotInput{
			{Start: "09:00", End: "12:00"},
		},
	})

	var se *contract.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, contract.CodeInvalid, se.Code)
}

func TestPlanDaily_WeeklyScheduleSourceFiltersToSelection(t *testing.T) {
	env := newPlannerEnv(t)
	inPlan := env.addTask(t, "In the weekly plan", 2)
	env.addTask(t, "Not in the weekly plan", 2)

	schedules := repository.NewSQLiteScheduleRepo(env.database)
	require.NoError(t, schedules.PutWeekly(context.Background(), &domain.WeeklySchedule{
		UserID:    testutil.DefaultUserID,
		WeekStart: "2026-08-24",
		Record: domain.WeeklyPlanRecord{
			WeekStartDate: "2026-08-24",
			SelectedTasks: []domain.WeeklyScheduleTask{{TaskID: inPlan.ID, Title: inPlan.Title}},
		},
	}))

	resp, err := env.pipeline.PlanDaily(context.Background(), testutil.DefaultUserID, contract.DailyPlanRequest{
		Date: "2026-08-25",
		Source: contract.TaskSource{
			Type:               contract.SourceWeeklySchedule,
			WeeklyScheduleDate: "2026-08-24",
		},
		TimeSlots: []contract.TimeSlotInput{
			{Start: "09:00", End: "17:00"},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, inPlan.ID, resp.Assignments[0].TaskID)
}

func TestPlanDaily_MissingWeeklyScheduleIsNotFound(t *testing.T) {
	env := newPlannerEnv(t)

	_, err := env.pipeline.PlanDaily(context.Background(), testutil.DefaultUserID, contract.DailyPlanRequest{
		Date: "2026-08-25",
		Source: contract.TaskSource{
			Type:               contract.SourceWeeklySchedule,
			WeeklyScheduleDate: "2026-01-05",
		},
		TimeSlots: []contract.TimeSlotInput{{Start: "09:00", End: "12:00"}},
	})

	var se *contract.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, contract.CodeNotFound, se.Code)
}
