// Package planner sequences the weekly planning pipeline: priorities from
// the oracle, the weekly selection, seven daily packs and the integration
// metrics, under one umbrella deadline.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/priority"
	"github.com/alexanderramin/horae/internal/repository"
	"github.com/alexanderramin/horae/internal/scheduler"
)

const (
	// DefaultPipelineTimeout is the umbrella deadline over all stages.
	DefaultPipelineTimeout = 30 * time.Second

	// recurringDefaultPriority stands in for the user priority recurring
	// tasks do not carry.
	recurringDefaultPriority = 3

	maxWeekStartAgeDays = 7
	packParallelism     = 4
)

// Pipeline coordinates one weekly planning run end to end.
type Pipeline struct {
	tasks     repository.TaskRepo
	goals     repository.GoalRepo
	recurring repository.RecurringTaskRepo
	logs      repository.WorkLogRepo
	deps      repository.DependencyRepo
	schedules repository.ScheduleRepo
	profiles  repository.UserProfileRepo

	priorities *priority.Service
	cache      *PlanCache
	log        *slog.Logger
	now        func() time.Time
}

// NewPipeline wires a planning pipeline over the given collaborators.
func NewPipeline(
	tasks repository.TaskRepo,
	goals repository.GoalRepo,
	recurring repository.RecurringTaskRepo,
	logs repository.WorkLogRepo,
	deps repository.DependencyRepo,
	schedules repository.ScheduleRepo,
	profiles repository.UserProfileRepo,
	priorities *priority.Service,
	cache *PlanCache,
	log *slog.Logger,
) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if cache == nil {
		cache = NewPlanCache(0)
	}
	return &Pipeline{
		tasks:      tasks,
		goals:      goals,
		recurring:  recurring,
		logs:       logs,
		deps:       deps,
		schedules:  schedules,
		profiles:   profiles,
		priorities: priorities,
		cache:      cache,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the pipeline's clock. Tests only.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Cache exposes the plan cache so mutation paths can invalidate it.
func (p *Pipeline) Cache() *PlanCache { return p.cache }

// run carries one pipeline execution's mutable state.
type run struct {
	userID    string
	req       contract.WeeklyPlanRequest
	weekStart time.Time
	capacity  float64
	slots     []scheduler.TimeSlot

	pc       *planningContext
	scores   map[string]float64
	selected *scheduler.WeeklySelection

	stages      []contract.StageResult
	insights    []string
	solverSecs  float64
	daily       []contract.DailyPlanResponse
	integration integrated
	startedAt   time.Time
}

// PlanWeekly executes INIT, PRIORITIES, SELECT, PACK x7 and INTEGRATE. The
// response always carries stage results; an umbrella deadline turns the run
// into PARTIAL_SUCCESS or FAILED depending on how far it got.
func (p *Pipeline) PlanWeekly(ctx context.Context, userID string, req contract.WeeklyPlanRequest) (*contract.WeeklyPlanResponse, error) {
	timeout := DefaultPipelineTimeout
	if req.OptimizationTimeoutSeconds > 0 {
		timeout = time.Duration(req.OptimizationTimeoutSeconds * float64(time.Second))
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := &run{userID: userID, req: req, startedAt: time.Now()}

	if ok := p.stageInit(r); !ok {
		return p.finish(r, contract.PlanFailed), nil
	}
	if err := p.stagePriorities(ctx, r); err != nil {
		return p.finish(r, contract.PlanFailed), nil
	}
	if err := p.stageSelect(ctx, r); err != nil {
		return p.finish(r, contract.PlanFailed), nil
	}
	complete := p.stagePack(ctx, r)
	p.stageIntegrate(r)

	status := contract.PlanSuccess
	if !complete {
		status = contract.PlanPartialSuccess
	}
	resp := p.finish(r, status)

	if status == contract.PlanSuccess {
		if err := p.persistWeekly(context.WithoutCancel(ctx), r, resp); err != nil {
			p.log.Error("persisting weekly plan failed", "user_id", userID, "error", err)
			resp.OptimizationInsights = append(resp.OptimizationInsights,
				"The plan was computed but could not be saved; re-run planning to retry.")
		}
	}
	return resp, nil
}

func (r *run) stage(stage contract.PipelineStage, started time.Time, success bool, errs, warns []string) {
	r.stages = append(r.stages, contract.StageResult{
		Stage:      stage,
		Success:    success,
		DurationMs: time.Since(started).Milliseconds(),
		Errors:     errs,
		Warnings:   warns,
	})
}

func (p *Pipeline) stageInit(r *run) bool {
	started := time.Now()
	var errs []string

	weekStart, err := time.Parse("2006-01-02", r.req.WeekStartDate)
	if err != nil {
		errs = append(errs, fmt.Sprintf("week_start_date %q is not a valid YYYY-MM-DD date", r.req.WeekStartDate))
		weekStart = p.now().Truncate(24 * time.Hour)
	} else if p.now().Sub(weekStart) > maxWeekStartAgeDays*24*time.Hour {
		errs = append(errs, fmt.Sprintf("week_start_date %s is more than %d days in the past", r.req.WeekStartDate, maxWeekStartAgeDays))
	}
	if len(r.req.DailyTimeSlots) == 0 {
		errs = append(errs, "daily_time_slots must not be empty")
	}

	r.capacity = r.req.Constraints.TotalCapacityHours
	if r.capacity <= 0 {
		errs = append(errs, "total_capacity_hours must be positive")
	}

	r.weekStart = weekStart
	r.slots = toSchedulerSlots(r.req.DailyTimeSlots)

	if len(errs) > 0 {
		if !r.req.FallbackOnFailure {
			r.stage(contract.StageInit, started, false, errs, nil)
			return false
		}
		// Degraded run: the stage passes with warnings and empty results
		// propagate downstream.
		r.stage(contract.StageInit, started, true, nil, errs)
		return true
	}

	r.stage(contract.StageInit, started, true, nil, nil)
	return true
}

func (p *Pipeline) stagePriorities(ctx context.Context, r *run) error {
	started := time.Now()

	pc, err := p.loadPlanningContext(ctx, r.userID, r.req.ProjectFilter, r.req.SelectedRecurringTaskIDs)
	if err != nil {
		r.stage(contract.StagePriorities, started, false, []string{err.Error()}, nil)
		return err
	}
	r.pc = pc

	if r.req.EnableCaching {
		if cached := p.cache.Priorities(r.userID, r.req.WeekStartDate); cached != nil {
			r.scores = cached
			r.stage(contract.StagePriorities, started, true, nil, []string{"priorities served from cache"})
			return nil
		}
	}

	preq := priority.Request{
		WeekStart:   r.weekStart,
		Tasks:       pc.contexts,
		Allocations: toSchedulerAllocations(r.req.Constraints.ProjectAllocations),
		UserPrompt:  r.req.UserPrompt,
	}

	var warnings []string
	if r.req.UseAIPriority {
		r.scores, warnings = p.priorities.Priorities(ctx, preq)
	} else {
		r.scores = priority.DeterministicPriorities(preq)
	}
	r.insights = append(r.insights, warnings...)

	if r.req.EnableCaching {
		p.cache.PutPriorities(r.userID, r.req.WeekStartDate, r.scores)
	}
	r.stage(contract.StagePriorities, started, true, nil, warnings)
	return nil
}

func (p *Pipeline) stageSelect(ctx context.Context, r *run) error {
	started := time.Now()

	if r.req.EnableCaching {
		if cached := p.cache.Selection(r.userID, r.req.WeekStartDate); cached != nil {
			r.selected = cached
			r.stage(contract.StageSelect, started, true, nil, []string{"weekly selection served from cache"})
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		r.stage(contract.StageSelect, started, false, []string{"pipeline deadline exceeded before selection"}, nil)
		return err
	}

	sel := scheduler.SelectWeek(scheduler.WeeklyRequest{
		Tasks:         r.pc.tasks,
		Recurring:     r.pc.recurring,
		CapacityHours: r.capacity,
		Allocations:   toSchedulerAllocations(r.req.Constraints.ProjectAllocations),
		Priorities:    r.scores,
		Timeout:       remainingTimeout(ctx, scheduler.DefaultWeeklyTimeout),
	})
	r.selected = &sel

	switch {
	case len(sel.SelectedTaskIDs)+len(sel.SelectedRecurringIDs) == 0 && sel.Status != scheduler.StatusInfeasible:
		r.insights = append(r.insights, "No tasks were selected for this week; add tasks or raise capacity.")
	case sel.Status == scheduler.StatusInfeasible:
		r.insights = append(r.insights, "The weekly selection is infeasible under the current project allocations; relax the per-project hour bands.")
	}

	if r.req.EnableCaching {
		p.cache.PutSelection(r.userID, r.req.WeekStartDate, r.selected)
	}
	r.stage(contract.StageSelect, started, true, nil, nil)
	return nil
}

// stagePack runs the seven daily packs in parallel. Returns false when the
// deadline cut the fan-out short.
func (p *Pipeline) stagePack(ctx context.Context, r *run) bool {
	started := time.Now()

	selected := make(map[string]bool, len(r.selected.SelectedTaskIDs))
	for _, id := range r.selected.SelectedTaskIDs {
		selected[id] = true
	}
	var dayTasks []scheduler.Task
	for _, t := range r.pc.tasks {
		if selected[t.ID] {
			dayTasks = append(dayTasks, t)
		}
	}
	recurringSel := make(map[string]bool, len(r.selected.SelectedRecurringIDs))
	for _, id := range r.selected.SelectedRecurringIDs {
		recurringSel[id] = true
	}
	for _, t := range r.pc.recurring {
		if recurringSel[t.ID] {
			dayTasks = append(dayTasks, t)
		}
	}

	results := make([]contract.DailyPlanResponse, 7)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(packParallelism)
	for day := 0; day < 7; day++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			date := r.weekStart.AddDate(0, 0, day).Format("2006-01-02")
			res := scheduler.PackDay(scheduler.DailyRequest{
				Date:     date,
				Tasks:    dayTasks,
				Slots:    r.slots,
				Resolver: r.pc.resolver,
				Timeout:  remainingTimeout(gctx, scheduler.DefaultDailyTimeout),
			})
			results[day] = toDailyResponse(date, res, r.slots, r.pc.titles)
			return nil
		})
	}
	err := g.Wait()

	var warnings []string
	complete := err == nil
	for day := range results {
		if results[day].Date == "" {
			date := r.weekStart.AddDate(0, 0, day).Format("2006-01-02")
			results[day] = contract.DailyPlanResponse{Date: date, Status: scheduler.StatusUnknown}
			warnings = append(warnings, fmt.Sprintf("day %s was not packed before the deadline", date))
		}
		r.solverSecs += results[day].SolveSeconds
	}
	r.daily = results
	r.stage(contract.StagePack, started, complete, nil, warnings)
	return complete
}

func (p *Pipeline) stageIntegrate(r *run) {
	started := time.Now()

	var total float64
	infeasible := 0
	for _, d := range r.daily {
		total += d.TotalHours
		if d.Status == scheduler.StatusInfeasible {
			infeasible++
		}
	}

	utilization := 0.0
	if r.capacity > 0 {
		utilization = total / r.capacity
	}
	consistency := 1.0
	if r.selected.SelectedHours > 0 {
		consistency = clamp01(total / r.selected.SelectedHours)
	} else if total > 0 {
		consistency = 0
	}

	switch {
	case utilization > 1.0:
		r.insights = append(r.insights, "The packed schedule exceeds your weekly capacity; consider dropping a task.")
	case utilization >= 0.8:
		r.insights = append(r.insights, "Your week is tightly packed; leave some buffer for surprises.")
	case utilization < 0.5 && total > 0:
		r.insights = append(r.insights, "Less than half your capacity is scheduled; there is room for more work.")
	}
	if consistency < 0.8 && r.selected.SelectedHours > 0 {
		r.insights = append(r.insights,
			fmt.Sprintf("Only %.0f%% of the selected hours fit into your daily slots; widen the slots or trim the selection.", consistency*100))
	}
	if infeasible > 0 {
		r.insights = append(r.insights, fmt.Sprintf("%d day(s) could not be packed at all.", infeasible))
	}
	switch {
	case r.solverSecs < 1:
		r.insights = append(r.insights, "Planning solved quickly; feel free to iterate on constraints.")
	case r.solverSecs > 10:
		r.insights = append(r.insights, "Planning is near its time budget; fewer tasks or slots will speed it up.")
	}

	r.integration = integrated{total: total, utilization: utilization, consistency: consistency}
	r.stage(contract.StageIntegrate, started, true, nil, nil)
}

// totals computed by INTEGRATE, held on the run for finish().
type integrated struct {
	total       float64
	utilization float64
	consistency float64
}

func (p *Pipeline) finish(r *run, status contract.PlanStatus) *contract.WeeklyPlanResponse {
	return &contract.WeeklyPlanResponse{
		Success:              status != contract.PlanFailed,
		Status:               status,
		WeeklySelection:      r.selected,
		DailyOptimizations:   r.daily,
		TotalOptimizedHours:  r.integration.total,
		CapacityUtilization:  r.integration.utilization,
		ConsistencyScore:     r.integration.consistency,
		OptimizationInsights: r.insights,
		PipelineMetrics: contract.PipelineMetrics{
			TotalDurationMs: time.Since(r.startedAt).Milliseconds(),
			SolverSeconds:   r.solverSecs,
			StagesCompleted: len(r.stages),
			DaysPacked:      len(r.daily),
		},
		StageResults: r.stages,
	}
}

// persistWeekly serializes the aggregated outcome as the user's weekly
// schedule blob.
func (p *Pipeline) persistWeekly(ctx context.Context, r *run, resp *contract.WeeklyPlanResponse) error {
	record := domain.WeeklyPlanRecord{
		WeekStartDate:            r.req.WeekStartDate,
		SelectedRecurringTaskIDs: r.selected.SelectedRecurringIDs,
		HoursByProject:           r.selected.HoursByProject,
		Insights:                 resp.OptimizationInsights,
		TotalOptimizedHours:      resp.TotalOptimizedHours,
		CapacityUtilization:      resp.CapacityUtilization,
		ConsistencyScore:         resp.ConsistencyScore,
	}

	byID := make(map[string]scheduler.Task, len(r.pc.tasks))
	for _, t := range r.pc.tasks {
		byID[t.ID] = t
	}
	ids := append([]string{}, r.selected.SelectedTaskIDs...)
	sort.Strings(ids)
	for _, id := range ids {
		t := byID[id]
		record.SelectedTasks = append(record.SelectedTasks, domain.WeeklyScheduleTask{
			TaskID:        id,
			Title:         t.Title,
			ProjectID:     t.ProjectID,
			Priority:      r.scores[id],
			EstimateHours: t.RemainingHours,
		})
	}
	for _, d := range r.daily {
		record.Days = append(record.Days, domain.WeeklyDaySummary{
			Date:           d.Date,
			Status:         string(d.Status),
			ScheduledHours: d.TotalHours,
			TaskCount:      len(d.Assignments),
		})
	}

	now := p.now()
	return p.schedules.PutWeekly(ctx, &domain.WeeklySchedule{
		UserID:    r.userID,
		WeekStart: r.req.WeekStartDate,
		Record:    record,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func toSchedulerSlots(in []contract.TimeSlotInput) []scheduler.TimeSlot {
	out := make([]scheduler.TimeSlot, 0, len(in))
	for _, s := range in {
		out = append(out, scheduler.TimeSlot{
			Start:           s.Start,
			End:             s.End,
			Kind:            domain.WorkKind(s.Kind),
			CapacityHours:   s.CapacityHours,
			PinnedProjectID: s.PinnedProjectID,
		})
	}
	return out
}

func toSchedulerAllocations(in []contract.ProjectAllocationInput) []scheduler.ProjectAllocation {
	out := make([]scheduler.ProjectAllocation, 0, len(in))
	for _, a := range in {
		out = append(out, scheduler.ProjectAllocation{
			ProjectID:      a.ProjectID,
			TargetHours:    a.TargetHours,
			MaxHours:       a.MaxHours,
			PriorityWeight: a.PriorityWeight,
		})
	}
	return out
}

func toDailyResponse(date string, res scheduler.ScheduleResult, slots []scheduler.TimeSlot, titles map[string]string) contract.DailyPlanResponse {
	out := contract.DailyPlanResponse{
		Date:           date,
		Success:        res.Success,
		Status:         res.Status,
		UnscheduledIDs: res.UnscheduledIDs,
		TotalHours:     res.TotalHours,
		SolveSeconds:   res.SolveSeconds,
	}
	for _, a := range res.Assignments {
		da := contract.DailyAssignment{
			TaskID:        a.TaskID,
			TaskTitle:     titles[a.TaskID],
			SlotIndex:     a.SlotIndex,
			StartTime:     a.StartTime,
			DurationHours: a.DurationHours,
			IsFixed:       a.IsFixed,
		}
		if a.SlotIndex >= 0 && a.SlotIndex < len(slots) {
			da.SlotStart = slots[a.SlotIndex].Start
			da.SlotEnd = slots[a.SlotIndex].End
			da.SlotKind = string(slots[a.SlotIndex].Kind)
		}
		out.Assignments = append(out.Assignments, da)
	}
	return out
}

func remainingTimeout(ctx context.Context, ceiling time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return ceiling
	}
	if remaining := time.Until(deadline); remaining < ceiling {
		return remaining
	}
	return ceiling
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
