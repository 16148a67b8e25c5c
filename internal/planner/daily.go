package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/repository"
	"github.com/alexanderramin/horae/internal/scheduler"
)

// PlanDaily packs one day outside the weekly pipeline. The task source
// decides the candidate pool: everything plannable, one project, or the
// tasks a stored weekly plan selected.
func (p *Pipeline) PlanDaily(ctx context.Context, userID string, req contract.DailyPlanRequest) (*contract.DailyPlanResponse, error) {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, contract.Invalid("date %q is not a valid YYYY-MM-DD date", req.Date)
	}

	projectFilter := ""
	if req.Source.Type == contract.SourceProject {
		if req.Source.ProjectID == "" {
			return nil, contract.Invalid("task_source PROJECT requires project_id")
		}
		projectFilter = req.Source.ProjectID
	}

	var recurringIDs []string
	var weeklyTaskIDs map[string]bool
	if req.Source.Type == contract.SourceWeeklySchedule {
		weekStart := req.Source.WeeklyScheduleDate
		if weekStart == "" {
			return nil, contract.Invalid("task_source WEEKLY_SCHEDULE requires weekly_schedule_date")
		}
		weekly, err := p.schedules.GetWeekly(ctx, userID, weekStart)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, contract.NotFound("no weekly schedule stored for %s", weekStart)
			}
			return nil, fmt.Errorf("loading weekly schedule: %w", err)
		}
		weeklyTaskIDs = make(map[string]bool, len(weekly.Record.SelectedTasks))
		for _, t := range weekly.Record.SelectedTasks {
			weeklyTaskIDs[t.TaskID] = true
		}
		recurringIDs = weekly.Record.SelectedRecurringTaskIDs
	}

	pc, err := p.loadPlanningContext(ctx, userID, projectFilter, recurringIDs)
	if err != nil {
		return nil, err
	}

	tasks := pc.tasks
	if weeklyTaskIDs != nil {
		tasks = tasks[:0]
		for _, t := range pc.tasks {
			if weeklyTaskIDs[t.ID] {
				tasks = append(tasks, t)
			}
		}
	}
	tasks = append(tasks, pc.recurring...)

	slots := toSchedulerSlots(req.TimeSlots)
	fixed := make([]scheduler.FixedAssignment, 0, len(req.FixedAssignments))
	for _, f := range req.FixedAssignments {
		fixed = append(fixed, scheduler.FixedAssignment{
			TaskID:        f.TaskID,
			SlotIndex:     f.SlotIndex,
			DurationHours: f.DurationHours,
		})
	}

	res := scheduler.PackDay(scheduler.DailyRequest{
		Date:     req.Date,
		Tasks:    tasks,
		Slots:    slots,
		Fixed:    fixed,
		Resolver: pc.resolver,
	})

	resp := toDailyResponse(req.Date, res, slots, pc.titles)
	return &resp, nil
}
