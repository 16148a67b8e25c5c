package planner

import (
	"context"
	"fmt"

	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/priority"
	"github.com/alexanderramin/horae/internal/scheduler"
)

// planningContext is one consistent snapshot of everything a planning run
// reads: candidate tasks with remaining hours folded in, the selected
// recurring tasks, and the dependency resolver over batch-read completion.
type planningContext struct {
	tasks     []scheduler.Task
	recurring []scheduler.Task
	resolver  *scheduler.DependencyResolver
	contexts  []priority.TaskContext

	titles   map[string]string
	projects map[string]string // task id -> project id
}

// loadPlanningContext pulls the candidate set for one user. projectFilter
// narrows to a single project; recurringIDs selects which recurring tasks
// participate.
func (p *Pipeline) loadPlanningContext(ctx context.Context, userID, projectFilter string, recurringIDs []string) (*planningContext, error) {
	plannable, err := p.tasks.ListPlannable(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing plannable tasks: %w", err)
	}
	if projectFilter != "" {
		filtered := plannable[:0]
		for _, pt := range plannable {
			if pt.ProjectID == projectFilter {
				filtered = append(filtered, pt)
			}
		}
		plannable = filtered
	}

	taskIDs := make([]string, 0, len(plannable))
	for _, pt := range plannable {
		taskIDs = append(taskIDs, pt.Task.ID)
	}
	actuals := p.actualHours(ctx, taskIDs)

	pc := &planningContext{
		titles:   make(map[string]string),
		projects: make(map[string]string),
	}

	goalIDSet := make(map[string]bool)
	for _, pt := range plannable {
		t := pt.Task
		actual := actuals[t.ID]
		remaining := scheduler.RemainingHours(t.EstimateHours, actual)
		pc.titles[t.ID] = t.Title
		pc.projects[t.ID] = pt.ProjectID
		goalIDSet[t.GoalID] = true
		if remaining <= 0 {
			p.log.Debug("task fully logged, excluded from planning", "task_id", t.ID)
			continue
		}
		pc.tasks = append(pc.tasks, scheduler.Task{
			ID:             t.ID,
			Title:          t.Title,
			RemainingHours: remaining,
			Priority:       t.Priority,
			DueAt:          t.DueAt,
			Kind:           t.Kind,
			GoalID:         t.GoalID,
			ProjectID:      pt.ProjectID,
			ActualHours:    actual,
		})
		pc.contexts = append(pc.contexts, priority.TaskContext{
			ID:             t.ID,
			Title:          t.Title,
			ProjectID:      pt.ProjectID,
			ProjectName:    pt.ProjectName,
			RemainingHours: remaining,
			Priority:       t.Priority,
			DueAt:          t.DueAt,
		})
	}

	if len(recurringIDs) > 0 {
		recs, err := p.recurring.GetByIDs(ctx, recurringIDs)
		if err != nil {
			return nil, fmt.Errorf("loading recurring tasks: %w", err)
		}
		for _, r := range recs {
			if !r.Schedulable() {
				continue
			}
			pc.titles[r.ID] = r.Title
			pc.recurring = append(pc.recurring, scheduler.Task{
				ID:             r.ID,
				Title:          r.Title,
				RemainingHours: r.EstimateHours,
				Priority:       recurringDefaultPriority,
				IsRecurring:    true,
			})
			pc.contexts = append(pc.contexts, priority.TaskContext{
				ID:             r.ID,
				Title:          r.Title,
				RemainingHours: r.EstimateHours,
				Priority:       recurringDefaultPriority,
				IsRecurring:    true,
			})
		}
	}

	resolver, err := p.loadResolver(ctx, taskIDs, goalIDSet)
	if err != nil {
		return nil, err
	}
	pc.resolver = resolver

	// Relaxed dependency check against the full candidate set: a task whose
	// prerequisite is neither completed nor a co-candidate cannot be planned
	// this week.
	set := scheduler.NewCandidateSet(pc.tasks)
	eligible := pc.tasks[:0]
	for _, t := range pc.tasks {
		if resolver.Satisfied(t, set) {
			eligible = append(eligible, t)
		} else {
			p.log.Debug("task blocked by unsatisfied dependency", "task_id", t.ID)
		}
	}
	pc.tasks = eligible

	return pc, nil
}

// actualHours aggregates logged minutes into hours per task. IDs with no
// logs map to 0; a backend error degrades to an empty map with a log line,
// never a failure.
func (p *Pipeline) actualHours(ctx context.Context, taskIDs []string) map[string]float64 {
	hours := make(map[string]float64, len(taskIDs))
	if len(taskIDs) == 0 {
		return hours
	}
	minutes, err := p.logs.ActualMinutesByTask(ctx, taskIDs)
	if err != nil {
		p.log.Error("aggregating actual hours failed, treating all as zero", "error", err)
		return hours
	}
	for id, m := range minutes {
		hours[id] = float64(m) / 60.0
	}
	return hours
}

func (p *Pipeline) loadResolver(ctx context.Context, taskIDs []string, goalIDSet map[string]bool) (*scheduler.DependencyResolver, error) {
	goalIDs := make([]string, 0, len(goalIDSet))
	for id := range goalIDSet {
		goalIDs = append(goalIDs, id)
	}

	taskEdges, err := p.deps.ListForSuccessors(ctx, domain.DepTask, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("loading task dependencies: %w", err)
	}
	goalEdges, err := p.deps.ListForSuccessors(ctx, domain.DepGoal, goalIDs)
	if err != nil {
		return nil, fmt.Errorf("loading goal dependencies: %w", err)
	}

	var predTasks, predGoals []string
	for _, e := range append(append([]domain.Dependency{}, taskEdges...), goalEdges...) {
		switch e.PredecessorKind {
		case domain.DepTask:
			predTasks = append(predTasks, e.PredecessorID)
		case domain.DepGoal:
			predGoals = append(predGoals, e.PredecessorID)
		}
	}

	completedTasks := map[string]bool{}
	if len(predTasks) > 0 {
		if completedTasks, err = p.tasks.CompletedByIDs(ctx, predTasks); err != nil {
			return nil, fmt.Errorf("resolving task completion: %w", err)
		}
	}
	completedGoals := map[string]bool{}
	if len(predGoals) > 0 {
		if completedGoals, err = p.goals.CompletedByIDs(ctx, predGoals); err != nil {
			return nil, fmt.Errorf("resolving goal completion: %w", err)
		}
	}

	return scheduler.NewDependencyResolver(taskEdges, goalEdges, completedTasks, completedGoals), nil
}
