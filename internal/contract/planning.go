package contract

import "github.com/alexanderramin/horae/internal/scheduler"

// PlanStatus classifies a whole pipeline run.
type PlanStatus string

const (
	PlanSuccess        PlanStatus = "SUCCESS"
	PlanPartialSuccess PlanStatus = "PARTIAL_SUCCESS"
	PlanFailed         PlanStatus = "FAILED"
)

// PipelineStage names one stage of the weekly planning pipeline.
type PipelineStage string

const (
	StageInit       PipelineStage = "INIT"
	StagePriorities PipelineStage = "PRIORITIES"
	StageSelect     PipelineStage = "SELECT"
	StagePack       PipelineStage = "PACK"
	StageIntegrate  PipelineStage = "INTEGRATE"
)

// ProjectAllocationInput is one per-project hour band in a plan request.
type ProjectAllocationInput struct {
	ProjectID      string  `json:"project_id" binding:"required"`
	TargetHours    float64 `json:"target_hours"`
	MaxHours       float64 `json:"max_hours"`
	PriorityWeight float64 `json:"priority_weight"`
}

// PlanConstraints carries the capacity envelope of a weekly plan request.
type PlanConstraints struct {
	TotalCapacityHours float64                  `json:"total_capacity_hours" binding:"required,gt=0"`
	DailyMaxHours      float64                  `json:"daily_max_hours"`
	DeepWorkBlocks     int                      `json:"deep_work_blocks"`
	MeetingBufferHours float64                  `json:"meeting_buffer_hours"`
	ProjectAllocations []ProjectAllocationInput `json:"project_allocations"`
}

// TimeSlotInput is one plannable window, times as "HH:MM".
type TimeSlotInput struct {
	Start           string   `json:"start" binding:"required"`
	End             string   `json:"end" binding:"required"`
	Kind            string   `json:"kind"`
	CapacityHours   *float64 `json:"capacity_hours,omitempty"`
	PinnedProjectID string   `json:"pinned_project_id,omitempty"`
}

// FixedAssignmentInput pins a task into a slot ahead of the solver.
type FixedAssignmentInput struct {
	TaskID        string   `json:"task_id" binding:"required"`
	SlotIndex     int      `json:"slot_index"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
}

// WeeklyPlanRequest is the full input of the weekly planning pipeline.
type WeeklyPlanRequest struct {
	WeekStartDate              string               `json:"week_start_date" binding:"required"`
	Constraints                PlanConstraints      `json:"constraints"`
	ProjectFilter              string               `json:"project_filter,omitempty"`
	SelectedRecurringTaskIDs   []string             `json:"selected_recurring_task_ids,omitempty"`
	DailyTimeSlots             []TimeSlotInput      `json:"daily_time_slots"`
	Preferences                map[string]string    `json:"preferences,omitempty"`
	UserPrompt                 string               `json:"user_prompt,omitempty"`
	UseAIPriority              bool                 `json:"use_ai_priority"`
	EnableCaching              bool                 `json:"enable_caching"`
	OptimizationTimeoutSeconds float64              `json:"optimization_timeout_seconds"`
	FallbackOnFailure          bool                 `json:"fallback_on_failure"`
}

// TaskSourceType selects where a daily plan draws its tasks from.
type TaskSourceType string

const (
	SourceAllTasks       TaskSourceType = "ALL_TASKS"
	SourceProject        TaskSourceType = "PROJECT"
	SourceWeeklySchedule TaskSourceType = "WEEKLY_SCHEDULE"
)

// TaskSource names the candidate pool for a daily plan.
type TaskSource struct {
	Type               TaskSourceType `json:"type" binding:"required"`
	ProjectID          string         `json:"project_id,omitempty"`
	WeeklyScheduleDate string         `json:"weekly_schedule_date,omitempty"`
}

// DailyPlanRequest is the input of a standalone daily planning run.
type DailyPlanRequest struct {
	Date             string                 `json:"date" binding:"required"`
	Source           TaskSource             `json:"task_source"`
	TimeSlots        []TimeSlotInput        `json:"time_slots"`
	FixedAssignments []FixedAssignmentInput `json:"fixed_assignments,omitempty"`
}

// DailyAssignment is one packed slot of a daily plan response, slot context
// resolved for display.
type DailyAssignment struct {
	TaskID        string  `json:"task_id"`
	TaskTitle     string  `json:"task_title"`
	SlotIndex     int     `json:"slot_index"`
	SlotStart     string  `json:"slot_start"`
	SlotEnd       string  `json:"slot_end"`
	SlotKind      string  `json:"slot_kind"`
	StartTime     string  `json:"start_time"`
	DurationHours float64 `json:"duration_hours"`
	IsFixed       bool    `json:"is_fixed"`
}

// DailyPlanResponse is the outcome of one daily planning run.
type DailyPlanResponse struct {
	Date           string                `json:"date"`
	Success        bool                  `json:"success"`
	Status         scheduler.SolveStatus `json:"status"`
	Assignments    []DailyAssignment     `json:"assignments"`
	UnscheduledIDs []string              `json:"unscheduled_ids,omitempty"`
	TotalHours     float64               `json:"total_hours"`
	SolveSeconds   float64               `json:"solve_seconds"`
}

// StageResult reports one pipeline stage's outcome.
type StageResult struct {
	Stage      PipelineStage `json:"stage"`
	Success    bool          `json:"success"`
	DurationMs int64         `json:"duration_ms"`
	Errors     []string      `json:"errors,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
}

// PipelineMetrics aggregates timing across the run.
type PipelineMetrics struct {
	TotalDurationMs int64   `json:"total_duration_ms"`
	SolverSeconds   float64 `json:"solver_seconds"`
	StagesCompleted int     `json:"stages_completed"`
	DaysPacked      int     `json:"days_packed"`
}

// WeeklyPlanResponse is the pipeline's aggregated outcome.
type WeeklyPlanResponse struct {
	Success              bool                       `json:"success"`
	Status               PlanStatus                 `json:"status"`
	WeeklySelection      *scheduler.WeeklySelection `json:"weekly_selection,omitempty"`
	DailyOptimizations   []DailyPlanResponse        `json:"daily_optimizations"`
	TotalOptimizedHours  float64                    `json:"total_optimized_hours"`
	CapacityUtilization  float64                    `json:"capacity_utilization"`
	ConsistencyScore     float64                    `json:"consistency_score"`
	OptimizationInsights []string                   `json:"optimization_insights"`
	PipelineMetrics      PipelineMetrics            `json:"pipeline_metrics"`
	StageResults         []StageResult              `json:"stage_results"`
}
