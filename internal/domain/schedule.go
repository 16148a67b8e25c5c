package domain

import "time"

// DailySchedule stores the committed plan for one user-day as a single blob.
type DailySchedule struct {
	UserID    string
	Date      string // YYYY-MM-DD
	Plan      DayPlan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeeklyScheduleTask is one selected task inside the weekly record.
type WeeklyScheduleTask struct {
	TaskID        string  `json:"task_id"`
	Title         string  `json:"title"`
	ProjectID     string  `json:"project_id"`
	Priority      float64 `json:"priority"`
	EstimateHours float64 `json:"estimate_hours"`
}

// WeeklyDaySummary captures one packed day's totals inside the weekly record.
type WeeklyDaySummary struct {
	Date           string  `json:"date"`
	Status         string  `json:"status"`
	ScheduledHours float64 `json:"scheduled_hours"`
	TaskCount      int     `json:"task_count"`
}

// WeeklyPlanRecord is the persisted weekly planning outcome, keyed by
// user + week start. Daily planning later resolves its recurring selection
// from SelectedRecurringTaskIDs.
type WeeklyPlanRecord struct {
	WeekStartDate            string               `json:"week_start_date"`
	SelectedTasks            []WeeklyScheduleTask `json:"selected_tasks"`
	SelectedRecurringTaskIDs []string             `json:"selected_recurring_task_ids"`
	HoursByProject           map[string]float64   `json:"hours_by_project"`
	Days                     []WeeklyDaySummary   `json:"days"`
	Insights                 []string             `json:"insights"`
	TotalOptimizedHours      float64              `json:"total_optimized_hours"`
	CapacityUtilization      float64              `json:"capacity_utilization"`
	ConsistencyScore         float64              `json:"consistency_score"`
}

// WeeklySchedule wraps the record with its storage identity.
type WeeklySchedule struct {
	UserID    string
	WeekStart string // YYYY-MM-DD
	Record    WeeklyPlanRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeeklyScheduleOption is the list-view projection of stored weekly plans.
type WeeklyScheduleOption struct {
	WeekStartDate string `json:"week_start_date"`
	TaskCount     int    `json:"task_count"`
	Title         string `json:"title"`
}
