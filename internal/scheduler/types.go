package scheduler

import (
	"time"

	"github.com/alexanderramin/horae/internal/domain"
)

// SolveStatus is the outcome classification of one solver run.
type SolveStatus string

const (
	StatusOptimal        SolveStatus = "OPTIMAL"
	StatusFeasible       SolveStatus = "FEASIBLE"
	StatusInfeasible     SolveStatus = "INFEASIBLE"
	StatusUnknown        SolveStatus = "UNKNOWN"
	StatusNoTasksOrSlots SolveStatus = "NO_TASKS_OR_SLOTS"
)

// Task is a planning-run view of a task: remaining hours already folded in,
// project context flattened. It exists only for the duration of one run.
type Task struct {
	ID             string
	Title          string
	RemainingHours float64
	Priority       int // 1..5, 1 = highest
	DueAt          *time.Time
	Kind           domain.WorkKind
	GoalID         string
	ProjectID      string
	IsRecurring    bool
	ActualHours    float64
}

// TimeSlot is one plannable window of a day. Start and End are "HH:MM".
type TimeSlot struct {
	Start           string
	End             string
	Kind            domain.WorkKind
	CapacityHours   *float64
	PinnedProjectID string
}

// FixedAssignment is a user pin: the task goes into that slot no matter what
// the objective says.
type FixedAssignment struct {
	TaskID        string
	SlotIndex     int
	DurationHours *float64
}

// Assignment is one packed (task, slot) pair in a day schedule.
type Assignment struct {
	TaskID        string  `json:"task_id"`
	SlotIndex     int     `json:"slot_index"`
	StartTime     string  `json:"start_time"`
	DurationHours float64 `json:"duration_hours"`
	IsFixed       bool    `json:"is_fixed"`
}

// ScheduleResult is the daily packer's outcome. Solver failure is carried
// in-band through Status, never as an error.
type ScheduleResult struct {
	Success        bool
	Assignments    []Assignment
	UnscheduledIDs []string
	TotalHours     float64
	Status         SolveStatus
	SolveSeconds   float64
	Objective      float64
}

// ProjectAllocation drives the weekly selector's per-project band
// constraints.
type ProjectAllocation struct {
	ProjectID      string
	TargetHours    float64
	MaxHours       float64
	PriorityWeight float64
}

// WeeklySelection is the weekly selector's outcome.
type WeeklySelection struct {
	SelectedTaskIDs      []string
	SelectedRecurringIDs []string
	SelectedHours        float64
	HoursByProject       map[string]float64
	Status               SolveStatus
	Objective            float64
}

// RemainingHours derives plannable hours from an estimate and logged work.
func RemainingHours(estimateHours, actualHours float64) float64 {
	r := estimateHours - actualHours
	if r < 0 {
		return 0
	}
	return r
}
