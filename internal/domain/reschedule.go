package domain

import (
	"errors"
	"time"
)

var ErrSuggestionNotPending = errors.New("reschedule suggestion is not pending")

// PlanAssignment is one slot of a saved day plan. Start and End are "HH:MM"
// local to the planning day.
type PlanAssignment struct {
	TaskID         string   `json:"task_id"`
	TaskTitle      string   `json:"task_title"`
	SlotIndex      int      `json:"slot_index"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	DurationHours  float64  `json:"duration_hours"`
	RemainingHours *float64 `json:"remaining_hours,omitempty"`
	IsFixed        bool     `json:"is_fixed,omitempty"`
}

// DayPlan is the persisted timeline for one date.
type DayPlan struct {
	Date        string           `json:"date"`
	Assignments []PlanAssignment `json:"assignments"`
}

// DiffItem describes one change between an original and a proposed plan.
type DiffItem struct {
	TaskID            string     `json:"task_id"`
	TaskTitle         string     `json:"task_title"`
	ChangeType        DiffChange `json:"change_type"`
	OriginalSlotIndex *int       `json:"original_slot_index,omitempty"`
	NewSlotIndex      *int       `json:"new_slot_index,omitempty"`
	Reason            string     `json:"reason"`
}

// ScheduleDiff is the typed delta between two day plans.
type ScheduleDiff struct {
	Pushed                []DiffItem `json:"pushed"`
	Added                 []DiffItem `json:"added"`
	Removed               []DiffItem `json:"removed"`
	Reordered             []DiffItem `json:"reordered"`
	TotalChanges          int        `json:"total_changes"`
	HasSignificantChanges bool       `json:"has_significant_changes"`
}

// RescheduleSuggestion proposes a reworked remainder of the day after a
// checkout. Terminal statuses set DecidedAt; PENDING suggestions expire at
// end of their local day.
type RescheduleSuggestion struct {
	ID              string
	UserID          string
	WorkSessionID   string
	TriggerType     SuggestionTrigger
	TriggerDecision string
	OriginalPlan    DayPlan
	ProposedPlan    DayPlan
	Diff            ScheduleDiff
	Status          SuggestionStatus
	ExpiresAt       time.Time
	DecidedAt       *time.Time
	DecisionReason  string
	CreatedAt       time.Time
}

// Decide moves a PENDING suggestion to a terminal status.
func (r *RescheduleSuggestion) Decide(status SuggestionStatus, now time.Time, reason string) error {
	if r.Status != SuggestionPending {
		return ErrSuggestionNotPending
	}
	r.Status = status
	t := now
	r.DecidedAt = &t
	r.DecisionReason = reason
	return nil
}

// RescheduleDecision is the audit row written when a suggestion is decided.
type RescheduleDecision struct {
	ID           string
	SuggestionID string
	Accepted     bool
	Reason       string
	CreatedAt    time.Time
}
