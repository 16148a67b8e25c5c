package domain

import (
	"errors"
	"fmt"
	"time"
)

// MaxEstimateHours bounds task estimates; matches the storage column scale.
const MaxEstimateHours = 999.99

var ErrEstimateOutOfRange = errors.New("estimate_hours must be in (0, 999.99]")

type Project struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Goal struct {
	ID        string
	ProjectID string
	Title     string
	Status    GoalStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Task struct {
	ID            string
	GoalID        string
	Title         string
	EstimateHours float64
	Kind          WorkKind
	Priority      int // 1..5, 1 = highest
	DueAt         *time.Time
	Status        TaskStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *Task) Validate() error {
	if t.Title == "" {
		return errors.New("task title must not be empty")
	}
	if t.EstimateHours <= 0 || t.EstimateHours > MaxEstimateHours {
		return ErrEstimateOutOfRange
	}
	if t.Priority < 1 || t.Priority > 5 {
		return fmt.Errorf("task priority must be in [1,5], got %d", t.Priority)
	}
	if !ValidWorkKinds[string(t.Kind)] {
		return fmt.Errorf("invalid work kind %q", t.Kind)
	}
	return nil
}

// WorkLog records minutes actually spent on a task. Append-only during
// planning reads.
type WorkLog struct {
	ID            string
	TaskID        string
	ActualMinutes int
	Comment       string
	CreatedAt     time.Time
}

func (l *WorkLog) Validate() error {
	if l.ActualMinutes <= 0 {
		return errors.New("actual_minutes must be > 0")
	}
	return nil
}

// RecurringTask is a weekly recurring commitment. Soft-deleted; always
// schedulable (no dependency edges may target it).
type RecurringTask struct {
	ID            string
	UserID        string
	Title         string
	EstimateHours float64
	Category      string
	Active        bool
	DeletedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Schedulable reports whether the recurring task participates in planning.
func (r *RecurringTask) Schedulable() bool {
	return r.Active && r.DeletedAt == nil
}

// DependencyKind names the entity kind on either end of a dependency edge.
type DependencyKind string

const (
	DepTask DependencyKind = "task"
	DepGoal DependencyKind = "goal"
)

// Dependency is a directed edge: Successor depends on Predecessor.
type Dependency struct {
	SuccessorKind   DependencyKind
	SuccessorID     string
	PredecessorKind DependencyKind
	PredecessorID   string
}

func (d *Dependency) Validate() error {
	if d.SuccessorKind == d.PredecessorKind && d.SuccessorID == d.PredecessorID {
		return errors.New("dependency must not reference itself")
	}
	return nil
}

// UserProfile holds per-user planning defaults.
type UserProfile struct {
	UserID              string
	WeeklyCapacityHours float64
	Timezone            string
}
