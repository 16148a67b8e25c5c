package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/horae/internal/domain"
)

// DefaultUserID is the user every fixture belongs to unless overridden.
const DefaultUserID = "user-1"

// Project options
type ProjectOption func(*domain.Project)

func WithProjectUser(userID string) ProjectOption {
	return func(p *domain.Project) {
		p.UserID = userID
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		UserID:    DefaultUserID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Goal options
type GoalOption func(*domain.Goal)

func WithGoalStatus(s domain.GoalStatus) GoalOption {
	return func(g *domain.Goal) {
		g.Status = s
	}
}

func NewTestGoal(projectID, title string, opts ...GoalOption) *domain.Goal {
	now := time.Now().UTC()
	g := &domain.Goal{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Title:     title,
		Status:    domain.GoalPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Task options
type TaskOption func(*domain.Task)

func WithEstimate(hours float64) TaskOption {
	return func(t *domain.Task) {
		t.EstimateHours = hours
	}
}

func WithPriority(p int) TaskOption {
	return func(t *domain.Task) {
		t.Priority = p
	}
}

func WithKind(k domain.WorkKind) TaskOption {
	return func(t *domain.Task) {
		t.Kind = k
	}
}

func WithDueAt(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.DueAt = &d
	}
}

func WithTaskStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func NewTestTask(goalID, title string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:            uuid.New().String(),
		GoalID:        goalID,
		Title:         title,
		EstimateHours: 2,
		Kind:          domain.KindFocusedWork,
		Priority:      3,
		Status:        domain.TaskPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecurringTask options
type RecurringOption func(*domain.RecurringTask)

func WithRecurringActive(active bool) RecurringOption {
	return func(r *domain.RecurringTask) {
		r.Active = active
	}
}

func NewTestRecurring(title string, hours float64, opts ...RecurringOption) *domain.RecurringTask {
	now := time.Now().UTC()
	r := &domain.RecurringTask{
		ID:            uuid.New().String(),
		UserID:        DefaultUserID,
		Title:         title,
		EstimateHours: hours,
		Category:      "routine",
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session options
type SessionOption func(*domain.WorkSession)

func WithSessionStart(t time.Time) SessionOption {
	return func(s *domain.WorkSession) {
		s.StartedAt = t
	}
}

func WithPlannedCheckout(t time.Time) SessionOption {
	return func(s *domain.WorkSession) {
		s.PlannedCheckoutAt = t
	}
}

func NewTestSession(userID, taskID string, opts ...SessionOption) *domain.WorkSession {
	now := time.Now().UTC()
	s := &domain.WorkSession{
		ID:                uuid.New().String(),
		UserID:            userID,
		TaskID:            taskID,
		StartedAt:         now,
		PlannedCheckoutAt: now.Add(time.Hour),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
