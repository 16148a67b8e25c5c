package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/horae/internal/domain"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned on unique-constraint conflicts such as a
	// repeated dependency edge.
	ErrDuplicate = errors.New("already exists")

	// ErrActiveSessionExists is returned when a second open work session
	// would be created for the same user.
	ErrActiveSessionExists = errors.New("active work session already exists")
)

// PlanningTask is a joined view of a task with its goal and project context,
// used by the planning pipeline.
type PlanningTask struct {
	Task        domain.Task
	ProjectID   string
	ProjectName string
}

// OpenSession is a work session with its task title eager-loaded, as the
// notification escalator consumes it.
type OpenSession struct {
	Session   domain.WorkSession
	TaskTitle string
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type GoalRepo interface {
	Create(ctx context.Context, g *domain.Goal) error
	GetByID(ctx context.Context, id string) (*domain.Goal, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Goal, error)
	Update(ctx context.Context, g *domain.Goal) error
	Delete(ctx context.Context, id string) error
	// CompletedByIDs answers goal completion for a batch of ids in one read.
	CompletedByIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByGoal(ctx context.Context, goalID string) ([]*domain.Task, error)
	// ListPlannable returns non-terminal tasks joined with goal and project
	// context for one user.
	ListPlannable(ctx context.Context, userID string) ([]PlanningTask, error)
	Update(ctx context.Context, t *domain.Task) error
	UpdateEstimate(ctx context.Context, id string, estimateHours float64) error
	Delete(ctx context.Context, id string) error
	// CompletedByIDs answers task completion for a batch of ids in one read.
	CompletedByIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

type WorkLogRepo interface {
	Create(ctx context.Context, l *domain.WorkLog) error
	ListByTask(ctx context.Context, taskID string) ([]*domain.WorkLog, error)
	// ActualMinutesByTask sums logged minutes per task in one aggregate
	// read. IDs with no logs are absent from the map.
	ActualMinutesByTask(ctx context.Context, taskIDs []string) (map[string]int, error)
	TotalMinutesForTask(ctx context.Context, taskID string) (int, error)
}

type DependencyRepo interface {
	Create(ctx context.Context, d *domain.Dependency) error
	Delete(ctx context.Context, d *domain.Dependency) error
	// ListForSuccessors returns every edge whose successor is one of the
	// given ids of the given kind, in one read.
	ListForSuccessors(ctx context.Context, kind domain.DependencyKind, ids []string) ([]domain.Dependency, error)
}

type RecurringTaskRepo interface {
	Create(ctx context.Context, r *domain.RecurringTask) error
	GetByID(ctx context.Context, id string) (*domain.RecurringTask, error)
	ListActive(ctx context.Context, userID string) ([]*domain.RecurringTask, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.RecurringTask, error)
	Update(ctx context.Context, r *domain.RecurringTask) error
	SoftDelete(ctx context.Context, id string) error
}

type WorkSessionRepo interface {
	// Create inserts a new open session; returns ErrActiveSessionExists if
	// the user already has one.
	Create(ctx context.Context, s *domain.WorkSession) error
	GetByID(ctx context.Context, id string) (*domain.WorkSession, error)
	GetActiveByUser(ctx context.Context, userID string) (*domain.WorkSession, error)
	Update(ctx context.Context, s *domain.WorkSession) error
	// ListOpen returns every session with ended_at null, task title
	// eager-loaded, for the escalator's single-pass scan.
	ListOpen(ctx context.Context) ([]OpenSession, error)
	ListByUser(ctx context.Context, userID string, skip, limit int) ([]*domain.WorkSession, error)
}

type PushSubscriptionRepo interface {
	// Upsert registers or updates by (user, endpoint); updating revives an
	// inactive subscription and zeroes its failure count.
	Upsert(ctx context.Context, s *domain.PushSubscription) error
	Update(ctx context.Context, s *domain.PushSubscription) error
	Deactivate(ctx context.Context, userID, endpoint string) error
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error)
	GetByEndpoint(ctx context.Context, userID, endpoint string) (*domain.PushSubscription, error)
}

type ScheduleRepo interface {
	GetDaily(ctx context.Context, userID, date string) (*domain.DailySchedule, error)
	PutDaily(ctx context.Context, s *domain.DailySchedule) error
	ListDaily(ctx context.Context, userID string, skip, limit int) ([]*domain.DailySchedule, error)
	GetWeekly(ctx context.Context, userID, weekStart string) (*domain.WeeklySchedule, error)
	PutWeekly(ctx context.Context, s *domain.WeeklySchedule) error
	ListWeeklyOptions(ctx context.Context, userID string) ([]domain.WeeklyScheduleOption, error)
}

type SuggestionRepo interface {
	Create(ctx context.Context, s *domain.RescheduleSuggestion) error
	GetByID(ctx context.Context, id string) (*domain.RescheduleSuggestion, error)
	ListByUser(ctx context.Context, userID string, status domain.SuggestionStatus) ([]*domain.RescheduleSuggestion, error)
	Update(ctx context.Context, s *domain.RescheduleSuggestion) error
	// ExpirePending moves every PENDING suggestion past its expiry to
	// EXPIRED, returning the number swept.
	ExpirePending(ctx context.Context, now string) (int, error)
	CreateDecision(ctx context.Context, d *domain.RescheduleDecision) error
}

type UserProfileRepo interface {
	// Get returns the stored profile or defaults when none exists.
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Upsert(ctx context.Context, p *domain.UserProfile) error
}
