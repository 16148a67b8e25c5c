// Package session drives the work-session state machine: start, pause,
// resume, snooze and checkout, with the estimate adjustment and work-log
// bookkeeping a checkout entails.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/repository"
)

// Engine is the only writer of work sessions.
type Engine struct {
	sessions repository.WorkSessionRepo
	tasks    repository.TaskRepo
	logs     repository.WorkLogRepo
	uow      db.UnitOfWork
	log      *slog.Logger
	now      func() time.Time
}

// NewEngine creates a session engine over the given repositories.
func NewEngine(
	sessions repository.WorkSessionRepo,
	tasks repository.TaskRepo,
	logs repository.WorkLogRepo,
	uow db.UnitOfWork,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		sessions: sessions,
		tasks:    tasks,
		logs:     logs,
		uow:      uow,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the engine's clock. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// StartInput carries the parameters of a session start.
type StartInput struct {
	TaskID            string
	PlannedCheckoutAt time.Time
	PlannedOutcome    string
}

// Start opens a new session for the user. Fails with CONFLICT when the user
// already has an open session and NOT_FOUND when the task does not exist.
func (e *Engine) Start(ctx context.Context, userID string, in StartInput) (*domain.WorkSession, error) {
	now := e.now()
	s := &domain.WorkSession{
		ID:                uuid.New().String(),
		UserID:            userID,
		TaskID:            in.TaskID,
		StartedAt:         now,
		PlannedCheckoutAt: in.PlannedCheckoutAt.UTC(),
		PlannedOutcome:    in.PlannedOutcome,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTasks := repository.NewSQLiteTaskRepo(tx)
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)

		if _, err := txTasks.GetByID(ctx, in.TaskID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return contract.NotFound("task %s not found", in.TaskID)
			}
			return err
		}
		if err := txSessions.Create(ctx, s); err != nil {
			if errors.Is(err, repository.ErrActiveSessionExists) {
				return contract.Conflict("an active work session already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("work session started", "user_id", userID, "task_id", in.TaskID, "session_id", s.ID)
	return s, nil
}

// Current returns the user's open session, or NOT_FOUND.
func (e *Engine) Current(ctx context.Context, userID string) (*domain.WorkSession, error) {
	s, err := e.sessions.GetActiveByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, contract.NotFound("no active work session")
	}
	return s, err
}

// Pause stops the productive clock of the user's open session.
func (e *Engine) Pause(ctx context.Context, userID string) (*domain.WorkSession, error) {
	return e.mutateActive(ctx, userID, func(s *domain.WorkSession) error {
		return s.Pause(e.now())
	})
}

// Resume closes the open pause. With extendCheckout the planned checkout
// shifts by the pause duration.
func (e *Engine) Resume(ctx context.Context, userID string, extendCheckout bool) (*domain.WorkSession, error) {
	return e.mutateActive(ctx, userID, func(s *domain.WorkSession) error {
		return s.Resume(e.now(), extendCheckout)
	})
}

// Snooze pushes the planned checkout by minutes and restarts escalation.
func (e *Engine) Snooze(ctx context.Context, userID string, minutes int) (*domain.WorkSession, error) {
	return e.mutateActive(ctx, userID, func(s *domain.WorkSession) error {
		return s.Snooze(e.now(), minutes)
	})
}

func (e *Engine) mutateActive(ctx context.Context, userID string, mutate func(*domain.WorkSession) error) (*domain.WorkSession, error) {
	var out *domain.WorkSession
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)
		s, err := txSessions.GetActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return contract.NotFound("no active work session")
			}
			return err
		}
		if err := mutate(s); err != nil {
			return mapDomainError(err)
		}
		if err := txSessions.Update(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// CheckoutResult reports what a checkout produced.
type CheckoutResult struct {
	Session       *domain.WorkSession
	ActualMinutes int
	WorkLogID     string
	NewEstimate   *float64
}

// Checkout ends the user's open session: folds a pending pause, writes the
// work log with the KPT summary, recomputes the task estimate when
// remaining hours were reported, and completes the task on COMPLETE.
func (e *Engine) Checkout(ctx context.Context, userID string, in domain.CheckoutInput) (*CheckoutResult, error) {
	var result CheckoutResult
	now := e.now()

	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)
		txTasks := repository.NewSQLiteTaskRepo(tx)
		txLogs := repository.NewSQLiteWorkLogRepo(tx)

		s, err := txSessions.GetActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return contract.NotFound("no active work session")
			}
			return err
		}

		minutes, err := s.ApplyCheckout(now, in)
		if err != nil {
			return mapDomainError(err)
		}
		if err := txSessions.Update(ctx, s); err != nil {
			return err
		}

		wl := &domain.WorkLog{
			ID:            uuid.New().String(),
			TaskID:        s.TaskID,
			ActualMinutes: minutes,
			Comment:       s.KPTSummary(),
			CreatedAt:     now,
		}
		if err := txLogs.Create(ctx, wl); err != nil {
			return err
		}

		if in.RemainingEstimateHours != nil {
			total, err := txLogs.TotalMinutesForTask(ctx, s.TaskID)
			if err != nil {
				return err
			}
			est, err := domain.RecomputeEstimate(total, *in.RemainingEstimateHours)
			if err != nil {
				return mapDomainError(err)
			}
			if err := txTasks.UpdateEstimate(ctx, s.TaskID, est); err != nil {
				return err
			}
			result.NewEstimate = &est
		}

		if in.Decision == domain.DecisionComplete {
			task, err := txTasks.GetByID(ctx, s.TaskID)
			if err != nil {
				return err
			}
			task.Status = domain.TaskCompleted
			task.UpdatedAt = now
			if err := txTasks.Update(ctx, task); err != nil {
				return err
			}
		}

		result.Session = s
		result.ActualMinutes = minutes
		result.WorkLogID = wl.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("work session checked out",
		"user_id", userID,
		"session_id", result.Session.ID,
		"decision", result.Session.Decision,
		"actual_minutes", result.ActualMinutes)
	return &result, nil
}

// KPTUpdate carries the only fields editable after checkout. Nil means no
// change; an empty string clears the field.
type KPTUpdate struct {
	Keep    *string
	Problem *string
	Try     *string
}

// UpdateKPT edits the reflection notes of an ended session.
func (e *Engine) UpdateKPT(ctx context.Context, userID, sessionID string, in KPTUpdate) (*domain.WorkSession, error) {
	var out *domain.WorkSession
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)
		s, err := txSessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return contract.NotFound("work session %s not found", sessionID)
			}
			return err
		}
		if s.UserID != userID {
			return contract.NotFound("work session %s not found", sessionID)
		}
		if s.Active() {
			return contract.Invalid("KPT notes can only be edited after checkout")
		}
		if in.Keep != nil {
			s.KeepNote = *in.Keep
		}
		if in.Problem != nil {
			s.ProblemNote = *in.Problem
		}
		if in.Try != nil {
			s.TryNote = *in.Try
		}
		if err := txSessions.Update(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// MarkUnresponsive flags a session whose escalation ran out. Idempotent.
func (e *Engine) MarkUnresponsive(ctx context.Context, sessionID string) error {
	return e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)
		s, err := txSessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return contract.NotFound("work session %s not found", sessionID)
			}
			return err
		}
		if !s.MarkUnresponsive(e.now()) {
			return nil
		}
		return txSessions.Update(ctx, s)
	})
}

// History lists the user's sessions, newest first.
func (e *Engine) History(ctx context.Context, userID string, skip, limit int) ([]*domain.WorkSession, error) {
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	return e.sessions.ListByUser(ctx, userID, skip, limit)
}

func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionEnded):
		return contract.Conflict("work session already ended")
	case errors.Is(err, domain.ErrSessionPaused):
		return contract.Conflict("work session is already paused")
	case errors.Is(err, domain.ErrSessionNotPaused):
		return contract.Conflict("work session is not paused")
	case errors.Is(err, domain.ErrSessionUnresponsive):
		return contract.Conflict("session was marked unresponsive; check out instead")
	case errors.Is(err, domain.ErrSnoozeLimitReached):
		return contract.Invalid("snooze limit reached")
	case errors.Is(err, domain.ErrSnoozeOutOfRange):
		return contract.Invalid("snooze minutes must be between %d and %d",
			domain.MinSnoozeMinutes, domain.MaxSnoozeMinutes)
	case errors.Is(err, domain.ErrContinueNeedsKPT):
		return contract.Invalid("continuing requires at least one KPT field")
	case errors.Is(err, domain.ErrEstimateOutOfRange):
		return contract.Invalid("estimate must be between 0.01 and %.2f hours", domain.MaxEstimateHours)
	default:
		return contract.Invalid("%v", err)
	}
}
