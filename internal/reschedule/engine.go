package reschedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/repository"
)

// Engine owns reschedule suggestions end to end: proposing one after a
// checkout, and deciding or expiring it later. It is the only writer of
// suggestion status and of the plan swap an accept performs.
type Engine struct {
	schedules   repository.ScheduleRepo
	suggestions repository.SuggestionRepo
	profiles    repository.UserProfileRepo
	uow         db.UnitOfWork
	log         *slog.Logger
	now         func() time.Time
}

// NewEngine wires a reschedule engine.
func NewEngine(
	schedules repository.ScheduleRepo,
	suggestions repository.SuggestionRepo,
	profiles repository.UserProfileRepo,
	uow db.UnitOfWork,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		schedules:   schedules,
		suggestions: suggestions,
		profiles:    profiles,
		uow:         uow,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the engine's clock. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// MaybeSuggest inspects the just-ended session against the day's saved plan
// and creates a PENDING suggestion when the recomputed timeline differs.
// Returns nil without error when there is nothing to suggest.
func (e *Engine) MaybeSuggest(ctx context.Context, s *domain.WorkSession) (*domain.RescheduleSuggestion, error) {
	if s.EndedAt == nil {
		return nil, contract.Invalid("reschedule requires an ended session")
	}
	loc := e.userLocation(ctx, s.UserID)
	endedLocal := s.EndedAt.In(loc)
	date := endedLocal.Format("2006-01-02")

	sched, err := e.schedules.GetDaily(ctx, s.UserID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading today's schedule: %w", err)
	}
	original := sched.Plan
	if len(original.Assignments) == 0 {
		return nil, nil
	}

	inPlan := false
	for _, a := range original.Assignments {
		if a.TaskID == s.TaskID {
			inPlan = true
			break
		}
	}

	var proposed domain.DayPlan
	if inPlan {
		proposed = normalTimeline(original, s.TaskID, s.Decision, s.RemainingEstimateHours)
	} else {
		startLocal := s.StartedAt.In(loc)
		proposed = manualTimeline(original,
			startLocal.Hour()*60+startLocal.Minute(),
			endedLocal.Hour()*60+endedLocal.Minute())
	}

	diff := Diff(original, proposed)
	if !diff.HasSignificantChanges {
		return nil, nil
	}

	endOfDay := time.Date(endedLocal.Year(), endedLocal.Month(), endedLocal.Day(), 23, 59, 59, 0, loc)
	suggestion := &domain.RescheduleSuggestion{
		ID:              uuid.New().String(),
		UserID:          s.UserID,
		WorkSessionID:   s.ID,
		TriggerType:     triggerFor(s, inPlan),
		TriggerDecision: string(s.Decision),
		OriginalPlan:    original,
		ProposedPlan:    proposed,
		Diff:            diff,
		Status:          domain.SuggestionPending,
		ExpiresAt:       endOfDay.UTC(),
		CreatedAt:       e.now(),
	}
	if err := e.suggestions.Create(ctx, suggestion); err != nil {
		return nil, fmt.Errorf("creating reschedule suggestion: %w", err)
	}

	e.log.Info("reschedule suggested",
		"user_id", s.UserID, "suggestion_id", suggestion.ID,
		"trigger", suggestion.TriggerType, "changes", diff.TotalChanges)
	return suggestion, nil
}

func triggerFor(s *domain.WorkSession, inPlan bool) domain.SuggestionTrigger {
	switch {
	case s.MarkedUnresponsiveAt != nil:
		return domain.TriggerOverdueRecovery
	case !inPlan:
		return domain.TriggerManualCheckout
	default:
		return domain.TriggerCheckout
	}
}

// List returns the user's suggestions, optionally filtered by status.
func (e *Engine) List(ctx context.Context, userID string, status domain.SuggestionStatus) ([]*domain.RescheduleSuggestion, error) {
	return e.suggestions.ListByUser(ctx, userID, status)
}

// Accept commits a PENDING suggestion: the audit row, the status flip and
// the plan swap happen in one transaction.
func (e *Engine) Accept(ctx context.Context, userID, suggestionID, reason string) (*domain.RescheduleSuggestion, error) {
	return e.decide(ctx, userID, suggestionID, reason, true)
}

// Reject declines a PENDING suggestion with an audit row.
func (e *Engine) Reject(ctx context.Context, userID, suggestionID, reason string) (*domain.RescheduleSuggestion, error) {
	return e.decide(ctx, userID, suggestionID, reason, false)
}

func (e *Engine) decide(ctx context.Context, userID, suggestionID, reason string, accepted bool) (*domain.RescheduleSuggestion, error) {
	var out *domain.RescheduleSuggestion
	now := e.now()

	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSuggestions := repository.NewSQLiteSuggestionRepo(tx)
		txSchedules := repository.NewSQLiteScheduleRepo(tx)

		s, err := txSuggestions.GetByID(ctx, suggestionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return contract.NotFound("suggestion %s not found", suggestionID)
			}
			return err
		}
		if s.UserID != userID {
			return contract.NotFound("suggestion %s not found", suggestionID)
		}

		status := domain.SuggestionRejected
		if accepted {
			status = domain.SuggestionAccepted
		}
		if err := s.Decide(status, now, reason); err != nil {
			return contract.Invalid("suggestion is no longer pending")
		}
		if err := txSuggestions.Update(ctx, s); err != nil {
			return err
		}
		if err := txSuggestions.CreateDecision(ctx, &domain.RescheduleDecision{
			ID:           uuid.New().String(),
			SuggestionID: s.ID,
			Accepted:     accepted,
			Reason:       reason,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		if accepted {
			sched, err := txSchedules.GetDaily(ctx, userID, s.ProposedPlan.Date)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if sched == nil {
				sched = &domain.DailySchedule{UserID: userID, Date: s.ProposedPlan.Date, CreatedAt: now}
			}
			sched.Plan = s.ProposedPlan
			sched.UpdatedAt = now
			if err := txSchedules.PutDaily(ctx, sched); err != nil {
				return err
			}
		}

		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireOld sweeps PENDING suggestions past their expiry into EXPIRED.
func (e *Engine) ExpireOld(ctx context.Context) (int, error) {
	n, err := e.suggestions.ExpirePending(ctx, e.now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("expiring suggestions: %w", err)
	}
	if n > 0 {
		e.log.Info("expired stale reschedule suggestions", "count", n)
	}
	return n, nil
}

func (e *Engine) userLocation(ctx context.Context, userID string) *time.Location {
	profile, err := e.profiles.Get(ctx, userID)
	if err != nil || profile.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		e.log.Warn("invalid user timezone, falling back to UTC", "user_id", userID, "tz", profile.Timezone)
		return time.UTC
	}
	return loc
}
