// Package priority scores tasks in [0,10] for the weekly selector. An
// AI-backed oracle produces the scores when it can; a deterministic formula
// stands in whenever it cannot, so planning always receives a complete map.
package priority

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alexanderramin/horae/internal/llm"
	"github.com/alexanderramin/horae/internal/scheduler"
)

// TaskContext is one task as the oracle sees it.
type TaskContext struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	ProjectID      string     `json:"project_id"`
	ProjectName    string     `json:"project_name"`
	GoalTitle      string     `json:"goal_title,omitempty"`
	RemainingHours float64    `json:"remaining_hours"`
	Priority       int        `json:"priority"`
	DueAt          *time.Time `json:"due_at,omitempty"`
	IsRecurring    bool       `json:"is_recurring"`
}

// Request is the full scoring envelope for one planning run.
type Request struct {
	WeekStart   time.Time
	Tasks       []TaskContext
	Allocations []scheduler.ProjectAllocation
	UserPrompt  string
}

// Oracle scores tasks. Implementations may fail; the caller decides what to
// do about it.
type Oracle interface {
	Priorities(ctx context.Context, req Request) (map[string]float64, error)
}

// Service wraps an oracle with the deterministic fallback. Priorities never
// fails: on oracle error it logs, falls back, and returns user-facing
// warnings for the planning insights.
type Service struct {
	oracle Oracle
	log    *slog.Logger
}

// NewService creates a Service. A nil oracle means deterministic-only
// scoring.
func NewService(oracle Oracle, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{oracle: oracle, log: log}
}

// Priorities returns a score for every task in the request, plus warnings
// describing any oracle failure that forced the fallback.
func (s *Service) Priorities(ctx context.Context, req Request) (map[string]float64, []string) {
	fallback := DeterministicPriorities(req)
	if s.oracle == nil {
		return fallback, nil
	}

	scores, err := s.oracle.Priorities(ctx, req)
	if err != nil {
		s.log.Warn("priority oracle failed, using deterministic scores", "error", err)
		return fallback, []string{FailureInsight(err)}
	}

	// The oracle may omit or overshoot; the selector needs a complete,
	// clamped map.
	for id, fb := range fallback {
		v, ok := scores[id]
		if !ok {
			scores[id] = fb
			continue
		}
		scores[id] = clampScore(v)
	}
	return scores, nil
}

// FailureInsight maps an oracle error to the user-facing insight string the
// planning response carries.
func FailureInsight(err error) string {
	switch {
	case errors.Is(err, llm.ErrUnavailable), errors.Is(err, llm.ErrTimeout):
		return "AI prioritization could not reach its endpoint; deterministic priorities were used for this plan."
	case errors.Is(err, llm.ErrAuth):
		return "AI prioritization was rejected (check the oracle credentials); deterministic priorities were used for this plan."
	case errors.Is(err, llm.ErrRateLimited):
		return "AI prioritization is rate-limited right now; deterministic priorities were used for this plan."
	default:
		return "AI prioritization failed; deterministic priorities were used for this plan."
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
