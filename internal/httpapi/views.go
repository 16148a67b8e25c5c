package httpapi

import (
	"time"

	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/session"
)

// sessionView is the wire shape of a work session.
type sessionView struct {
	ID                     string     `json:"id"`
	UserID                 string     `json:"user_id"`
	TaskID                 string     `json:"task_id"`
	StartedAt              time.Time  `json:"started_at"`
	PlannedCheckoutAt      time.Time  `json:"planned_checkout_at"`
	PlannedOutcome         string     `json:"planned_outcome,omitempty"`
	PausedAt               *time.Time `json:"paused_at,omitempty"`
	TotalPausedSeconds     int        `json:"total_paused_seconds"`
	EndedAt                *time.Time `json:"ended_at,omitempty"`
	CheckoutType           string     `json:"checkout_type,omitempty"`
	Decision               string     `json:"decision,omitempty"`
	ContinueReason         string     `json:"continue_reason,omitempty"`
	KeepNote               string     `json:"keep_note,omitempty"`
	ProblemNote            string     `json:"problem_note,omitempty"`
	TryNote                string     `json:"try_note,omitempty"`
	RemainingEstimateHours *float64   `json:"remaining_estimate_hours,omitempty"`
	SnoozeCount            int        `json:"snooze_count"`
	MarkedUnresponsiveAt   *time.Time `json:"marked_unresponsive_at,omitempty"`
}

func toSessionView(s *domain.WorkSession) sessionView {
	return sessionView{
		ID:                     s.ID,
		UserID:                 s.UserID,
		TaskID:                 s.TaskID,
		StartedAt:              s.StartedAt,
		PlannedCheckoutAt:      s.PlannedCheckoutAt,
		PlannedOutcome:         s.PlannedOutcome,
		PausedAt:               s.PausedAt,
		TotalPausedSeconds:     s.TotalPausedSeconds,
		EndedAt:                s.EndedAt,
		CheckoutType:           string(s.CheckoutType),
		Decision:               string(s.Decision),
		ContinueReason:         s.ContinueReason,
		KeepNote:               s.KeepNote,
		ProblemNote:            s.ProblemNote,
		TryNote:                s.TryNote,
		RemainingEstimateHours: s.RemainingEstimateHours,
		SnoozeCount:            s.SnoozeCount,
		MarkedUnresponsiveAt:   s.MarkedUnresponsiveAt,
	}
}

func toSessionViews(sessions []*domain.WorkSession) []sessionView {
	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionView(s))
	}
	return out
}

// checkoutView extends the session with the checkout outcome and, when the
// remainder of the day changed, the reschedule suggestion it produced.
type checkoutView struct {
	Session       sessionView     `json:"session"`
	ActualMinutes int             `json:"actual_minutes"`
	WorkLogID     string          `json:"work_log_id"`
	NewEstimate   *float64        `json:"new_estimate_hours,omitempty"`
	Suggestion    *suggestionView `json:"reschedule_suggestion,omitempty"`
}

func toCheckoutView(r *session.CheckoutResult, sug *domain.RescheduleSuggestion) checkoutView {
	v := checkoutView{
		Session:       toSessionView(r.Session),
		ActualMinutes: r.ActualMinutes,
		WorkLogID:     r.WorkLogID,
		NewEstimate:   r.NewEstimate,
	}
	if sug != nil {
		sv := toSuggestionView(sug)
		v.Suggestion = &sv
	}
	return v
}

// suggestionView is the wire shape of a reschedule suggestion.
type suggestionView struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	WorkSessionID   string              `json:"work_session_id"`
	TriggerType     string              `json:"trigger_type"`
	TriggerDecision string              `json:"trigger_decision,omitempty"`
	OriginalPlan    domain.DayPlan      `json:"original_plan"`
	ProposedPlan    domain.DayPlan      `json:"proposed_plan"`
	Diff            domain.ScheduleDiff `json:"diff"`
	Status          string              `json:"status"`
	ExpiresAt       time.Time           `json:"expires_at"`
	DecidedAt       *time.Time          `json:"decided_at,omitempty"`
	DecisionReason  string              `json:"decision_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toSuggestionView(s *domain.RescheduleSuggestion) suggestionView {
	return suggestionView{
		ID:              s.ID,
		UserID:          s.UserID,
		WorkSessionID:   s.WorkSessionID,
		TriggerType:     string(s.TriggerType),
		TriggerDecision: s.TriggerDecision,
		OriginalPlan:    s.OriginalPlan,
		ProposedPlan:    s.ProposedPlan,
		Diff:            s.Diff,
		Status:          string(s.Status),
		ExpiresAt:       s.ExpiresAt,
		DecidedAt:       s.DecidedAt,
		DecisionReason:  s.DecisionReason,
		CreatedAt:       s.CreatedAt,
	}
}

// dailyScheduleView is the wire shape of a stored day plan.
type dailyScheduleView struct {
	UserID    string         `json:"user_id"`
	Date      string         `json:"date"`
	Plan      domain.DayPlan `json:"plan"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func toDailyScheduleView(s *domain.DailySchedule) dailyScheduleView {
	return dailyScheduleView{
		UserID:    s.UserID,
		Date:      s.Date,
		Plan:      s.Plan,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// weeklyScheduleView is the wire shape of a stored weekly plan.
type weeklyScheduleView struct {
	UserID    string                  `json:"user_id"`
	WeekStart string                  `json:"week_start"`
	Record    domain.WeeklyPlanRecord `json:"record"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}
