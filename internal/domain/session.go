package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxSnoozes bounds escalating-deadline extensions per session.
	MaxSnoozes = 2

	MinSnoozeMinutes = 1
	MaxSnoozeMinutes = 15

	kptFieldMaxLen   = 100
	kptSummaryMaxLen = 500
)

var (
	ErrSessionEnded        = errors.New("work session already ended")
	ErrSessionNotPaused    = errors.New("work session is not paused")
	ErrSessionPaused       = errors.New("work session is already paused")
	ErrSnoozeLimitReached  = errors.New("snooze limit reached")
	ErrSnoozeOutOfRange    = errors.New("snooze minutes must be in [1,15]")
	ErrSessionUnresponsive = errors.New("session marked unresponsive")
	ErrContinueNeedsKPT    = errors.New("checkout with CONTINUE requires at least one KPT field")
)

// WorkSession is the single mutable record of an in-flight focus session.
// At most one session per user may have EndedAt == nil.
type WorkSession struct {
	ID                string
	UserID            string
	TaskID            string
	StartedAt         time.Time
	PlannedCheckoutAt time.Time
	PlannedOutcome    string

	PausedAt           *time.Time
	TotalPausedSeconds int

	EndedAt        *time.Time
	CheckoutType   CheckoutType
	Decision       CheckoutDecision
	ContinueReason string
	KeepNote       string
	ProblemNote    string
	TryNote        string

	RemainingEstimateHours *float64

	SnoozeCount  int
	LastSnoozeAt *time.Time

	Notified5Min     bool
	NotifiedCheckout bool
	NotifiedOverdue  bool

	MarkedUnresponsiveAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *WorkSession) Active() bool { return s.EndedAt == nil }

// Pause stops the productive clock. Only one pause may be open at a time.
func (s *WorkSession) Pause(now time.Time) error {
	if s.EndedAt != nil {
		return ErrSessionEnded
	}
	if s.PausedAt != nil {
		return ErrSessionPaused
	}
	t := now
	s.PausedAt = &t
	return nil
}

// Resume closes the open pause, accumulating its wall-clock duration. With
// extendCheckout the planned checkout shifts by the same delta so the
// deadline epoch is preserved relative to productive time.
func (s *WorkSession) Resume(now time.Time, extendCheckout bool) error {
	if s.EndedAt != nil {
		return ErrSessionEnded
	}
	if s.PausedAt == nil {
		return ErrSessionNotPaused
	}
	delta := now.Sub(*s.PausedAt)
	if delta < 0 {
		delta = 0
	}
	s.TotalPausedSeconds += int(delta.Seconds())
	if extendCheckout {
		s.PlannedCheckoutAt = s.PlannedCheckoutAt.Add(delta)
	}
	s.PausedAt = nil
	return nil
}

// Snooze pushes the planned checkout by the given minutes and starts a new
// deadline epoch: all delivery flags reset so escalation restarts.
func (s *WorkSession) Snooze(now time.Time, minutes int) error {
	if s.EndedAt != nil {
		return ErrSessionEnded
	}
	if s.MarkedUnresponsiveAt != nil {
		return ErrSessionUnresponsive
	}
	if minutes < MinSnoozeMinutes || minutes > MaxSnoozeMinutes {
		return ErrSnoozeOutOfRange
	}
	if s.SnoozeCount >= MaxSnoozes {
		return ErrSnoozeLimitReached
	}
	s.PlannedCheckoutAt = s.PlannedCheckoutAt.Add(time.Duration(minutes) * time.Minute)
	s.SnoozeCount++
	t := now
	s.LastSnoozeAt = &t
	s.ResetNotificationFlags()
	return nil
}

// ResetNotificationFlags clears per-level delivery flags, opening a fresh
// deadline epoch.
func (s *WorkSession) ResetNotificationFlags() {
	s.Notified5Min = false
	s.NotifiedCheckout = false
	s.NotifiedOverdue = false
}

// MarkUnresponsive flags a session that blew past its deadline without user
// action. Idempotent; returns true only on the first marking.
func (s *WorkSession) MarkUnresponsive(now time.Time) bool {
	if s.EndedAt != nil || s.MarkedUnresponsiveAt != nil {
		return false
	}
	t := now
	s.MarkedUnresponsiveAt = &t
	return true
}

// CheckoutInput carries the user-provided terminal-transition data.
type CheckoutInput struct {
	CheckoutType           CheckoutType
	Decision               CheckoutDecision
	ContinueReason         string
	KeepNote               string
	ProblemNote            string
	TryNote                string
	RemainingEstimateHours *float64
	NextTaskID             string
}

// ApplyCheckout ends the session and returns the net actual minutes.
// A pending pause is folded into TotalPausedSeconds first. CONTINUE requires
// at least one non-empty KPT field.
func (s *WorkSession) ApplyCheckout(now time.Time, in CheckoutInput) (int, error) {
	if s.EndedAt != nil {
		return 0, ErrSessionEnded
	}
	if !ValidCheckoutDecisions[string(in.Decision)] {
		return 0, fmt.Errorf("invalid checkout decision %q", in.Decision)
	}
	if in.Decision == DecisionContinue &&
		strings.TrimSpace(in.KeepNote) == "" &&
		strings.TrimSpace(in.ProblemNote) == "" &&
		strings.TrimSpace(in.TryNote) == "" {
		return 0, ErrContinueNeedsKPT
	}
	if in.RemainingEstimateHours != nil && (*in.RemainingEstimateHours < 0 || *in.RemainingEstimateHours > MaxEstimateHours) {
		return 0, ErrEstimateOutOfRange
	}

	if s.PausedAt != nil {
		delta := now.Sub(*s.PausedAt)
		if delta > 0 {
			s.TotalPausedSeconds += int(delta.Seconds())
		}
		s.PausedAt = nil
	}

	t := now
	s.EndedAt = &t
	s.CheckoutType = in.CheckoutType
	s.Decision = in.Decision
	s.ContinueReason = in.ContinueReason
	s.KeepNote = in.KeepNote
	s.ProblemNote = in.ProblemNote
	s.TryNote = in.TryNote
	s.RemainingEstimateHours = in.RemainingEstimateHours

	return s.ActualMinutes(now), nil
}

// ActualMinutes is elapsed wall clock net of pauses, floored to whole
// minutes, minimum 1.
func (s *WorkSession) ActualMinutes(now time.Time) int {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	net := end.Sub(s.StartedAt) - time.Duration(s.TotalPausedSeconds)*time.Second
	minutes := int(net.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// ElapsedWallClock is the raw session span, pauses included. The reschedule
// engine uses this: schedule impact is clock time consumed, not productive
// time.
func (s *WorkSession) ElapsedWallClock() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// KPTSummary renders the checkout reflection as "K: … | P: … | T: …".
// Each field is truncated to 100 chars, the whole summary to 500.
func (s *WorkSession) KPTSummary() string {
	var parts []string
	if k := strings.TrimSpace(s.KeepNote); k != "" {
		parts = append(parts, "K: "+truncate(k, kptFieldMaxLen))
	}
	if p := strings.TrimSpace(s.ProblemNote); p != "" {
		parts = append(parts, "P: "+truncate(p, kptFieldMaxLen))
	}
	if t := strings.TrimSpace(s.TryNote); t != "" {
		parts = append(parts, "T: "+truncate(t, kptFieldMaxLen))
	}
	return truncate(strings.Join(parts, " | "), kptSummaryMaxLen)
}

// truncate caps s at n characters, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// RecomputeEstimate derives a fresh task estimate from minutes already
// logged plus the remaining hours reported at checkout. Rounded half-up to
// 0.01; must land in (0, 999.99].
func RecomputeEstimate(totalLoggedMinutes int, remainingHours float64) (float64, error) {
	est := float64(totalLoggedMinutes)/60.0 + remainingHours
	est = math.Floor(est*100+0.5) / 100
	if est <= 0 || est > MaxEstimateHours {
		return 0, ErrEstimateOutOfRange
	}
	return est, nil
}
