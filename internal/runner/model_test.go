package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAPI records calls and plays back canned sessions.
type stubAPI struct {
	session  *Session
	outcome  *CheckoutOutcome
	err      error
	paused   int
	resumed  []bool
	snoozed  []int
	checkout []CheckoutInput
}

func (s *stubAPI) Current(context.Context) (*Session, error) {
	if s.session == nil {
		return nil, errors.New("no active work session")
	}
	return s.session, nil
}

func (s *stubAPI) Pause(context.Context) (*Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.paused++
	paused := *s.session
	now := time.Now()
	paused.PausedAt = &now
	return &paused, nil
}

func (s *stubAPI) Resume(_ context.Context, extend bool) (*Session, error) {
	s.resumed = append(s.resumed, extend)
	resumed := *s.session
	resumed.PausedAt = nil
	return &resumed, nil
}

func (s *stubAPI) Snooze(_ context.Context, minutes int) (*Session, error) {
	s.snoozed = append(s.snoozed, minutes)
	snoozed := *s.session
	snoozed.SnoozeCount++
	return &snoozed, nil
}

func (s *stubAPI) Checkout(_ context.Context, in CheckoutInput) (*CheckoutOutcome, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.checkout = append(s.checkout, in)
	return s.outcome, nil
}

func activeSession() *Session {
	now := time.Now()
	return &Session{
		ID:                "s1",
		TaskID:            "t1",
		StartedAt:         now.Add(-30 * time.Minute),
		PlannedCheckoutAt: now.Add(30 * time.Minute),
		PlannedOutcome:    "draft the summary",
	}
}

// step runs one Update and, when it produced a command, feeds the resulting
// message back in. Mirrors how the bubbletea loop drives the model.
func step(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out := updated.(model)
	if cmd != nil {
		if next := cmd(); next != nil {
			if _, isTick := next.(tickMsg); !isTick {
				updated, _ = out.Update(next)
				out = updated.(model)
			}
		}
	}
	return out
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewWithoutSession(t *testing.T) {
	api := &stubAPI{}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())

	view := m.View()

	assert.Contains(t, view, "No active session")
	assert.Contains(t, view, "R: refresh")
}

func TestViewShowsCountdownAndGoal(t *testing.T) {
	api := &stubAPI{session: activeSession()}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())

	view := m.View()

	assert.Contains(t, view, "draft the summary")
	assert.Contains(t, view, "checkout in")
	assert.Contains(t, view, "p: pause")
}

func TestOverdueSessionHighlighted(t *testing.T) {
	api := &stubAPI{session: activeSession()}
	api.session.PlannedCheckoutAt = time.Now().Add(-10 * time.Minute)
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())

	assert.Contains(t, m.View(), "OVERDUE")
}

func TestPauseAndResumeKeys(t *testing.T) {
	api := &stubAPI{session: activeSession()}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())

	m = step(t, m, key("p"))
	assert.Equal(t, 1, api.paused)
	assert.Contains(t, m.View(), "PAUSED")
	assert.Contains(t, m.View(), "e: resume+extend")

	m = step(t, m, key("e"))
	require.Equal(t, []bool{true}, api.resumed)
	assert.NotContains(t, m.View(), "PAUSED")
}

func TestSnoozeKey(t *testing.T) {
	api := &stubAPI{session: activeSession()}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())

	m = step(t, m, key("z"))

	assert.Equal(t, []int{snoozeStep}, api.snoozed)
	assert.Contains(t, m.View(), "snoozed 1 time(s)")
}

func TestMutationErrorSurfaces(t *testing.T) {
	api := &stubAPI{session: activeSession(), err: errors.New("work session is already paused")}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())

	m = step(t, m, key("p"))

	assert.Contains(t, m.View(), "work session is already paused")
}

func TestCheckoutFlow(t *testing.T) {
	est := 3.5
	api := &stubAPI{
		session: activeSession(),
		outcome: &CheckoutOutcome{
			ActualMinutes:     42,
			NewEstimate:       &est,
			SuggestionID:      "sug-1",
			SuggestionChanges: 2,
		},
	}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())

	m = step(t, m, key("c"))
	require.NotNil(t, m.form)
	assert.Contains(t, m.View(), "Checkout")
	assert.Contains(t, m.View(), "[COMPLETE]")

	// Type a keep note and submit.
	m = step(t, m, key("finished the draft"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, api.checkout, 1)
	assert.Equal(t, "COMPLETE", api.checkout[0].Decision)
	assert.Equal(t, "finished the draft", api.checkout[0].KeepNote)

	view := m.View()
	assert.Contains(t, view, "Checked out")
	assert.Contains(t, view, "worked 42 minutes")
	assert.Contains(t, view, "estimate updated to 3.50h")
	assert.Contains(t, view, "reschedule suggested (2 changes)")
}

func TestCheckoutFormDecisionCycle(t *testing.T) {
	api := &stubAPI{session: activeSession(), outcome: &CheckoutOutcome{}}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())
	m = step(t, m, key("c"))

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "CONTINUE", m.form.decision())

	// CONTINUE with an empty form is rejected locally.
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.form)
	assert.Contains(t, m.View(), "needs at least one reflection note")
	assert.Empty(t, api.checkout)
}

func TestCheckoutFormRemainingHoursValidated(t *testing.T) {
	api := &stubAPI{session: activeSession(), outcome: &CheckoutOutcome{}}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())
	m = step(t, m, key("c"))

	// Move focus to the remaining-hours field and type garbage.
	for i := 0; i < 3; i++ {
		m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	m = step(t, m, key("abc"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.form)
	assert.Contains(t, m.View(), "non-negative number")
}

func TestEscClosesForm(t *testing.T) {
	api := &stubAPI{session: activeSession()}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())
	m = step(t, m, key("c"))
	require.NotNil(t, m.form)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, m.form)
	assert.Contains(t, m.View(), "checkout in")
}

func TestNoticeDisplayed(t *testing.T) {
	api := &stubAPI{session: activeSession()}
	m := newModel(api)
	m = step(t, m, m.fetchCurrent())

	m = step(t, m, noticeMsg(Notification{
		Level: "strong",
		Title: "Checkout time",
		Body:  "Time to check out of: draft",
	}))

	view := m.View()
	assert.Contains(t, view, "Checkout time")
	assert.Contains(t, view, "Time to check out of: draft")
}

func TestQuitKey(t *testing.T) {
	api := &stubAPI{}
	m := newModel(api)

	updated, cmd := m.Update(key("q"))

	assert.True(t, updated.(model).quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "05:30", formatDuration(5*time.Minute+30*time.Second))
	assert.Equal(t, "1:02:03", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}
