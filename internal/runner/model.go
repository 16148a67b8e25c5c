package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const snoozeStep = 5 // minutes per snooze keypress

type (
	tickMsg     time.Time
	sessionMsg  *Session
	noSession   struct{}
	errMsg      struct{ err error }
	checkoutMsg *CheckoutOutcome
	noticeMsg   Notification
)

// model is the root bubbletea model of the runner.
type model struct {
	api API

	session *Session
	form    *checkoutForm
	outcome *CheckoutOutcome
	notice  *Notification
	errText string

	width    int
	quitting bool
}

func newModel(api API) model {
	return model{api: api}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchCurrent, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) fetchCurrent() tea.Msg {
	s, err := m.api.Current(context.Background())
	if err != nil {
		// Most likely there simply is no open session.
		return noSession{}
	}
	return sessionMsg(s)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		return m, tick()

	case sessionMsg:
		m.session = msg
		m.errText = ""
		return m, nil

	case noSession:
		m.session = nil
		return m, nil

	case checkoutMsg:
		m.outcome = msg
		m.session = nil
		m.form = nil
		return m, nil

	case noticeMsg:
		n := Notification(msg)
		m.notice = &n
		return m, nil

	case errMsg:
		m.errText = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		switch msg.String() {
		case "esc":
			m.form = nil
			return m, nil
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			in, ok := m.form.submit()
			if !ok {
				return m, nil
			}
			return m, m.doCheckout(in)
		}
		return m, m.form.update(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "R":
		return m, m.fetchCurrent
	}

	if m.session == nil {
		return m, nil
	}

	switch msg.String() {
	case "p":
		return m, m.mutate(func(ctx context.Context) (*Session, error) {
			return m.api.Pause(ctx)
		})
	case "r":
		return m, m.mutate(func(ctx context.Context) (*Session, error) {
			return m.api.Resume(ctx, false)
		})
	case "e":
		return m, m.mutate(func(ctx context.Context) (*Session, error) {
			return m.api.Resume(ctx, true)
		})
	case "z":
		return m, m.mutate(func(ctx context.Context) (*Session, error) {
			return m.api.Snooze(ctx, snoozeStep)
		})
	case "c":
		m.form = newCheckoutForm()
		m.notice = nil
		return m, nil
	}
	return m, nil
}

func (m model) mutate(op func(context.Context) (*Session, error)) tea.Cmd {
	return func() tea.Msg {
		s, err := op(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return sessionMsg(s)
	}
}

func (m model) doCheckout(in CheckoutInput) tea.Cmd {
	return func() tea.Msg {
		out, err := m.api.Checkout(context.Background(), in)
		if err != nil {
			return errMsg{err}
		}
		return checkoutMsg(out)
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.form != nil {
		return styleBox.Render(m.form.view()) + "\n"
	}

	var b strings.Builder
	b.WriteString(styleHeader.Render("horae runner") + "\n\n")

	switch {
	case m.outcome != nil:
		b.WriteString(styleGreen.Render("Checked out.") + "\n")
		b.WriteString(fmt.Sprintf("worked %d minutes\n", m.outcome.ActualMinutes))
		if m.outcome.NewEstimate != nil {
			b.WriteString(fmt.Sprintf("estimate updated to %.2fh\n", *m.outcome.NewEstimate))
		}
		if m.outcome.SuggestionID != "" {
			b.WriteString(styleYellow.Render(fmt.Sprintf(
				"reschedule suggested (%d changes) - review it in the app\n",
				m.outcome.SuggestionChanges)))
		}
	case m.session == nil:
		b.WriteString(styleDim.Render("No active session.") + "\n")
		b.WriteString(styleDim.Render("Start one from the app, then press R to refresh.") + "\n")
	default:
		b.WriteString(m.sessionView())
	}

	if m.notice != nil {
		style := styleNotice
		if m.notice.Level == "overdue" {
			style = styleOverdue
		}
		b.WriteString("\n" + style.Render(m.notice.Title) + "\n")
		b.WriteString(m.notice.Body + "\n")
	}
	if m.errText != "" {
		b.WriteString("\n" + styleRed.Render(m.errText) + "\n")
	}

	b.WriteString("\n" + styleDim.Render(m.helpLine()))
	return styleBox.Render(b.String()) + "\n"
}

func (m model) sessionView() string {
	s := m.session
	var b strings.Builder

	if s.PlannedOutcome != "" {
		b.WriteString("goal: " + s.PlannedOutcome + "\n")
	}

	remaining := time.Until(s.PlannedCheckoutAt).Round(time.Second)
	switch {
	case s.Paused():
		b.WriteString(styleYellow.Render("PAUSED") + "\n")
	case remaining < 0:
		b.WriteString(styleOverdue.Render("OVERDUE "+formatDuration(-remaining)) + "\n")
	case remaining <= 5*time.Minute:
		b.WriteString(styleYellow.Render("checkout in "+formatDuration(remaining)) + "\n")
	default:
		b.WriteString(styleGreen.Render("checkout in "+formatDuration(remaining)) + "\n")
	}

	if s.SnoozeCount > 0 {
		b.WriteString(styleDim.Render(fmt.Sprintf("snoozed %d time(s)", s.SnoozeCount)) + "\n")
	}
	return b.String()
}

func (m model) helpLine() string {
	if m.session == nil {
		return "R: refresh   q: quit"
	}
	if m.session.Paused() {
		return "r: resume   e: resume+extend   c: checkout   q: quit"
	}
	return "p: pause   z: snooze 5m   c: checkout   q: quit"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	mnt := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, sec)
	}
	return fmt.Sprintf("%02d:%02d", mnt, sec)
}
