// Package notify escalates checkout reminders over the live channel and web
// push, and owns the per-session delivery flags.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/horae/internal/domain"
)

// NotificationMessage is the wire shape of one reminder. Clients dedupe by
// ID: delivery is at-least-once.
type NotificationMessage struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Level     domain.EscalationLevel `json:"level"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	SessionID string                 `json:"session_id"`
	ActionURL string                 `json:"action_url"`
	Timestamp string                 `json:"timestamp"`
}

func newMessage(level domain.EscalationLevel, sessionID, taskTitle string, now time.Time) NotificationMessage {
	m := NotificationMessage{
		ID:        uuid.New().String(),
		Type:      "notification",
		Level:     level,
		SessionID: sessionID,
		ActionURL: "/runner",
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	task := taskTitle
	if task == "" {
		task = "your current task"
	}
	switch level {
	case domain.LevelLight:
		m.Title = "Checkout coming up"
		m.Body = fmt.Sprintf("Your session on %q ends in a few minutes. Wrap up and get ready to check out.", task)
	case domain.LevelStrong:
		m.Title = "Time to check out"
		m.Body = fmt.Sprintf("Your planned time on %q is over. Check out now to keep your schedule accurate.", task)
	case domain.LevelOverdue:
		m.Title = "Session overdue"
		m.Body = fmt.Sprintf("Your session on %q ran well past its checkout. It was marked unresponsive; please check out.", task)
	}
	return m
}
