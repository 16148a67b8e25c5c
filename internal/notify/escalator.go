package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/repository"
)

const (
	// WarnWindow is how far before the deadline the light reminder fires.
	WarnWindow = 5 * time.Minute

	// UnresponsiveAfter is how far past the deadline a session is declared
	// overdue and marked unresponsive.
	UnresponsiveAfter = 10 * time.Minute
)

// Escalator walks every open session once per tick and emits at most one
// reminder level per session per deadline epoch. The per-level flags are the
// idempotency source of truth and are committed before delivery, so a crash
// in between yields at-least-once semantics.
type Escalator struct {
	sessions repository.WorkSessionRepo
	uow      db.UnitOfWork
	hub      *Hub
	push     *Pusher
	log      *slog.Logger
	now      func() time.Time
}

// NewEscalator wires an escalator over the session store and the delivery
// fabric.
func NewEscalator(sessions repository.WorkSessionRepo, uow db.UnitOfWork, hub *Hub, push *Pusher, log *slog.Logger) *Escalator {
	if log == nil {
		log = slog.Default()
	}
	return &Escalator{
		sessions: sessions,
		uow:      uow,
		hub:      hub,
		push:     push,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the escalator's clock. Tests only.
func (e *Escalator) WithClock(now func() time.Time) *Escalator {
	e.now = now
	return e
}

// Tick runs one escalation pass. Per-session failures are logged and do not
// stop the pass.
func (e *Escalator) Tick(ctx context.Context) error {
	open, err := e.sessions.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("listing open sessions: %w", err)
	}
	now := e.now()

	for _, os := range open {
		level := levelDue(&os.Session, now)
		if level == "" {
			continue
		}
		claimed, err := e.claim(ctx, os.Session.ID, level, now)
		if err != nil {
			e.log.Error("claiming notification flag failed",
				"session_id", os.Session.ID, "level", level, "error", err)
			continue
		}
		if !claimed {
			continue
		}
		e.deliver(ctx, os.Session.UserID, newMessage(level, os.Session.ID, os.TaskTitle, now))
	}
	return nil
}

// levelDue picks the single level owed to the session at this instant, or ""
// when none. Levels are checked strongest first; each fires at most once per
// deadline epoch.
func levelDue(s *domain.WorkSession, now time.Time) domain.EscalationLevel {
	t := s.PlannedCheckoutAt
	switch {
	case !t.After(now.Add(-UnresponsiveAfter)) && !s.NotifiedOverdue:
		return domain.LevelOverdue
	case !t.After(now) && !s.NotifiedCheckout:
		return domain.LevelStrong
	case t.After(now) && !t.After(now.Add(WarnWindow)) && !s.Notified5Min:
		return domain.LevelLight
	default:
		return ""
	}
}

// claim re-reads the session inside a transaction and sets the level's flag.
// Returns false when another tick (or a snooze-reset race) already handled
// it.
func (e *Escalator) claim(ctx context.Context, sessionID string, level domain.EscalationLevel, now time.Time) (bool, error) {
	claimed := false
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)
		s, err := txSessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		if !s.Active() || levelDue(s, now) != level {
			return nil
		}
		switch level {
		case domain.LevelLight:
			s.Notified5Min = true
		case domain.LevelStrong:
			s.NotifiedCheckout = true
		case domain.LevelOverdue:
			// Overdue subsumes the weaker levels: a session first seen past
			// the unresponsive threshold must not get a strong reminder on
			// the next tick.
			s.Notified5Min = true
			s.NotifiedCheckout = true
			s.NotifiedOverdue = true
			s.MarkUnresponsive(now)
		}
		s.UpdatedAt = now
		if err := txSessions.Update(ctx, s); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	return claimed, err
}

// deliver fans the message out. Light reminders are advisory: live channel
// only, skipped entirely when the user has no live connection. Strong and
// overdue go to both the live channel and push in parallel.
func (e *Escalator) deliver(ctx context.Context, userID string, msg NotificationMessage) {
	if msg.Level == domain.LevelLight {
		if e.hub.LiveCount(userID) == 0 {
			e.log.Debug("no live channel, skipping light reminder", "user_id", userID)
			return
		}
		e.hub.SendToUser(userID, msg)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.hub.SendToUser(userID, msg)
	}()
	go func() {
		defer wg.Done()
		e.push.SendToUser(ctx, userID, msg)
	}()
	wg.Wait()

	e.log.Info("reminder delivered", "user_id", userID, "level", msg.Level, "session_id", msg.SessionID)
}
