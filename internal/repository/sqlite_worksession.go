package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

const sessionColumns = `id, user_id, task_id, started_at, planned_checkout_at, planned_outcome,
		paused_at, total_paused_seconds, ended_at, checkout_type, decision, continue_reason,
		kpt_keep, kpt_problem, kpt_try, remaining_estimate_hours,
		snooze_count, last_snooze_at,
		notification_5min_sent, notification_checkout_sent, notification_overdue_sent,
		marked_unresponsive_at, created_at, updated_at`

// SQLiteWorkSessionRepo implements WorkSessionRepo using a SQLite database.
type SQLiteWorkSessionRepo struct {
	db db.DBTX
}

// NewSQLiteWorkSessionRepo creates a new SQLiteWorkSessionRepo.
func NewSQLiteWorkSessionRepo(db db.DBTX) *SQLiteWorkSessionRepo {
	return &SQLiteWorkSessionRepo{db: db}
}

func (r *SQLiteWorkSessionRepo) Create(ctx context.Context, s *domain.WorkSession) error {
	query := `INSERT INTO work_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, sessionArgs(s)...)
	if err != nil {
		// The partial unique index on (user_id) WHERE ended_at IS NULL
		// turns a second open session into a constraint violation.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrActiveSessionExists
		}
		return fmt.Errorf("inserting work session: %w", err)
	}
	return nil
}

func (r *SQLiteWorkSessionRepo) GetByID(ctx context.Context, id string) (*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanWorkSession(row)
}

func (r *SQLiteWorkSessionRepo) GetActiveByUser(ctx context.Context, userID string) (*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
		WHERE user_id = ? AND ended_at IS NULL`
	row := r.db.QueryRowContext(ctx, query, userID)
	return scanWorkSession(row)
}

func (r *SQLiteWorkSessionRepo) Update(ctx context.Context, s *domain.WorkSession) error {
	query := `UPDATE work_sessions SET
		planned_checkout_at = ?, planned_outcome = ?, paused_at = ?, total_paused_seconds = ?,
		ended_at = ?, checkout_type = ?, decision = ?, continue_reason = ?,
		kpt_keep = ?, kpt_problem = ?, kpt_try = ?, remaining_estimate_hours = ?,
		snooze_count = ?, last_snooze_at = ?,
		notification_5min_sent = ?, notification_checkout_sent = ?, notification_overdue_sent = ?,
		marked_unresponsive_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		instantToString(s.PlannedCheckoutAt), s.PlannedOutcome,
		nullableInstantToValue(s.PausedAt), s.TotalPausedSeconds,
		nullableInstantToValue(s.EndedAt), string(s.CheckoutType), string(s.Decision), s.ContinueReason,
		s.KeepNote, s.ProblemNote, s.TryNote, nullableFloatToValue(s.RemainingEstimateHours),
		s.SnoozeCount, nullableInstantToValue(s.LastSnoozeAt),
		boolToInt(s.Notified5Min), boolToInt(s.NotifiedCheckout), boolToInt(s.NotifiedOverdue),
		nullableInstantToValue(s.MarkedUnresponsiveAt), nowRFC3339(),
		s.ID)
	if err != nil {
		return fmt.Errorf("updating work session: %w", err)
	}
	return requireRow(res, "work session")
}

// ListOpen returns every session with ended_at null, task title eager-loaded,
// for the escalator's single-pass scan.
func (r *SQLiteWorkSessionRepo) ListOpen(ctx context.Context) ([]OpenSession, error) {
	cols := aliasSessionColumns("s")
	query := `SELECT ` + cols + `, t.title
		FROM work_sessions s
		JOIN tasks t ON s.task_id = t.id
		WHERE s.ended_at IS NULL
		ORDER BY s.planned_checkout_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing open sessions: %w", err)
	}
	defer rows.Close()

	var out []OpenSession
	for rows.Next() {
		s, title, err := scanOpenSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, OpenSession{Session: *s, TaskTitle: title})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating open sessions: %w", err)
	}
	return out, nil
}

func (r *SQLiteWorkSessionRepo) ListByUser(ctx context.Context, userID string, skip, limit int) ([]*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
		WHERE user_id = ? ORDER BY started_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("listing work sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.WorkSession
	for rows.Next() {
		s, err := scanWorkSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work sessions: %w", err)
	}
	return out, nil
}

func sessionArgs(s *domain.WorkSession) []any {
	return []any{
		s.ID, s.UserID, s.TaskID,
		instantToString(s.StartedAt), instantToString(s.PlannedCheckoutAt), s.PlannedOutcome,
		nullableInstantToValue(s.PausedAt), s.TotalPausedSeconds,
		nullableInstantToValue(s.EndedAt), string(s.CheckoutType), string(s.Decision), s.ContinueReason,
		s.KeepNote, s.ProblemNote, s.TryNote, nullableFloatToValue(s.RemainingEstimateHours),
		s.SnoozeCount, nullableInstantToValue(s.LastSnoozeAt),
		boolToInt(s.Notified5Min), boolToInt(s.NotifiedCheckout), boolToInt(s.NotifiedOverdue),
		nullableInstantToValue(s.MarkedUnresponsiveAt),
		instantToString(s.CreatedAt), instantToString(s.UpdatedAt),
	}
}

func aliasSessionColumns(alias string) string {
	parts := strings.Split(sessionColumns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func scanWorkSession(row rowScanner) (*domain.WorkSession, error) {
	s, _, err := scanSessionFields(row, false)
	return s, err
}

func scanOpenSession(row rowScanner) (*domain.WorkSession, string, error) {
	return scanSessionFields(row, true)
}

func scanSessionFields(row rowScanner, withTitle bool) (*domain.WorkSession, string, error) {
	var s domain.WorkSession
	var startedAt, plannedCheckoutAt, createdAt, updatedAt string
	var pausedAt, endedAt, lastSnoozeAt, unresponsiveAt sql.NullString
	var checkoutType, decision string
	var remaining sql.NullFloat64
	var n5, nc, no int
	var title string

	dest := []any{
		&s.ID, &s.UserID, &s.TaskID, &startedAt, &plannedCheckoutAt, &s.PlannedOutcome,
		&pausedAt, &s.TotalPausedSeconds, &endedAt, &checkoutType, &decision, &s.ContinueReason,
		&s.KeepNote, &s.ProblemNote, &s.TryNote, &remaining,
		&s.SnoozeCount, &lastSnoozeAt,
		&n5, &nc, &no,
		&unresponsiveAt, &createdAt, &updatedAt,
	}
	if withTitle {
		dest = append(dest, &title)
	}

	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("work session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("scanning work session: %w", err)
	}

	s.StartedAt = parseInstant(startedAt)
	s.PlannedCheckoutAt = parseInstant(plannedCheckoutAt)
	s.PausedAt = parseNullableInstant(pausedAt)
	s.EndedAt = parseNullableInstant(endedAt)
	s.CheckoutType = domain.CheckoutType(checkoutType)
	s.Decision = domain.CheckoutDecision(decision)
	if remaining.Valid {
		v := remaining.Float64
		s.RemainingEstimateHours = &v
	}
	s.LastSnoozeAt = parseNullableInstant(lastSnoozeAt)
	s.Notified5Min = intToBool(n5)
	s.NotifiedCheckout = intToBool(nc)
	s.NotifiedOverdue = intToBool(no)
	s.MarkedUnresponsiveAt = parseNullableInstant(unresponsiveAt)
	s.CreatedAt = parseInstant(createdAt)
	s.UpdatedAt = parseInstant(updatedAt)
	return &s, title, nil
}
