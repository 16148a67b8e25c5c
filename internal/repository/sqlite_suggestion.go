package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

const suggestionColumns = `id, user_id, work_session_id, trigger_type, trigger_decision,
		original_json, proposed_json, diff_json, status, expires_at, decided_at,
		decision_reason, created_at`

// SQLiteSuggestionRepo implements SuggestionRepo using a SQLite database.
// Plan snapshots and the diff travel as JSON blobs beside the lifecycle
// columns the indexes need.
type SQLiteSuggestionRepo struct {
	db db.DBTX
}

// NewSQLiteSuggestionRepo creates a new SQLiteSuggestionRepo.
func NewSQLiteSuggestionRepo(db db.DBTX) *SQLiteSuggestionRepo {
	return &SQLiteSuggestionRepo{db: db}
}

func (r *SQLiteSuggestionRepo) Create(ctx context.Context, s *domain.RescheduleSuggestion) error {
	original, proposed, diff, err := encodeSuggestionBlobs(s)
	if err != nil {
		return err
	}
	query := `INSERT INTO reschedule_suggestions (` + suggestionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.WorkSessionID, string(s.TriggerType), s.TriggerDecision,
		original, proposed, diff, string(s.Status),
		instantToString(s.ExpiresAt), nullableInstantToValue(s.DecidedAt),
		s.DecisionReason, instantToString(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting reschedule suggestion: %w", err)
	}
	return nil
}

func (r *SQLiteSuggestionRepo) GetByID(ctx context.Context, id string) (*domain.RescheduleSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM reschedule_suggestions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanSuggestion(row)
}

func (r *SQLiteSuggestionRepo) ListByUser(ctx context.Context, userID string, status domain.SuggestionStatus) ([]*domain.RescheduleSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM reschedule_suggestions
		WHERE user_id = ? AND status = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing reschedule suggestions: %w", err)
	}
	defer rows.Close()

	var out []*domain.RescheduleSuggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reschedule suggestions: %w", err)
	}
	return out, nil
}

func (r *SQLiteSuggestionRepo) Update(ctx context.Context, s *domain.RescheduleSuggestion) error {
	query := `UPDATE reschedule_suggestions SET
		status = ?, decided_at = ?, decision_reason = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(s.Status), nullableInstantToValue(s.DecidedAt), s.DecisionReason, s.ID)
	if err != nil {
		return fmt.Errorf("updating reschedule suggestion: %w", err)
	}
	return requireRow(res, "reschedule suggestion")
}

// ExpirePending moves every PENDING suggestion past its expiry to EXPIRED in
// one sweep, returning the number swept.
func (r *SQLiteSuggestionRepo) ExpirePending(ctx context.Context, now string) (int, error) {
	query := `UPDATE reschedule_suggestions
		SET status = 'EXPIRED', decided_at = ?
		WHERE status = 'PENDING' AND expires_at <= ?`
	res, err := r.db.ExecContext(ctx, query, now, now)
	if err != nil {
		return 0, fmt.Errorf("expiring pending suggestions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired suggestions: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteSuggestionRepo) CreateDecision(ctx context.Context, d *domain.RescheduleDecision) error {
	query := `INSERT INTO reschedule_decisions (id, suggestion_id, accepted, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.SuggestionID, boolToInt(d.Accepted), d.Reason, instantToString(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting reschedule decision: %w", err)
	}
	return nil
}

func encodeSuggestionBlobs(s *domain.RescheduleSuggestion) (string, string, string, error) {
	original, err := json.Marshal(s.OriginalPlan)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding original plan: %w", err)
	}
	proposed, err := json.Marshal(s.ProposedPlan)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding proposed plan: %w", err)
	}
	diff, err := json.Marshal(s.Diff)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding schedule diff: %w", err)
	}
	return string(original), string(proposed), string(diff), nil
}

func scanSuggestion(row rowScanner) (*domain.RescheduleSuggestion, error) {
	var s domain.RescheduleSuggestion
	var trigger, status, original, proposed, diff string
	var expiresAt, createdAt string
	var decidedAt sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.WorkSessionID, &trigger, &s.TriggerDecision,
		&original, &proposed, &diff, &status, &expiresAt, &decidedAt,
		&s.DecisionReason, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reschedule suggestion: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning reschedule suggestion: %w", err)
	}
	if err := json.Unmarshal([]byte(original), &s.OriginalPlan); err != nil {
		return nil, fmt.Errorf("decoding original plan: %w", err)
	}
	if err := json.Unmarshal([]byte(proposed), &s.ProposedPlan); err != nil {
		return nil, fmt.Errorf("decoding proposed plan: %w", err)
	}
	if err := json.Unmarshal([]byte(diff), &s.Diff); err != nil {
		return nil, fmt.Errorf("decoding schedule diff: %w", err)
	}
	s.TriggerType = domain.SuggestionTrigger(trigger)
	s.Status = domain.SuggestionStatus(status)
	s.ExpiresAt = parseInstant(expiresAt)
	s.DecidedAt = parseNullableInstant(decidedAt)
	s.CreatedAt = parseInstant(createdAt)
	return &s, nil
}
