package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

const recurringColumns = `id, user_id, title, estimate_hours, category, active, deleted_at, created_at, updated_at`

// SQLiteRecurringTaskRepo implements RecurringTaskRepo using a SQLite database.
type SQLiteRecurringTaskRepo struct {
	db db.DBTX
}

// NewSQLiteRecurringTaskRepo creates a new SQLiteRecurringTaskRepo.
func NewSQLiteRecurringTaskRepo(db db.DBTX) *SQLiteRecurringTaskRepo {
	return &SQLiteRecurringTaskRepo{db: db}
}

func (r *SQLiteRecurringTaskRepo) Create(ctx context.Context, rt *domain.RecurringTask) error {
	query := `INSERT INTO recurring_tasks (` + recurringColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rt.ID, rt.UserID, rt.Title, rt.EstimateHours, rt.Category,
		boolToInt(rt.Active), nullableInstantToValue(rt.DeletedAt),
		instantToString(rt.CreatedAt), instantToString(rt.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting recurring task: %w", err)
	}
	return nil
}

func (r *SQLiteRecurringTaskRepo) GetByID(ctx context.Context, id string) (*domain.RecurringTask, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_tasks WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanRecurringTask(row)
}

func (r *SQLiteRecurringTaskRepo) ListActive(ctx context.Context, userID string) ([]*domain.RecurringTask, error) {
	query := `SELECT ` + recurringColumns + `
		FROM recurring_tasks
		WHERE user_id = ? AND active = 1 AND deleted_at IS NULL
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing active recurring tasks: %w", err)
	}
	defer rows.Close()
	return scanRecurringTasks(rows)
}

func (r *SQLiteRecurringTaskRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.RecurringTask, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + recurringColumns + `
		FROM recurring_tasks WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, query, idsToArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("batch-reading recurring tasks: %w", err)
	}
	defer rows.Close()
	return scanRecurringTasks(rows)
}

func (r *SQLiteRecurringTaskRepo) Update(ctx context.Context, rt *domain.RecurringTask) error {
	query := `UPDATE recurring_tasks SET title = ?, estimate_hours = ?, category = ?,
		active = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query,
		rt.Title, rt.EstimateHours, rt.Category, boolToInt(rt.Active),
		instantToString(rt.UpdatedAt), rt.ID)
	if err != nil {
		return fmt.Errorf("updating recurring task: %w", err)
	}
	return requireRow(res, "recurring task")
}

func (r *SQLiteRecurringTaskRepo) SoftDelete(ctx context.Context, id string) error {
	now := nowRFC3339()
	query := `UPDATE recurring_tasks SET deleted_at = ?, active = 0, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return fmt.Errorf("soft-deleting recurring task: %w", err)
	}
	return requireRow(res, "recurring task")
}

func scanRecurringTask(row rowScanner) (*domain.RecurringTask, error) {
	var rt domain.RecurringTask
	var active int
	var deletedAt sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&rt.ID, &rt.UserID, &rt.Title, &rt.EstimateHours, &rt.Category,
		&active, &deletedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recurring task: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recurring task: %w", err)
	}
	rt.Active = intToBool(active)
	rt.DeletedAt = parseNullableInstant(deletedAt)
	rt.CreatedAt = parseInstant(createdAt)
	rt.UpdatedAt = parseInstant(updatedAt)
	return &rt, nil
}

func scanRecurringTasks(rows *sql.Rows) ([]*domain.RecurringTask, error) {
	var out []*domain.RecurringTask
	for rows.Next() {
		rt, err := scanRecurringTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recurring tasks: %w", err)
	}
	return out, nil
}
