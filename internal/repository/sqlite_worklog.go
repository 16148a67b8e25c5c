package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

// SQLiteWorkLogRepo implements WorkLogRepo using a SQLite database.
type SQLiteWorkLogRepo struct {
	db db.DBTX
}

// NewSQLiteWorkLogRepo creates a new SQLiteWorkLogRepo.
func NewSQLiteWorkLogRepo(db db.DBTX) *SQLiteWorkLogRepo {
	return &SQLiteWorkLogRepo{db: db}
}

func (r *SQLiteWorkLogRepo) Create(ctx context.Context, l *domain.WorkLog) error {
	if err := l.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO work_logs (id, task_id, actual_minutes, comment, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.TaskID, l.ActualMinutes, l.Comment, instantToString(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting work log: %w", err)
	}
	return nil
}

func (r *SQLiteWorkLogRepo) ListByTask(ctx context.Context, taskID string) ([]*domain.WorkLog, error) {
	query := `SELECT id, task_id, actual_minutes, comment, created_at
		FROM work_logs WHERE task_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing work logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.WorkLog
	for rows.Next() {
		var l domain.WorkLog
		var createdAt string
		if err := rows.Scan(&l.ID, &l.TaskID, &l.ActualMinutes, &l.Comment, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning work log: %w", err)
		}
		l.CreatedAt = parseInstant(createdAt)
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work logs: %w", err)
	}
	return logs, nil
}

// ActualMinutesByTask sums logged minutes per task in a single GROUP BY
// read. Tasks without logs are simply absent from the result.
func (r *SQLiteWorkLogRepo) ActualMinutesByTask(ctx context.Context, taskIDs []string) (map[string]int, error) {
	minutes := make(map[string]int, len(taskIDs))
	if len(taskIDs) == 0 {
		return minutes, nil
	}
	query := `SELECT task_id, SUM(actual_minutes)
		FROM work_logs
		WHERE task_id IN (` + placeholders(len(taskIDs)) + `)
		GROUP BY task_id`
	rows, err := r.db.QueryContext(ctx, query, idsToArgs(taskIDs)...)
	if err != nil {
		return nil, fmt.Errorf("aggregating work-log minutes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID string
		var sum int
		if err := rows.Scan(&taskID, &sum); err != nil {
			return nil, fmt.Errorf("scanning work-log aggregate: %w", err)
		}
		minutes[taskID] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work-log aggregates: %w", err)
	}
	return minutes, nil
}

func (r *SQLiteWorkLogRepo) TotalMinutesForTask(ctx context.Context, taskID string) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(actual_minutes), 0) FROM work_logs WHERE task_id = ?`
	if err := r.db.QueryRowContext(ctx, query, taskID).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing work-log minutes: %w", err)
	}
	return total, nil
}
