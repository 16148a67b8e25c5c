package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, goal_id, title, estimate_hours, kind, priority, due_at, status, created_at, updated_at`

// taskColumnsAliased is the same column list prefixed with "t." for joins.
const taskColumnsAliased = `t.id, t.goal_id, t.title, t.estimate_hours, t.kind, t.priority, t.due_at, t.status, t.created_at, t.updated_at`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(db db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO tasks (id, goal_id, title, estimate_hours, kind, priority, due_at, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.GoalID, t.Title, t.EstimateHours, string(t.Kind), t.Priority,
		nullableInstantToValue(t.DueAt), string(t.Status),
		instantToString(t.CreatedAt), instantToString(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanTask(row)
}

func (r *SQLiteTaskRepo) ListByGoal(ctx context.Context, goalID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE goal_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by goal: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListPlannable(ctx context.Context, userID string) ([]PlanningTask, error) {
	query := `SELECT ` + taskColumnsAliased + `, g.project_id, p.name AS project_name
		FROM tasks t
		JOIN goals g ON t.goal_id = g.id
		JOIN projects p ON g.project_id = p.id
		WHERE p.user_id = ?
		  AND t.status IN ('PENDING', 'IN_PROGRESS')
		ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing plannable tasks: %w", err)
	}
	defer rows.Close()

	var out []PlanningTask
	for rows.Next() {
		var t domain.Task
		var kind, status, createdAt, updatedAt string
		var dueAt sql.NullString
		var pt PlanningTask
		if err := rows.Scan(&t.ID, &t.GoalID, &t.Title, &t.EstimateHours, &kind, &t.Priority,
			&dueAt, &status, &createdAt, &updatedAt, &pt.ProjectID, &pt.ProjectName); err != nil {
			return nil, fmt.Errorf("scanning plannable task: %w", err)
		}
		t.Kind = domain.WorkKind(kind)
		t.Status = domain.TaskStatus(status)
		t.DueAt = parseNullableInstant(dueAt)
		t.CreatedAt = parseInstant(createdAt)
		t.UpdatedAt = parseInstant(updatedAt)
		pt.Task = t
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plannable tasks: %w", err)
	}
	return out, nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	query := `UPDATE tasks SET title = ?, estimate_hours = ?, kind = ?, priority = ?,
		due_at = ?, status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Title, t.EstimateHours, string(t.Kind), t.Priority,
		nullableInstantToValue(t.DueAt), string(t.Status), instantToString(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireRow(res, "task")
}

func (r *SQLiteTaskRepo) UpdateEstimate(ctx context.Context, id string, estimateHours float64) error {
	if estimateHours <= 0 || estimateHours > domain.MaxEstimateHours {
		return domain.ErrEstimateOutOfRange
	}
	query := `UPDATE tasks SET estimate_hours = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, estimateHours, nowRFC3339(), id)
	if err != nil {
		return fmt.Errorf("updating task estimate: %w", err)
	}
	return requireRow(res, "task")
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return requireRow(res, "task")
}

func (r *SQLiteTaskRepo) CompletedByIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	completed := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return completed, nil
	}
	query := `SELECT id, status FROM tasks WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, query, idsToArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("batch-reading task status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scanning task status: %w", err)
		}
		completed[id] = status == string(domain.TaskCompleted)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task statuses: %w", err)
	}
	return completed, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var kind, status, createdAt, updatedAt string
	var dueAt sql.NullString
	err := row.Scan(&t.ID, &t.GoalID, &t.Title, &t.EstimateHours, &kind, &t.Priority,
		&dueAt, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	t.Kind = domain.WorkKind(kind)
	t.Status = domain.TaskStatus(status)
	t.DueAt = parseNullableInstant(dueAt)
	t.CreatedAt = parseInstant(createdAt)
	t.UpdatedAt = parseInstant(updatedAt)
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}
