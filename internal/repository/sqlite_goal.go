package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

// SQLiteGoalRepo implements GoalRepo using a SQLite database.
type SQLiteGoalRepo struct {
	db db.DBTX
}

// NewSQLiteGoalRepo creates a new SQLiteGoalRepo.
func NewSQLiteGoalRepo(db db.DBTX) *SQLiteGoalRepo {
	return &SQLiteGoalRepo{db: db}
}

func (r *SQLiteGoalRepo) Create(ctx context.Context, g *domain.Goal) error {
	query := `INSERT INTO goals (id, project_id, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		g.ID, g.ProjectID, g.Title, string(g.Status),
		instantToString(g.CreatedAt), instantToString(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}
	return nil
}

func (r *SQLiteGoalRepo) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	query := `SELECT id, project_id, title, status, created_at, updated_at FROM goals WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanGoal(row)
}

func (r *SQLiteGoalRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Goal, error) {
	query := `SELECT id, project_id, title, status, created_at, updated_at
		FROM goals WHERE project_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	defer rows.Close()

	var goals []*domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating goals: %w", err)
	}
	return goals, nil
}

func (r *SQLiteGoalRepo) Update(ctx context.Context, g *domain.Goal) error {
	query := `UPDATE goals SET title = ?, status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		g.Title, string(g.Status), instantToString(g.UpdatedAt), g.ID)
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}
	return requireRow(res, "goal")
}

func (r *SQLiteGoalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	return requireRow(res, "goal")
}

func (r *SQLiteGoalRepo) CompletedByIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	completed := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return completed, nil
	}
	query := `SELECT id, status FROM goals WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, query, idsToArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("batch-reading goal status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scanning goal status: %w", err)
		}
		completed[id] = status == string(domain.GoalCompleted)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating goal statuses: %w", err)
	}
	return completed, nil
}

func scanGoal(row rowScanner) (*domain.Goal, error) {
	var g domain.Goal
	var status, createdAt, updatedAt string
	err := row.Scan(&g.ID, &g.ProjectID, &g.Title, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning goal: %w", err)
	}
	g.Status = domain.GoalStatus(status)
	g.CreatedAt = parseInstant(createdAt)
	g.UpdatedAt = parseInstant(updatedAt)
	return &g, nil
}
