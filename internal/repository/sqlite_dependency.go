package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

// SQLiteDependencyRepo implements DependencyRepo using a SQLite database.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

// NewSQLiteDependencyRepo creates a new SQLiteDependencyRepo.
func NewSQLiteDependencyRepo(db db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: db}
}

func (r *SQLiteDependencyRepo) Create(ctx context.Context, d *domain.Dependency) error {
	if err := d.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO dependencies (successor_kind, successor_id, predecessor_kind, predecessor_id)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		string(d.SuccessorKind), d.SuccessorID, string(d.PredecessorKind), d.PredecessorID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("dependency edge: %w", ErrDuplicate)
		}
		return fmt.Errorf("inserting dependency: %w", err)
	}
	return nil
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, d *domain.Dependency) error {
	query := `DELETE FROM dependencies
		WHERE successor_kind = ? AND successor_id = ? AND predecessor_kind = ? AND predecessor_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(d.SuccessorKind), d.SuccessorID, string(d.PredecessorKind), d.PredecessorID)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	return requireRow(res, "dependency")
}

// ListForSuccessors returns every edge whose successor is one of the given
// ids, in a single read. The planning pipeline batches all prerequisite
// lookups through here instead of issuing per-task queries.
func (r *SQLiteDependencyRepo) ListForSuccessors(ctx context.Context, kind domain.DependencyKind, ids []string) ([]domain.Dependency, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT successor_kind, successor_id, predecessor_kind, predecessor_id
		FROM dependencies
		WHERE successor_kind = ? AND successor_id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{string(kind)}, idsToArgs(ids)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func scanDependencies(rows *sql.Rows) ([]domain.Dependency, error) {
	var deps []domain.Dependency
	for rows.Next() {
		var d domain.Dependency
		var sk, pk string
		if err := rows.Scan(&sk, &d.SuccessorID, &pk, &d.PredecessorID); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		d.SuccessorKind = domain.DependencyKind(sk)
		d.PredecessorKind = domain.DependencyKind(pk)
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}
