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

// SQLiteScheduleRepo stores daily and weekly plans as JSON blobs keyed by
// user and date. Plans are read and replaced whole, so a blob column beats a
// normalized slot table here.
type SQLiteScheduleRepo struct {
	db db.DBTX
}

// NewSQLiteScheduleRepo creates a new SQLiteScheduleRepo.
func NewSQLiteScheduleRepo(db db.DBTX) *SQLiteScheduleRepo {
	return &SQLiteScheduleRepo{db: db}
}

func (r *SQLiteScheduleRepo) GetDaily(ctx context.Context, userID, date string) (*domain.DailySchedule, error) {
	query := `SELECT user_id, date, plan_json, created_at, updated_at
		FROM daily_schedules WHERE user_id = ? AND date = ?`
	row := r.db.QueryRowContext(ctx, query, userID, date)
	return scanDailySchedule(row)
}

func (r *SQLiteScheduleRepo) PutDaily(ctx context.Context, s *domain.DailySchedule) error {
	blob, err := json.Marshal(s.Plan)
	if err != nil {
		return fmt.Errorf("encoding day plan: %w", err)
	}
	query := `INSERT INTO daily_schedules (user_id, date, plan_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			plan_json = excluded.plan_json,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		s.UserID, s.Date, string(blob),
		instantToString(s.CreatedAt), instantToString(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting daily schedule: %w", err)
	}
	return nil
}

func (r *SQLiteScheduleRepo) ListDaily(ctx context.Context, userID string, skip, limit int) ([]*domain.DailySchedule, error) {
	query := `SELECT user_id, date, plan_json, created_at, updated_at
		FROM daily_schedules WHERE user_id = ?
		ORDER BY date DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("listing daily schedules: %w", err)
	}
	defer rows.Close()

	var out []*domain.DailySchedule
	for rows.Next() {
		s, err := scanDailySchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily schedules: %w", err)
	}
	return out, nil
}

func (r *SQLiteScheduleRepo) GetWeekly(ctx context.Context, userID, weekStart string) (*domain.WeeklySchedule, error) {
	query := `SELECT user_id, week_start, record_json, created_at, updated_at
		FROM weekly_schedules WHERE user_id = ? AND week_start = ?`
	row := r.db.QueryRowContext(ctx, query, userID, weekStart)

	var s domain.WeeklySchedule
	var blob, createdAt, updatedAt string
	err := row.Scan(&s.UserID, &s.WeekStart, &blob, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("weekly schedule: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning weekly schedule: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &s.Record); err != nil {
		return nil, fmt.Errorf("decoding weekly plan record: %w", err)
	}
	s.CreatedAt = parseInstant(createdAt)
	s.UpdatedAt = parseInstant(updatedAt)
	return &s, nil
}

func (r *SQLiteScheduleRepo) PutWeekly(ctx context.Context, s *domain.WeeklySchedule) error {
	blob, err := json.Marshal(s.Record)
	if err != nil {
		return fmt.Errorf("encoding weekly plan record: %w", err)
	}
	query := `INSERT INTO weekly_schedules (user_id, week_start, record_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET
			record_json = excluded.record_json,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		s.UserID, s.WeekStart, string(blob),
		instantToString(s.CreatedAt), instantToString(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting weekly schedule: %w", err)
	}
	return nil
}

// ListWeeklyOptions projects stored weekly plans into the picker list,
// newest week first. Task counts come out of the JSON blob.
func (r *SQLiteScheduleRepo) ListWeeklyOptions(ctx context.Context, userID string) ([]domain.WeeklyScheduleOption, error) {
	query := `SELECT week_start, record_json FROM weekly_schedules
		WHERE user_id = ? ORDER BY week_start DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing weekly schedules: %w", err)
	}
	defer rows.Close()

	var out []domain.WeeklyScheduleOption
	for rows.Next() {
		var weekStart, blob string
		if err := rows.Scan(&weekStart, &blob); err != nil {
			return nil, fmt.Errorf("scanning weekly schedule row: %w", err)
		}
		var record domain.WeeklyPlanRecord
		if err := json.Unmarshal([]byte(blob), &record); err != nil {
			return nil, fmt.Errorf("decoding weekly plan record: %w", err)
		}
		out = append(out, domain.WeeklyScheduleOption{
			WeekStartDate: weekStart,
			TaskCount:     len(record.SelectedTasks),
			Title:         "Week of " + weekStart,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weekly schedules: %w", err)
	}
	return out, nil
}

func scanDailySchedule(row rowScanner) (*domain.DailySchedule, error) {
	var s domain.DailySchedule
	var blob, createdAt, updatedAt string
	err := row.Scan(&s.UserID, &s.Date, &blob, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("daily schedule: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning daily schedule: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &s.Plan); err != nil {
		return nil, fmt.Errorf("decoding day plan: %w", err)
	}
	s.CreatedAt = parseInstant(createdAt)
	s.UpdatedAt = parseInstant(updatedAt)
	return &s, nil
}
