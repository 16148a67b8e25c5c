package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

// SQLiteUserProfileRepo implements UserProfileRepo using a SQLite database.
type SQLiteUserProfileRepo struct {
	db db.DBTX
}

// NewSQLiteUserProfileRepo creates a new SQLiteUserProfileRepo.
func NewSQLiteUserProfileRepo(db db.DBTX) *SQLiteUserProfileRepo {
	return &SQLiteUserProfileRepo{db: db}
}

// Get returns the stored profile, or the default capacity and timezone when
// the user has never saved one.
func (r *SQLiteUserProfileRepo) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `SELECT user_id, weekly_capacity_hours, timezone FROM user_profiles WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)

	var p domain.UserProfile
	err := row.Scan(&p.UserID, &p.WeeklyCapacityHours, &p.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UserProfile{
			UserID:              userID,
			WeeklyCapacityHours: 40,
			Timezone:            "UTC",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user profile: %w", err)
	}
	return &p, nil
}

func (r *SQLiteUserProfileRepo) Upsert(ctx context.Context, p *domain.UserProfile) error {
	query := `INSERT INTO user_profiles (user_id, weekly_capacity_hours, timezone)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			weekly_capacity_hours = excluded.weekly_capacity_hours,
			timezone = excluded.timezone`
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.WeeklyCapacityHours, p.Timezone)
	if err != nil {
		return fmt.Errorf("upserting user profile: %w", err)
	}
	return nil
}
