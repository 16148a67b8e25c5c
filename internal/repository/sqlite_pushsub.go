package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/domain"
)

const pushSubColumns = `id, user_id, endpoint, p256dh_key, auth_key, user_agent, device_type,
		active, failure_count, last_success_at, created_at, updated_at`

// SQLitePushSubscriptionRepo implements PushSubscriptionRepo using a SQLite
// database.
type SQLitePushSubscriptionRepo struct {
	db db.DBTX
}

// NewSQLitePushSubscriptionRepo creates a new SQLitePushSubscriptionRepo.
func NewSQLitePushSubscriptionRepo(db db.DBTX) *SQLitePushSubscriptionRepo {
	return &SQLitePushSubscriptionRepo{db: db}
}

// Upsert registers or updates by (user, endpoint). Re-registering revives an
// inactive subscription with fresh keys and a zeroed failure streak.
func (r *SQLitePushSubscriptionRepo) Upsert(ctx context.Context, s *domain.PushSubscription) error {
	query := `INSERT INTO push_subscriptions (` + pushSubColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, endpoint) DO UPDATE SET
			p256dh_key = excluded.p256dh_key,
			auth_key = excluded.auth_key,
			user_agent = excluded.user_agent,
			device_type = excluded.device_type,
			active = 1,
			failure_count = 0,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Endpoint, s.P256dhKey, s.AuthKey, s.UserAgent, s.DeviceType,
		boolToInt(s.Active), s.FailureCount, nullableInstantToValue(s.LastSuccessAt),
		instantToString(s.CreatedAt), instantToString(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting push subscription: %w", err)
	}
	return nil
}

func (r *SQLitePushSubscriptionRepo) Update(ctx context.Context, s *domain.PushSubscription) error {
	query := `UPDATE push_subscriptions SET
		active = ?, failure_count = ?, last_success_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		boolToInt(s.Active), s.FailureCount, nullableInstantToValue(s.LastSuccessAt),
		nowRFC3339(), s.ID)
	if err != nil {
		return fmt.Errorf("updating push subscription: %w", err)
	}
	return requireRow(res, "push subscription")
}

func (r *SQLitePushSubscriptionRepo) Deactivate(ctx context.Context, userID, endpoint string) error {
	query := `UPDATE push_subscriptions SET active = 0, updated_at = ?
		WHERE user_id = ? AND endpoint = ?`
	res, err := r.db.ExecContext(ctx, query, nowRFC3339(), userID, endpoint)
	if err != nil {
		return fmt.Errorf("deactivating push subscription: %w", err)
	}
	return requireRow(res, "push subscription")
}

func (r *SQLitePushSubscriptionRepo) ListActiveByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error) {
	query := `SELECT ` + pushSubColumns + `
		FROM push_subscriptions
		WHERE user_id = ? AND active = 1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.PushSubscription
	for rows.Next() {
		s, err := scanPushSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating push subscriptions: %w", err)
	}
	return subs, nil
}

func (r *SQLitePushSubscriptionRepo) GetByEndpoint(ctx context.Context, userID, endpoint string) (*domain.PushSubscription, error) {
	query := `SELECT ` + pushSubColumns + `
		FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`
	row := r.db.QueryRowContext(ctx, query, userID, endpoint)
	return scanPushSubscription(row)
}

func scanPushSubscription(row rowScanner) (*domain.PushSubscription, error) {
	var s domain.PushSubscription
	var active int
	var lastSuccess sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dhKey, &s.AuthKey,
		&s.UserAgent, &s.DeviceType, &active, &s.FailureCount, &lastSuccess,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("push subscription: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning push subscription: %w", err)
	}
	s.Active = intToBool(active)
	s.LastSuccessAt = parseNullableInstant(lastSuccess)
	s.CreatedAt = parseInstant(createdAt)
	s.UpdatedAt = parseInstant(updatedAt)
	return &s, nil
}
