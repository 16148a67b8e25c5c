package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id               TEXT PRIMARY KEY,
		weekly_capacity_hours REAL NOT NULL DEFAULT 40,
		timezone              TEXT NOT NULL DEFAULT 'UTC'
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id)`,

	`CREATE TABLE IF NOT EXISTS goals (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'PENDING'
		           CHECK(status IN ('PENDING','COMPLETED','ARCHIVED')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_goals_project ON goals(project_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id             TEXT PRIMARY KEY,
		goal_id        TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
		title          TEXT NOT NULL,
		estimate_hours REAL NOT NULL CHECK(estimate_hours > 0 AND estimate_hours <= 999.99),
		kind           TEXT NOT NULL
		               CHECK(kind IN ('LIGHT_WORK','FOCUSED_WORK','STUDY')),
		priority       INTEGER NOT NULL DEFAULT 3 CHECK(priority BETWEEN 1 AND 5),
		due_at         TEXT,
		status         TEXT NOT NULL DEFAULT 'PENDING'
		               CHECK(status IN ('PENDING','IN_PROGRESS','COMPLETED','CANCELLED')),
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_goal ON tasks(goal_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

	`CREATE TABLE IF NOT EXISTS work_logs (
		id             TEXT PRIMARY KEY,
		task_id        TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		actual_minutes INTEGER NOT NULL CHECK(actual_minutes > 0),
		comment        TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_work_logs_task ON work_logs(task_id)`,

	`CREATE TABLE IF NOT EXISTS dependencies (
		successor_kind   TEXT NOT NULL CHECK(successor_kind IN ('task','goal')),
		successor_id     TEXT NOT NULL,
		predecessor_kind TEXT NOT NULL CHECK(predecessor_kind IN ('task','goal')),
		predecessor_id   TEXT NOT NULL,
		PRIMARY KEY (successor_kind, successor_id, predecessor_kind, predecessor_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_dependencies_successor ON dependencies(successor_id)`,

	`CREATE TABLE IF NOT EXISTS recurring_tasks (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		title          TEXT NOT NULL,
		estimate_hours REAL NOT NULL CHECK(estimate_hours > 0),
		category       TEXT NOT NULL DEFAULT '',
		active         INTEGER NOT NULL DEFAULT 1,
		deleted_at     TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recurring_tasks_user ON recurring_tasks(user_id)`,

	`CREATE TABLE IF NOT EXISTS work_sessions (
		id                       TEXT PRIMARY KEY,
		user_id                  TEXT NOT NULL,
		task_id                  TEXT NOT NULL REFERENCES tasks(id),
		started_at               TEXT NOT NULL,
		planned_checkout_at      TEXT NOT NULL,
		planned_outcome          TEXT NOT NULL DEFAULT '',
		paused_at                TEXT,
		total_paused_seconds     INTEGER NOT NULL DEFAULT 0,
		ended_at                 TEXT,
		checkout_type            TEXT NOT NULL DEFAULT '',
		decision                 TEXT NOT NULL DEFAULT '',
		continue_reason          TEXT NOT NULL DEFAULT '',
		kpt_keep                 TEXT NOT NULL DEFAULT '',
		kpt_problem              TEXT NOT NULL DEFAULT '',
		kpt_try                  TEXT NOT NULL DEFAULT '',
		remaining_estimate_hours REAL,
		snooze_count             INTEGER NOT NULL DEFAULT 0,
		last_snooze_at           TEXT,
		notification_5min_sent     INTEGER NOT NULL DEFAULT 0,
		notification_checkout_sent INTEGER NOT NULL DEFAULT 0,
		notification_overdue_sent  INTEGER NOT NULL DEFAULT 0,
		marked_unresponsive_at   TEXT,
		created_at               TEXT NOT NULL,
		updated_at               TEXT NOT NULL
	)`,

	// One open session per user. The start transaction relies on this
	// unique partial index to surface conflicts.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_work_sessions_active
		ON work_sessions(user_id) WHERE ended_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_work_sessions_user ON work_sessions(user_id, started_at)`,

	`CREATE TABLE IF NOT EXISTS push_subscriptions (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		endpoint        TEXT NOT NULL,
		p256dh_key      TEXT NOT NULL,
		auth_key        TEXT NOT NULL,
		user_agent      TEXT NOT NULL DEFAULT '',
		device_type     TEXT NOT NULL DEFAULT '',
		active          INTEGER NOT NULL DEFAULT 1,
		failure_count   INTEGER NOT NULL DEFAULT 0,
		last_success_at TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		UNIQUE(user_id, endpoint)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_push_subscriptions_user ON push_subscriptions(user_id)`,

	`CREATE TABLE IF NOT EXISTS daily_schedules (
		user_id    TEXT NOT NULL,
		date       TEXT NOT NULL,
		plan_json  TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS weekly_schedules (
		user_id     TEXT NOT NULL,
		week_start  TEXT NOT NULL,
		record_json TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		PRIMARY KEY (user_id, week_start)
	)`,

	`CREATE TABLE IF NOT EXISTS reschedule_suggestions (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		work_session_id  TEXT NOT NULL REFERENCES work_sessions(id),
		trigger_type     TEXT NOT NULL
		                 CHECK(trigger_type IN ('CHECKOUT','MANUAL_CHECKOUT','OVERDUE_RECOVERY')),
		trigger_decision TEXT NOT NULL DEFAULT '',
		original_json    TEXT NOT NULL,
		proposed_json    TEXT NOT NULL,
		diff_json        TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'PENDING'
		                 CHECK(status IN ('PENDING','ACCEPTED','REJECTED','EXPIRED')),
		expires_at       TEXT NOT NULL,
		decided_at       TEXT,
		decision_reason  TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_suggestions_user_status ON reschedule_suggestions(user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_suggestions_pending_expiry
		ON reschedule_suggestions(expires_at) WHERE status = 'PENDING'`,

	`CREATE TABLE IF NOT EXISTS reschedule_decisions (
		id            TEXT PRIMARY KEY,
		suggestion_id TEXT NOT NULL REFERENCES reschedule_suggestions(id) ON DELETE CASCADE,
		accepted      INTEGER NOT NULL,
		reason        TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`,
}
