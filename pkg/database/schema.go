package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is an idempotent bootstrap of the tables the service reads and writes.
// Composite unique keys back the insert-if-absent roster materialization.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    phone TEXT,
    telegram_username TEXT,
    parent_name TEXT,
    parent_phone TEXT,
    parent_telegram TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS student_groups (
    student_id TEXT NOT NULL REFERENCES students(id),
    group_id TEXT NOT NULL REFERENCES groups(id),
    PRIMARY KEY (student_id, group_id)
)`,
	`CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL REFERENCES students(id),
    amount NUMERIC(12,2) NOT NULL,
    payment_from_date DATE NOT NULL,
    payment_to_date DATE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS lessons (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    lesson_date TIMESTAMPTZ NOT NULL,
    topic TEXT,
    homework_capacity DOUBLE PRECISION NOT NULL DEFAULT 10,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_lessons_group_date ON lessons (group_id, lesson_date DESC)`,
	`CREATE TABLE IF NOT EXISTS attendance (
    id TEXT PRIMARY KEY,
    lesson_id TEXT NOT NULL REFERENCES lessons(id),
    student_id TEXT NOT NULL,
    present BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (lesson_id, student_id)
)`,
	`CREATE TABLE IF NOT EXISTS homeworks (
    id TEXT PRIMARY KEY,
    lesson_id TEXT NOT NULL REFERENCES lessons(id),
    student_id TEXT NOT NULL,
    score DOUBLE PRECISION,
    note TEXT,
    UNIQUE (lesson_id, student_id)
)`,
	`CREATE TABLE IF NOT EXISTS assessment_sessions (
    id TEXT PRIMARY KEY,
    lesson_id TEXT NOT NULL REFERENCES lessons(id),
    kind TEXT NOT NULL CHECK (kind IN ('TEST', 'QUESTION')),
    topic TEXT,
    point_per_correct DOUBLE PRECISION NOT NULL DEFAULT 2.0,
    question_capacity INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS assessment_results (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES assessment_sessions(id),
    student_id TEXT NOT NULL,
    section TEXT NOT NULL DEFAULT '',
    correct_count INTEGER NOT NULL DEFAULT 0,
    total_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    UNIQUE (session_id, student_id)
)`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
