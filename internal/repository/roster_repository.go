package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-api/pkg/database"
)

// RosterRepository materializes participation rows for the current members of a group.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

var rosterStatements = []struct {
	label string
	query string
}{
	{"attendance", `INSERT INTO attendance (id, lesson_id, student_id, present)
        SELECT gen_random_uuid()::text, $1, sg.student_id, FALSE
        FROM student_groups sg
        WHERE sg.group_id = $2
          AND NOT EXISTS (SELECT 1 FROM attendance a WHERE a.lesson_id = $1 AND a.student_id = sg.student_id)
        ON CONFLICT (lesson_id, student_id) DO NOTHING`},
	{"homework", `INSERT INTO homeworks (id, lesson_id, student_id, score, note)
        SELECT gen_random_uuid()::text, $1, sg.student_id, NULL, NULL
        FROM student_groups sg
        WHERE sg.group_id = $2
          AND NOT EXISTS (SELECT 1 FROM homeworks h WHERE h.lesson_id = $1 AND h.student_id = sg.student_id)
        ON CONFLICT (lesson_id, student_id) DO NOTHING`},
	{"results", `INSERT INTO assessment_results (id, session_id, student_id, section, correct_count, total_score)
        SELECT gen_random_uuid()::text, s.id, sg.student_id, '', 0, 0
        FROM assessment_sessions s
        JOIN student_groups sg ON sg.group_id = $2
        WHERE s.lesson_id = $1
          AND NOT EXISTS (SELECT 1 FROM assessment_results r WHERE r.session_id = s.id AND r.student_id = sg.student_id)
        ON CONFLICT (session_id, student_id) DO NOTHING`},
}

// Sync inserts the missing attendance, homework and result rows of a lesson
// for every current member of the group. Rows of former members are never
// touched. It returns the number of rows inserted.
func (r *RosterRepository) Sync(ctx context.Context, lessonID, groupID string) (int64, error) {
	var inserted int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, stmt := range rosterStatements {
			res, err := tx.ExecContext(ctx, stmt.query, lessonID, groupID)
			if err != nil {
				return fmt.Errorf("sync %s: %w", stmt.label, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("sync %s rows: %w", stmt.label, err)
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
