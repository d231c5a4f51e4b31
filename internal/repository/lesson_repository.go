package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	"github.com/noah-isme/mentor-api/pkg/database"
)

// LessonRepository persists lessons, their assessment sessions and the participation rows hanging off them.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = `l.id, l.group_id, l.lesson_date, l.topic, l.homework_capacity, l.created_at,
        (SELECT string_agg(s.topic, ', ' ORDER BY s.created_at, s.id) FROM assessment_sessions s WHERE s.lesson_id = l.id AND s.topic IS NOT NULL AND s.topic <> '') AS session_topics`

// FindByID fetches a lesson.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons l WHERE l.id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// List returns lessons of a group, newest first.
func (r *LessonRepository) List(ctx context.Context, filter dto.LessonFilter) ([]models.Lesson, int, error) {
	conditions := []string{"l.group_id = $1"}
	args := []interface{}{filter.GroupID}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("l.lesson_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("l.lesson_date < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM lessons l WHERE %s ORDER BY l.lesson_date DESC, l.id DESC LIMIT %d OFFSET %d`, lessonColumns, where, size, offset)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM lessons l WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}
	return lessons, total, nil
}

// Create inserts a lesson.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO lessons (id, group_id, lesson_date, topic, homework_capacity, created_at)
        VALUES (:id, :group_id, :lesson_date, :topic, :homework_capacity, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update writes lesson header fields and reports whether the lesson existed.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) (bool, error) {
	const query = `UPDATE lessons SET lesson_date = :lesson_date, topic = :topic, homework_capacity = :homework_capacity WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, lesson)
	if err != nil {
		return false, fmt.Errorf("update lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update lesson rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a lesson and everything attached to it in one transaction.
func (r *LessonRepository) Delete(ctx context.Context, id string) (bool, error) {
	steps := []struct {
		label string
		query string
	}{
		{"results", `DELETE FROM assessment_results WHERE session_id IN (SELECT id FROM assessment_sessions WHERE lesson_id = $1)`},
		{"sessions", `DELETE FROM assessment_sessions WHERE lesson_id = $1`},
		{"attendance", `DELETE FROM attendance WHERE lesson_id = $1`},
		{"homework", `DELETE FROM homeworks WHERE lesson_id = $1`},
	}
	var affected int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return fmt.Errorf("delete lesson %s: %w", step.label, err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete lesson: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete lesson rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateSession inserts a session and materializes a blank result for every
// current member of the lesson's group.
func (r *LessonRepository) CreateSession(ctx context.Context, session *models.AssessmentSession, groupID string) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insert = `INSERT INTO assessment_sessions (id, lesson_id, kind, topic, point_per_correct, question_capacity, created_at)
        VALUES (:id, :lesson_id, :kind, :topic, :point_per_correct, :question_capacity, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insert, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		const materialize = `INSERT INTO assessment_results (id, session_id, student_id, section, correct_count, total_score)
        SELECT gen_random_uuid()::text, $1, sg.student_id, '', 0, 0
        FROM student_groups sg WHERE sg.group_id = $2
        ON CONFLICT (session_id, student_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, materialize, session.ID, groupID); err != nil {
			return fmt.Errorf("materialize session results: %w", err)
		}
		return nil
	})
}

// FindSession fetches a session.
func (r *LessonRepository) FindSession(ctx context.Context, id string) (*models.AssessmentSession, error) {
	const query = `SELECT id, lesson_id, kind, topic, point_per_correct, question_capacity, created_at FROM assessment_sessions WHERE id = $1`
	var session models.AssessmentSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a session and its results in one transaction.
func (r *LessonRepository) DeleteSession(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessment_results WHERE session_id = $1`, id); err != nil {
			return fmt.Errorf("delete session results: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM assessment_sessions WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete session rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListSessions returns the sessions of a lesson in creation order.
func (r *LessonRepository) ListSessions(ctx context.Context, lessonID string) ([]models.AssessmentSession, error) {
	const query = `SELECT id, lesson_id, kind, topic, point_per_correct, question_capacity, created_at
        FROM assessment_sessions WHERE lesson_id = $1 ORDER BY created_at ASC, id ASC`
	var sessions []models.AssessmentSession
	if err := r.db.SelectContext(ctx, &sessions, query, lessonID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListAttendance returns attendance rows of a lesson ordered by student name.
func (r *LessonRepository) ListAttendance(ctx context.Context, lessonID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.lesson_id, a.student_id, TRIM(st.first_name || ' ' || st.last_name) AS student_name, a.present
        FROM attendance a JOIN students st ON st.id = a.student_id
        WHERE a.lesson_id = $1 ORDER BY st.last_name ASC, st.first_name ASC, a.student_id ASC`
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, lessonID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// ListHomework returns homework rows of a lesson ordered by student name.
func (r *LessonRepository) ListHomework(ctx context.Context, lessonID string) ([]models.HomeworkRecord, error) {
	const query = `SELECT h.id, h.lesson_id, h.student_id, TRIM(st.first_name || ' ' || st.last_name) AS student_name, h.score, h.note
        FROM homeworks h JOIN students st ON st.id = h.student_id
        WHERE h.lesson_id = $1 ORDER BY st.last_name ASC, st.first_name ASC, h.student_id ASC`
	var rows []models.HomeworkRecord
	if err := r.db.SelectContext(ctx, &rows, query, lessonID); err != nil {
		return nil, fmt.Errorf("list homework: %w", err)
	}
	return rows, nil
}

// ListResults returns every result of the lesson's sessions.
func (r *LessonRepository) ListResults(ctx context.Context, lessonID string) ([]models.AssessmentResult, error) {
	const query = `SELECT r.id, r.session_id, r.student_id, TRIM(st.first_name || ' ' || st.last_name) AS student_name, r.section, r.correct_count, r.total_score
        FROM assessment_results r
        JOIN assessment_sessions s ON s.id = r.session_id
        JOIN students st ON st.id = r.student_id
        WHERE s.lesson_id = $1 ORDER BY st.last_name ASC, st.first_name ASC, r.student_id ASC`
	var rows []models.AssessmentResult
	if err := r.db.SelectContext(ctx, &rows, query, lessonID); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return rows, nil
}
