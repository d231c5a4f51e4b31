package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-api/internal/models"
	"github.com/noah-isme/mentor-api/pkg/database"
)

// ScoreRepository reads and writes the scored participation rows of lessons.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Save applies a batch of edits to one lesson in a single transaction. An
// edit that targets a row outside the lesson fails the whole batch with
// sql.ErrNoRows.
func (r *ScoreRepository) Save(ctx context.Context, lessonID string, batch models.ScoreBatch) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1)`, lessonID); err != nil {
			return fmt.Errorf("check lesson: %w", err)
		}
		if !exists {
			return fmt.Errorf("lesson %s: %w", lessonID, sql.ErrNoRows)
		}

		for _, id := range sortedKeys(batch.Attendance) {
			const query = `UPDATE attendance SET present = $1 WHERE id = $2 AND lesson_id = $3`
			if err := execOne(ctx, tx, "attendance", id, query, batch.Attendance[id], id, lessonID); err != nil {
				return err
			}
		}
		for _, id := range sortedKeys(batch.Homework) {
			edit := batch.Homework[id]
			const query = `UPDATE homeworks
        SET score = CASE WHEN $1 THEN $2::double precision ELSE score END,
            note = COALESCE($3, note)
        WHERE id = $4 AND lesson_id = $5`
			if err := execOne(ctx, tx, "homework", id, query, edit.ScoreSet, edit.Score, edit.Note, id, lessonID); err != nil {
				return err
			}
		}
		// Sessions first so result totals below see the new point value.
		for _, id := range sortedKeys(batch.Sessions) {
			edit := batch.Sessions[id]
			const query = `UPDATE assessment_sessions
        SET topic = COALESCE($1, topic),
            point_per_correct = COALESCE($2::double precision, point_per_correct),
            question_capacity = COALESCE($3::integer, question_capacity)
        WHERE id = $4 AND lesson_id = $5`
			if err := execOne(ctx, tx, "session", id, query, edit.Topic, edit.PointPerCorrect, edit.QuestionCapacity, id, lessonID); err != nil {
				return err
			}
			if edit.PointPerCorrect != nil {
				const recompute = `UPDATE assessment_results SET total_score = correct_count * $1::double precision WHERE session_id = $2`
				if _, err := tx.ExecContext(ctx, recompute, *edit.PointPerCorrect, id); err != nil {
					return fmt.Errorf("recompute session %s totals: %w", id, err)
				}
			}
		}
		for _, id := range sortedKeys(batch.Results) {
			edit := batch.Results[id]
			const query = `UPDATE assessment_results r
        SET section = COALESCE($1, r.section),
            correct_count = COALESCE($2::integer, r.correct_count),
            total_score = COALESCE($2::integer, r.correct_count) * s.point_per_correct
        FROM assessment_sessions s
        WHERE r.id = $3 AND s.id = r.session_id AND s.lesson_id = $4`
			if err := execOne(ctx, tx, "result", id, query, edit.Section, edit.CorrectCount, id, lessonID); err != nil {
				return err
			}
		}
		return nil
	})
}

func execOne(ctx context.Context, tx *sqlx.Tx, label, id, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", label, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s rows: %w", label, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update %s %s: %w", label, id, sql.ErrNoRows)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type resultRow struct {
	SessionID    string  `db:"session_id"`
	StudentID    string  `db:"student_id"`
	Section      string  `db:"section"`
	CorrectCount int     `db:"correct_count"`
	TotalScore   float64 `db:"total_score"`
}

// Breakdowns returns one entry per attendance row in scope, newest lesson
// first, each carrying the lesson's sessions and the student's result in them.
func (r *ScoreRepository) Breakdowns(ctx context.Context, filter models.BreakdownFilter) ([]models.LessonBreakdown, error) {
	conditions, args := lessonScope(filter)

	lessonWhere := strings.Join(conditions, " AND ")
	participantWhere := lessonWhere
	participantArgs := append([]interface{}{}, args...)
	if filter.StudentID != "" {
		participantWhere += fmt.Sprintf(" AND a.student_id = $%d", len(participantArgs)+1)
		participantArgs = append(participantArgs, filter.StudentID)
	}

	query := fmt.Sprintf(`SELECT a.student_id, st.first_name, st.last_name, l.id AS lesson_id, l.group_id, l.lesson_date,
        l.topic AS lesson_topic, l.homework_capacity, a.present, h.score AS homework_score
        FROM attendance a
        JOIN lessons l ON l.id = a.lesson_id
        JOIN students st ON st.id = a.student_id
        LEFT JOIN homeworks h ON h.lesson_id = a.lesson_id AND h.student_id = a.student_id
        WHERE %s
        ORDER BY l.lesson_date DESC, l.id ASC, st.last_name ASC, st.first_name ASC, a.student_id ASC`, participantWhere)
	var breakdowns []models.LessonBreakdown
	if err := r.db.SelectContext(ctx, &breakdowns, query, participantArgs...); err != nil {
		return nil, fmt.Errorf("select lesson participation: %w", err)
	}
	if len(breakdowns) == 0 {
		return breakdowns, nil
	}

	sessionQuery := fmt.Sprintf(`SELECT s.id AS session_id, s.lesson_id, s.kind, s.topic, s.point_per_correct, s.question_capacity, s.created_at
        FROM assessment_sessions s JOIN lessons l ON l.id = s.lesson_id
        WHERE %s
        ORDER BY s.created_at ASC, s.id ASC`, lessonWhere)
	var sessions []models.SessionScore
	if err := r.db.SelectContext(ctx, &sessions, sessionQuery, args...); err != nil {
		return nil, fmt.Errorf("select lesson sessions: %w", err)
	}

	resultWhere := lessonWhere
	resultArgs := append([]interface{}{}, args...)
	if filter.StudentID != "" {
		resultWhere += fmt.Sprintf(" AND r.student_id = $%d", len(resultArgs)+1)
		resultArgs = append(resultArgs, filter.StudentID)
	}
	resultQuery := fmt.Sprintf(`SELECT r.session_id, r.student_id, r.section, r.correct_count, r.total_score
        FROM assessment_results r
        JOIN assessment_sessions s ON s.id = r.session_id
        JOIN lessons l ON l.id = s.lesson_id
        WHERE %s`, resultWhere)
	var results []resultRow
	if err := r.db.SelectContext(ctx, &results, resultQuery, resultArgs...); err != nil {
		return nil, fmt.Errorf("select session results: %w", err)
	}

	byLesson := make(map[string][]models.SessionScore)
	for _, s := range sessions {
		byLesson[s.LessonID] = append(byLesson[s.LessonID], s)
	}
	byKey := make(map[string]resultRow, len(results))
	for _, res := range results {
		byKey[res.SessionID+"|"+res.StudentID] = res
	}

	for i := range breakdowns {
		b := &breakdowns[i]
		lessonSessions := byLesson[b.LessonID]
		b.Sessions = make([]models.SessionScore, 0, len(lessonSessions))
		for _, s := range lessonSessions {
			if res, ok := byKey[s.SessionID+"|"+b.StudentID]; ok {
				s.Section = res.Section
				s.CorrectCount = res.CorrectCount
				s.TotalScore = res.TotalScore
				s.HasResult = true
			}
			b.Sessions = append(b.Sessions, s)
		}
	}
	return breakdowns, nil
}

func lessonScope(filter models.BreakdownFilter) ([]string, []interface{}) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		conditions = append(conditions, fmt.Sprintf("l.group_id = $%d", len(args)))
	}
	if filter.LessonID != "" {
		args = append(args, filter.LessonID)
		conditions = append(conditions, fmt.Sprintf("l.id = $%d", len(args)))
	}
	if filter.Range != nil {
		start, end := filter.Range.Bounds()
		args = append(args, start, end)
		conditions = append(conditions, fmt.Sprintf("l.lesson_date >= $%d AND l.lesson_date < $%d", len(args)-1, len(args)))
	}
	return conditions, args
}
