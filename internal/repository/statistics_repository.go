package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-api/internal/models"
)

// StatisticsRepository runs cohort-wide aggregate queries.
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository constructs a StatisticsRepository.
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

const atRiskQuery = `WITH recent_attendance AS (
    SELECT a.student_id, a.present,
           ROW_NUMBER() OVER (PARTITION BY a.student_id ORDER BY l.lesson_date DESC, l.id DESC) AS rn
    FROM attendance a JOIN lessons l ON l.id = a.lesson_id
), attendance_window AS (
    SELECT student_id, COUNT(*) AS attendance_count, COUNT(*) FILTER (WHERE NOT present) AS missed_count
    FROM recent_attendance WHERE rn <= $1 GROUP BY student_id
), recent_homework AS (
    SELECT h.student_id, h.score / l.homework_capacity * 100 AS pct,
           ROW_NUMBER() OVER (PARTITION BY h.student_id ORDER BY l.lesson_date DESC, l.id DESC) AS rn
    FROM homeworks h JOIN lessons l ON l.id = h.lesson_id
    WHERE h.score IS NOT NULL AND l.homework_capacity > 0
), homework_window AS (
    SELECT student_id, COUNT(*) AS graded_count, AVG(pct) AS avg_score
    FROM recent_homework WHERE rn <= $1 GROUP BY student_id
)
SELECT s.id AS student_id, s.first_name, s.last_name,
       COALESCE(aw.attendance_count, 0) AS attendance_count,
       COALESCE(aw.missed_count, 0) AS missed_count,
       COALESCE(hw.graded_count, 0) AS graded_count,
       hw.avg_score,
       ` + activeExpr + ` AS active
FROM students s
LEFT JOIN attendance_window aw ON aw.student_id = s.id
LEFT JOIN homework_window hw ON hw.student_id = s.id
WHERE aw.student_id IS NOT NULL OR hw.student_id IS NOT NULL`

// AtRiskCandidates returns per-student aggregates over each student's most
// recent lookback attendance rows and graded homework entries.
func (r *StatisticsRepository) AtRiskCandidates(ctx context.Context, lookback int) ([]models.AtRiskCandidate, error) {
	var rows []models.AtRiskCandidate
	if err := r.db.SelectContext(ctx, &rows, atRiskQuery, lookback); err != nil {
		return nil, fmt.Errorf("select at-risk candidates: %w", err)
	}
	return rows, nil
}

// Dashboard returns headline counters for the day starting at dayStart.
func (r *StatisticsRepository) Dashboard(ctx context.Context, dayStart time.Time) (*models.DashboardSummary, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students) AS total_students,
        (SELECT COUNT(DISTINCT student_id) FROM payments WHERE payment_to_date >= $3::date) AS active_students,
        (SELECT COUNT(*) FROM groups) AS total_groups,
        (SELECT COUNT(*) FROM lessons WHERE lesson_date >= $1 AND lesson_date < $2) AS lessons_today`
	var summary models.DashboardSummary
	if err := r.db.GetContext(ctx, &summary, query, dayStart, dayStart.AddDate(0, 0, 1), dayStart.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("select dashboard summary: %w", err)
	}
	return &summary, nil
}
