package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsRepositoryAtRiskCandidates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatisticsRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "first_name", "last_name", "attendance_count", "missed_count", "graded_count", "avg_score", "active"}).
		AddRow("s1", "Ada", "Lovelace", 10, 3, 0, nil, true).
		AddRow("s2", "Alan", "Turing", 4, 0, 4, 55.0, false)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rn <= $1 GROUP BY student_id")).
		WithArgs(100).
		WillReturnRows(rows)

	candidates, err := repo.AtRiskCandidates(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Nil(t, candidates[0].AvgScore)
	assert.Equal(t, 55.0, *candidates[1].AvgScore)
	assert.Equal(t, 3, candidates[0].MissedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsRepositoryDashboard(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatisticsRepository(db)

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AS lessons_today")).
		WithArgs(day, day.AddDate(0, 0, 1), "2024-03-05").
		WillReturnRows(sqlmock.NewRows([]string{"total_students", "active_students", "total_groups", "lessons_today"}).AddRow(12, 9, 3, 2))

	summary, err := repo.Dashboard(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.TotalStudents)
	assert.Equal(t, 2, summary.LessonsToday)
	assert.NoError(t, mock.ExpectationsWereMet())
}
