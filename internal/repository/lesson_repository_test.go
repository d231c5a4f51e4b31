package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
)

func TestLessonRepositoryDeleteCascadesInOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assessment_results WHERE session_id IN")).WithArgs("l1").WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assessment_sessions WHERE lesson_id = $1")).WithArgs("l1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE lesson_id = $1")).WithArgs("l1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM homeworks WHERE lesson_id = $1")).WithArgs("l1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE id = $1")).WithArgs("l1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), "l1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryDeleteRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assessment_results")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assessment_sessions")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), "l1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete lesson sessions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateSessionMaterializesResults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assessment_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("FROM student_groups sg WHERE sg.group_id = $2")).
		WithArgs(sqlmock.AnyArg(), "g1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	session := &models.AssessmentSession{LessonID: "l1", Kind: models.AssessmentKindTest, PointPerCorrect: models.DefaultPointPerCorrect}
	require.NoError(t, repo.CreateSession(context.Background(), session, "g1"))
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryDeleteSession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assessment_results WHERE session_id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assessment_sessions WHERE id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	deleted, err := repo.DeleteSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListByGroup(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLessonRepository(db)

	digest := "Fractions, Decimals"
	rows := sqlmock.NewRows([]string{"id", "group_id", "lesson_date", "topic", "homework_capacity", "created_at", "session_topics"}).
		AddRow("l2", "g1", time.Now(), nil, 10.0, time.Now(), digest)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lessons l WHERE l.group_id = $1 ORDER BY l.lesson_date DESC, l.id DESC LIMIT 50 OFFSET 0")).
		WithArgs("g1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lessons l WHERE l.group_id = $1")).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	lessons, total, err := repo.List(context.Background(), dto.LessonFilter{GroupID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, lessons, 1)
	assert.Equal(t, digest, *lessons[0].SessionTopics)
	assert.NoError(t, mock.ExpectationsWereMet())
}
