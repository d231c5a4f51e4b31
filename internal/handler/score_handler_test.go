package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	"github.com/noah-isme/mentor-api/internal/service"
)

type fakePendingWriter struct {
	submitted map[string]models.ScoreBatch
	flushed   []string
	submitErr error
}

func (f *fakePendingWriter) Submit(lessonID string, batch models.ScoreBatch) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	if f.submitted == nil {
		f.submitted = map[string]models.ScoreBatch{}
	}
	f.submitted[lessonID] = batch
	return nil
}

func (f *fakePendingWriter) Flush(_ context.Context, lessonID string) error {
	f.flushed = append(f.flushed, lessonID)
	return nil
}

func (f *fakePendingWriter) Pending(lessonID string) bool {
	_, ok := f.submitted[lessonID]
	return ok
}

type fakeLessonFinder map[string]models.Lesson

func (f fakeLessonFinder) FindByID(_ context.Context, id string) (*models.Lesson, error) {
	l, ok := f[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func scoreRouter(pending *fakePendingWriter) http.Handler {
	lessons := fakeLessonFinder{"l1": {ID: "l1", GroupID: "g1"}}
	h := NewScoreHandler(service.NewScoreService(nil, lessons, nil, nil, nil, nil), pending)
	r := newTestRouter()
	r.PUT("/lessons/:id/scores", h.Save)
	r.POST("/lessons/:id/scores/flush", h.Flush)
	return r
}

func TestScoreHandlerSaveQueuesEdits(t *testing.T) {
	pending := &fakePendingWriter{}
	r := scoreRouter(pending)

	score := "7,5"
	rec := perform(t, r, http.MethodPut, "/lessons/l1/scores", dto.SaveScoresRequest{
		Attendance: []dto.AttendanceEdit{{ID: "a1", Present: true}},
		Homework:   []dto.HomeworkEdit{{ID: "h1", Score: &score}},
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	batch, ok := pending.submitted["l1"]
	require.True(t, ok)
	assert.True(t, batch.Attendance["a1"])
	require.NotNil(t, batch.Homework["h1"].Score)
	assert.Equal(t, 7.5, *batch.Homework["h1"].Score)
}

func TestScoreHandlerSaveUnknownLesson(t *testing.T) {
	pending := &fakePendingWriter{}
	r := scoreRouter(pending)

	rec := perform(t, r, http.MethodPut, "/lessons/missing/scores", dto.SaveScoresRequest{
		Attendance: []dto.AttendanceEdit{{ID: "a1", Present: true}},
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Empty(t, pending.submitted)
}

func TestScoreHandlerRejectsNegativeScore(t *testing.T) {
	pending := &fakePendingWriter{}
	r := scoreRouter(pending)

	score := "-1"
	rec := perform(t, r, http.MethodPut, "/lessons/l1/scores", dto.SaveScoresRequest{
		Homework: []dto.HomeworkEdit{{ID: "h1", Score: &score}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pending.submitted)
}

func TestScoreHandlerSaveAfterShutdown(t *testing.T) {
	r := scoreRouter(&fakePendingWriter{submitErr: service.ErrAutoSaveClosed})

	rec := perform(t, r, http.MethodPut, "/lessons/l1/scores", dto.SaveScoresRequest{
		Attendance: []dto.AttendanceEdit{{ID: "a1"}},
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScoreHandlerFlush(t *testing.T) {
	pending := &fakePendingWriter{}
	r := scoreRouter(pending)

	rec := perform(t, r, http.MethodPost, "/lessons/l1/scores/flush", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"l1"}, pending.flushed)
}
