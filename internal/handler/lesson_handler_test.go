package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

type fakeLessonSrv struct {
	filter        dto.LessonFilter
	detailGroup   string
	created       dto.CreateLessonRequest
	deletedLesson string
	deletedSess   string
}

func (f *fakeLessonSrv) List(_ context.Context, filter dto.LessonFilter) ([]models.Lesson, *models.Pagination, error) {
	f.filter = filter
	return []models.Lesson{{ID: "l1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (f *fakeLessonSrv) Create(_ context.Context, req dto.CreateLessonRequest) (*models.Lesson, error) {
	f.created = req
	return &models.Lesson{ID: "l2", GroupID: req.GroupID}, nil
}

func (f *fakeLessonSrv) Update(_ context.Context, id string, _ dto.UpdateLessonRequest) (*models.Lesson, error) {
	return &models.Lesson{ID: id}, nil
}

func (f *fakeLessonSrv) Detail(_ context.Context, lessonID, groupID string) (*models.LessonDetail, error) {
	if lessonID == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	f.detailGroup = groupID
	return &models.LessonDetail{Lesson: models.Lesson{ID: lessonID}}, nil
}

func (f *fakeLessonSrv) Delete(_ context.Context, id string) error {
	f.deletedLesson = id
	return nil
}

func (f *fakeLessonSrv) CreateSession(_ context.Context, lessonID string, req dto.CreateSessionRequest) (*models.AssessmentSession, error) {
	return &models.AssessmentSession{ID: "t1", LessonID: lessonID, Kind: models.AssessmentKind(req.Kind)}, nil
}

func (f *fakeLessonSrv) DeleteSession(_ context.Context, id string) error {
	f.deletedSess = id
	return nil
}

func lessonRouter(svc *fakeLessonSrv) http.Handler {
	h := NewLessonHandler(svc)
	r := newTestRouter()
	r.GET("/lessons", h.List)
	r.POST("/lessons", h.Create)
	r.GET("/lessons/:id", h.Get)
	r.DELETE("/lessons/:id", h.Delete)
	r.POST("/lessons/:id/sessions", h.CreateSession)
	r.DELETE("/sessions/:sessionId", h.DeleteSession)
	return r
}

func TestLessonHandlerListParsesFilter(t *testing.T) {
	svc := &fakeLessonSrv{}
	rec := perform(t, lessonRouter(svc), http.MethodGet, "/lessons?group_id=g1&from=2024-03-01&page=2&limit=10", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "g1", svc.filter.GroupID)
	require.NotNil(t, svc.filter.From)
	assert.Equal(t, time.March, svc.filter.From.Month())
	assert.Nil(t, svc.filter.To)
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 10, svc.filter.PageSize)
}

func TestLessonHandlerListRejectsBadDate(t *testing.T) {
	rec := perform(t, lessonRouter(&fakeLessonSrv{}), http.MethodGet, "/lessons?group_id=g1&to=01-03-2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLessonHandlerCreate(t *testing.T) {
	svc := &fakeLessonSrv{}
	rec := perform(t, lessonRouter(svc), http.MethodPost, "/lessons", map[string]interface{}{
		"group_id":    "g1",
		"lesson_date": "2024-03-01T16:00:00Z",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "g1", svc.created.GroupID)
}

func TestLessonHandlerDetail(t *testing.T) {
	svc := &fakeLessonSrv{}
	r := lessonRouter(svc)

	rec := perform(t, r, http.MethodGet, "/lessons/l1?group_id=g7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "g7", svc.detailGroup)

	rec = perform(t, r, http.MethodGet, "/lessons/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLessonHandlerSessions(t *testing.T) {
	svc := &fakeLessonSrv{}
	r := lessonRouter(svc)

	rec := perform(t, r, http.MethodPost, "/lessons/l1/sessions", dto.CreateSessionRequest{Kind: "TEST"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = perform(t, r, http.MethodDelete, "/sessions/t1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "t1", svc.deletedSess)

	rec = perform(t, r, http.MethodDelete, "/lessons/l1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "l1", svc.deletedLesson)
}
