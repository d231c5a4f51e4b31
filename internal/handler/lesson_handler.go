package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
	"github.com/noah-isme/mentor-api/pkg/response"
)

const queryDateLayout = "2006-01-02"

type lessonService interface {
	List(ctx context.Context, filter dto.LessonFilter) ([]models.Lesson, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateLessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, id string, req dto.UpdateLessonRequest) (*models.Lesson, error)
	Detail(ctx context.Context, lessonID, groupID string) (*models.LessonDetail, error)
	Delete(ctx context.Context, id string) error
	CreateSession(ctx context.Context, lessonID string, req dto.CreateSessionRequest) (*models.AssessmentSession, error)
	DeleteSession(ctx context.Context, id string) error
}

// LessonHandler exposes lesson lifecycle endpoints.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler constructs a lesson handler.
func NewLessonHandler(svc lessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// List godoc
// @Summary List lessons of a group
// @Tags Lessons
// @Produce json
// @Param group_id query string true "Group ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	filter := dto.LessonFilter{GroupID: strings.TrimSpace(c.Query("group_id"))}
	var err error
	if filter.From, err = optionalDate(c.Query("from")); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be formatted as YYYY-MM-DD"))
		return
	}
	if filter.To, err = optionalDate(c.Query("to")); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be formatted as YYYY-MM-DD"))
		return
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	lessons, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, pagination)
}

// Create godoc
// @Summary Schedule a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Get godoc
// @Summary Lesson detail with synchronized roster and scores
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Param group_id query string false "Group ID, must match the lesson's group"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), c.Param("id"), strings.TrimSpace(c.Query("group_id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Update lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.UpdateLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req dto.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Delete godoc
// @Summary Delete lesson with its attendance, homework and sessions
// @Tags Lessons
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateSession godoc
// @Summary Add a test or question session
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /lessons/{id}/sessions [post]
func (h *LessonHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.service.CreateSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// DeleteSession godoc
// @Summary Delete a session and its results
// @Tags Lessons
// @Param sessionId path string true "Session ID"
// @Success 204
// @Router /sessions/{sessionId} [delete]
func (h *LessonHandler) DeleteSession(c *gin.Context) {
	if err := h.service.DeleteSession(c.Request.Context(), c.Param("sessionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func optionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
