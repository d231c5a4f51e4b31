package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/middleware"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
	"github.com/noah-isme/mentor-api/pkg/response"
)

type statisticsService interface {
	GroupStatistics(ctx context.Context) ([]models.GroupStatistics, bool, error)
	StudentStatistics(ctx context.Context, groupID string, rng models.DateRange) ([]models.StudentStatistics, error)
	LessonStatistics(ctx context.Context, groupID string, rng models.DateRange) ([]models.LessonStatistic, error)
	Dashboard(ctx context.Context) (*models.DashboardSummary, error)
}

type atRiskService interface {
	Students(ctx context.Context) (*models.AtRiskReport, bool, error)
}

// StatisticsHandler serves derived statistics, rankings and at-risk lists.
type StatisticsHandler struct {
	stats  statisticsService
	atRisk atRiskService
	ranges rangeResolver
}

// NewStatisticsHandler constructs the handler.
func NewStatisticsHandler(stats statisticsService, atRisk atRiskService, ranges rangeResolver) *StatisticsHandler {
	return &StatisticsHandler{stats: stats, atRisk: atRisk, ranges: ranges}
}

// Groups godoc
// @Summary Per-group statistics
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups/statistics [get]
func (h *StatisticsHandler) Groups(c *gin.Context) {
	start := time.Now()
	stats, cacheHit, err := h.stats.GroupStatistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, stats, cacheHit, start)
}

// Students godoc
// @Summary Ranked student statistics of a group
// @Tags Statistics
// @Produce json
// @Param id path string true "Group ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/students/statistics [get]
func (h *StatisticsHandler) Students(c *gin.Context) {
	rng, ok := h.resolveRange(c)
	if !ok {
		return
	}
	stats, err := h.stats.StudentStatistics(c.Request.Context(), c.Param("id"), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Lessons godoc
// @Summary Per-lesson statistics of a group
// @Tags Statistics
// @Produce json
// @Param id path string true "Group ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/lessons/statistics [get]
func (h *StatisticsHandler) Lessons(c *gin.Context) {
	rng, ok := h.resolveRange(c)
	if !ok {
		return
	}
	stats, err := h.stats.LessonStatistics(c.Request.Context(), c.Param("id"), rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Dashboard godoc
// @Summary Center-wide counters
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	summary, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// AtRisk godoc
// @Summary Students flagged by missed lessons or low homework scores
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/at-risk [get]
func (h *StatisticsHandler) AtRisk(c *gin.Context) {
	if h.atRisk == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "at-risk detection not configured"))
		return
	}
	start := time.Now()
	report, cacheHit, err := h.atRisk.Students(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, report, cacheHit, start)
}

func (h *StatisticsHandler) resolveRange(c *gin.Context) (models.DateRange, bool) {
	var query dto.StatisticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return models.DateRange{}, false
	}
	rng, err := h.ranges.ResolveRange(query.From, query.To)
	if err != nil {
		response.Error(c, err)
		return models.DateRange{}, false
	}
	return rng, true
}

func respondWithMeta(c *gin.Context, data interface{}, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
