package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	"github.com/noah-isme/mentor-api/internal/service"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
	"github.com/noah-isme/mentor-api/pkg/response"
)

type rangeResolver interface {
	ResolveRange(from, to string) (models.DateRange, error)
}

type reportService interface {
	rangeResolver
	StudentReport(ctx context.Context, studentID, groupID string, rng models.DateRange) (*models.StudentReport, error)
	Export(ctx context.Context, studentID, groupID string, rng models.DateRange, format string) (*service.ExportFile, error)
}

// ReportHandler exposes student progress reports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// StudentReport godoc
// @Summary Student progress report
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Param group_id query string true "Group ID"
// @Param from query string false "From date (YYYY-MM-DD), defaults to one year back"
// @Param to query string false "To date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{id} [get]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	query, rng, ok := h.bind(c)
	if !ok {
		return
	}
	report, err := h.service.StudentReport(c.Request.Context(), c.Param("id"), query.GroupID, rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download student progress report
// @Tags Reports
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Student ID"
// @Param group_id query string true "Group ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param format query string false "pdf or csv" Enums(pdf, csv)
// @Success 200 {file} file
// @Router /reports/students/{id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	query, rng, ok := h.bind(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), query.GroupID, rng, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Data)
}

func (h *ReportHandler) bind(c *gin.Context) (dto.ReportQuery, models.DateRange, bool) {
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return query, models.DateRange{}, false
	}
	if query.GroupID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "group_id is required"))
		return query, models.DateRange{}, false
	}
	rng, err := h.service.ResolveRange(query.From, query.To)
	if err != nil {
		response.Error(c, err)
		return query, models.DateRange{}, false
	}
	return query, rng, true
}
