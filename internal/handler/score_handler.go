package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
	"github.com/noah-isme/mentor-api/pkg/response"
)

type editParser interface {
	CheckLesson(ctx context.Context, lessonID string) error
	ParseEdits(req dto.SaveScoresRequest) (models.ScoreBatch, error)
}

type pendingWriter interface {
	Submit(lessonID string, batch models.ScoreBatch) error
	Flush(ctx context.Context, lessonID string) error
	Pending(lessonID string) bool
}

// ScoreHandler accepts score edits and hands them to the auto-saver.
type ScoreHandler struct {
	parser  editParser
	pending pendingWriter
}

// NewScoreHandler constructs a score handler.
func NewScoreHandler(parser editParser, pending pendingWriter) *ScoreHandler {
	return &ScoreHandler{parser: parser, pending: pending}
}

// Save godoc
// @Summary Queue score edits for a lesson
// @Description Edits are merged with unsaved ones and written after a quiet period.
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.SaveScoresRequest true "Edits"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id}/scores [put]
func (h *ScoreHandler) Save(c *gin.Context) {
	var req dto.SaveScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lessonID := c.Param("id")
	if err := h.parser.CheckLesson(c.Request.Context(), lessonID); err != nil {
		response.Error(c, err)
		return
	}
	batch, err := h.parser.ParseEdits(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.pending.Submit(lessonID, batch); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"lesson_id": lessonID, "pending": h.pending.Pending(lessonID)})
}

// Flush godoc
// @Summary Write pending score edits of a lesson now
// @Tags Scores
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id}/scores/flush [post]
func (h *ScoreHandler) Flush(c *gin.Context) {
	if err := h.pending.Flush(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
