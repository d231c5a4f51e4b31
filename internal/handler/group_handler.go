package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
	"github.com/noah-isme/mentor-api/pkg/response"
)

type groupService interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, error)
	Get(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, req dto.GroupRequest) (*models.Group, error)
	Rename(ctx context.Context, id string, req dto.GroupRequest) (*models.Group, error)
	Delete(ctx context.Context, id string) error
	Members(ctx context.Context, groupID string) ([]models.Student, error)
	AddMember(ctx context.Context, groupID string, req dto.GroupMemberRequest) error
	RemoveMember(ctx context.Context, groupID, studentID string) error
}

// GroupHandler exposes group and membership endpoints.
type GroupHandler struct {
	service groupService
}

// NewGroupHandler constructs a group handler.
func NewGroupHandler(svc groupService) *GroupHandler {
	return &GroupHandler{service: svc}
}

// List godoc
// @Summary List groups
// @Tags Groups
// @Produce json
// @Param search query string false "Search keyword"
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context(), models.GroupFilter{Search: strings.TrimSpace(c.Query("search"))})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get godoc
// @Summary Get group
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body dto.GroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Rename godoc
// @Summary Rename group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.GroupRequest true "Group payload"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [put]
func (h *GroupHandler) Rename(c *gin.Context) {
	var req dto.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.service.Rename(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Delete group
// @Tags Groups
// @Param id path string true "Group ID"
// @Success 204
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Members godoc
// @Summary List group members
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/students [get]
func (h *GroupHandler) Members(c *gin.Context) {
	students, err := h.service.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// AddMember godoc
// @Summary Add student to group
// @Tags Groups
// @Accept json
// @Param id path string true "Group ID"
// @Param payload body dto.GroupMemberRequest true "Member payload"
// @Success 204
// @Router /groups/{id}/students [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	var req dto.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.AddMember(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Remove student from group
// @Tags Groups
// @Param id path string true "Group ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /groups/{id}/students/{studentId} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.service.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
