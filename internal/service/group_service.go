package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Rename(ctx context.Context, id, name string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	AddMember(ctx context.Context, groupID, studentID string) error
	RemoveMember(ctx context.Context, groupID, studentID string) (bool, error)
}

// GroupService handles group and membership use-cases.
type GroupService struct {
	repo      groupRepository
	students  studentFinder
	members   memberLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(repo groupRepository, students studentFinder, members memberLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, students: students, members: members, cache: cache, validator: validate, logger: logger}
}

// List returns groups, optionally filtered by a name fragment.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, error) {
	groups, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "groups not found", "failed to list groups")
	}
	return groups, nil
}

// Get returns a group by ID.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "group not found", "failed to load group")
	}
	return group, nil
}

// Create registers a new group.
func (s *GroupService) Create(ctx context.Context, req dto.GroupRequest) (*models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}
	group := &models.Group{Name: req.Name}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, storeError(err, "group not found", "failed to create group")
	}
	s.cache.InvalidateStatistics(ctx)
	return group, nil
}

// Rename changes a group's name.
func (s *GroupService) Rename(ctx context.Context, id string, req dto.GroupRequest) (*models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}
	ok, err := s.repo.Rename(ctx, id, req.Name)
	if err != nil {
		return nil, storeError(err, "group not found", "failed to rename group")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	s.cache.InvalidateStatistics(ctx)
	return s.Get(ctx, id)
}

// Delete removes a group and its memberships. Lessons of the group are kept.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeError(err, "group not found", "failed to delete group")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	s.cache.InvalidateStatistics(ctx)
	s.logger.Info("group deleted", zap.String("group_id", id))
	return nil
}

// Members lists the current members of a group.
func (s *GroupService) Members(ctx context.Context, groupID string) ([]models.Student, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	students, err := s.members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(err, "group not found", "failed to list group members")
	}
	return students, nil
}

// AddMember links a student to a group. Adding an existing member is a no-op.
func (s *GroupService) AddMember(ctx context.Context, groupID string, req dto.GroupMemberRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid member payload")
	}
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return storeError(err, "student not found", "failed to load student")
	}
	if err := s.repo.AddMember(ctx, groupID, req.StudentID); err != nil {
		return storeError(err, "group not found", "failed to add group member")
	}
	s.cache.InvalidateStatistics(ctx)
	return nil
}

// RemoveMember unlinks a student from a group.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, studentID string) error {
	ok, err := s.repo.RemoveMember(ctx, groupID, studentID)
	if err != nil {
		return storeError(err, "membership not found", "failed to remove group member")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "membership not found")
	}
	s.cache.InvalidateStatistics(ctx)
	return nil
}
