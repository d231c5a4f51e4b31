package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

type lessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	List(ctx context.Context, filter dto.LessonFilter) ([]models.Lesson, int, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	CreateSession(ctx context.Context, session *models.AssessmentSession, groupID string) error
	FindSession(ctx context.Context, id string) (*models.AssessmentSession, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
	ListSessions(ctx context.Context, lessonID string) ([]models.AssessmentSession, error)
	ListAttendance(ctx context.Context, lessonID string) ([]models.AttendanceRecord, error)
	ListHomework(ctx context.Context, lessonID string) ([]models.HomeworkRecord, error)
	ListResults(ctx context.Context, lessonID string) ([]models.AssessmentResult, error)
}

type groupFinder interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type breakdownReader interface {
	Breakdowns(ctx context.Context, filter models.BreakdownFilter) ([]models.LessonBreakdown, error)
}

// pendingEdits is the view of the auto-save buffer the lifecycle needs.
type pendingEdits interface {
	Flush(ctx context.Context, lessonID string) error
	Discard(lessonID string)
}

// LessonService manages lessons and sessions through their whole lifecycle.
type LessonService struct {
	lessons   lessonRepository
	groups    groupFinder
	roster    *RosterService
	scores    breakdownReader
	pending   pendingEdits
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs the lesson service. pending may be nil.
func NewLessonService(lessons lessonRepository, groups groupFinder, roster *RosterService, scores breakdownReader, pending pendingEdits, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{lessons: lessons, groups: groups, roster: roster, scores: scores, pending: pending, cache: cache, validator: validate, logger: logger}
}

// List returns lessons of a group with pagination metadata.
func (s *LessonService) List(ctx context.Context, filter dto.LessonFilter) ([]models.Lesson, *models.Pagination, error) {
	if strings.TrimSpace(filter.GroupID) == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "group_id is required")
	}
	lessons, total, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "lessons not found", "failed to list lessons")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return lessons, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create schedules a lesson for a group and materializes its roster.
func (s *LessonService) Create(ctx context.Context, req dto.CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lesson payload")
	}
	if _, err := s.groups.FindByID(ctx, req.GroupID); err != nil {
		return nil, storeError(err, "group not found", "failed to load group")
	}
	lesson := &models.Lesson{
		GroupID:          req.GroupID,
		LessonDate:       req.LessonDate,
		Topic:            trimmedOrNil(req.Topic),
		HomeworkCapacity: models.DefaultHomeworkCapacity,
	}
	if req.HomeworkCapacity != nil {
		lesson.HomeworkCapacity = *req.HomeworkCapacity
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, storeError(err, "lesson not found", "failed to create lesson")
	}
	if _, err := s.roster.Sync(ctx, lesson.ID, lesson.GroupID); err != nil {
		return nil, err
	}
	s.cache.InvalidateStatistics(ctx)
	s.logger.Info("lesson created", zap.String("lesson_id", lesson.ID), zap.String("group_id", lesson.GroupID))
	return lesson, nil
}

// Update changes lesson header fields.
func (s *LessonService) Update(ctx context.Context, id string, req dto.UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lesson payload")
	}
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "lesson not found", "failed to load lesson")
	}
	if req.LessonDate != nil {
		lesson.LessonDate = *req.LessonDate
	}
	if req.Topic != nil {
		lesson.Topic = trimmedOrNil(req.Topic)
	}
	if req.HomeworkCapacity != nil {
		lesson.HomeworkCapacity = *req.HomeworkCapacity
	}
	ok, err := s.lessons.Update(ctx, lesson)
	if err != nil {
		return nil, storeError(err, "lesson not found", "failed to update lesson")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	s.cache.InvalidateStatistics(ctx)
	return lesson, nil
}

// Detail synchronizes the roster and returns the lesson with its rows and
// computed scores. A non-empty groupID must name the lesson's own group.
func (s *LessonService) Detail(ctx context.Context, lessonID, groupID string) (*models.LessonDetail, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, storeError(err, "lesson not found", "failed to load lesson")
	}
	if groupID != "" && groupID != lesson.GroupID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson does not belong to group "+groupID)
	}
	if _, err := s.roster.Sync(ctx, lesson.ID, lesson.GroupID); err != nil {
		return nil, err
	}

	detail := &models.LessonDetail{Lesson: *lesson}
	if detail.Attendance, err = s.lessons.ListAttendance(ctx, lesson.ID); err != nil {
		return nil, storeError(err, "lesson not found", "failed to load attendance")
	}
	if detail.Homework, err = s.lessons.ListHomework(ctx, lesson.ID); err != nil {
		return nil, storeError(err, "lesson not found", "failed to load homework")
	}
	if detail.Sessions, err = s.lessons.ListSessions(ctx, lesson.ID); err != nil {
		return nil, storeError(err, "lesson not found", "failed to load sessions")
	}
	results, err := s.lessons.ListResults(ctx, lesson.ID)
	if err != nil {
		return nil, storeError(err, "lesson not found", "failed to load results")
	}
	bySession := make(map[string][]models.AssessmentResult, len(detail.Sessions))
	for _, r := range results {
		bySession[r.SessionID] = append(bySession[r.SessionID], r)
	}
	for i := range detail.Sessions {
		detail.Sessions[i].Results = bySession[detail.Sessions[i].ID]
	}

	breakdowns, err := s.scores.Breakdowns(ctx, models.BreakdownFilter{LessonID: lesson.ID})
	if err != nil {
		return nil, storeError(err, "lesson not found", "failed to compute lesson scores")
	}
	detail.Scores = make([]models.StudentLessonScore, 0, len(breakdowns))
	for _, b := range breakdowns {
		detail.Scores = append(detail.Scores, LessonScore(b))
	}
	return detail, nil
}

// Delete removes a lesson and all rows attached to it.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if s.pending != nil {
		s.pending.Discard(id)
	}
	ok, err := s.lessons.Delete(ctx, id)
	if err != nil {
		return storeError(err, "lesson not found", "failed to delete lesson")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	s.cache.InvalidateStatistics(ctx)
	s.logger.Info("lesson deleted", zap.String("lesson_id", id))
	return nil
}

// CreateSession attaches a test or question session to a lesson and
// materializes a blank result for every current member.
func (s *LessonService) CreateSession(ctx context.Context, lessonID string, req dto.CreateSessionRequest) (*models.AssessmentSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid session payload")
	}
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, storeError(err, "lesson not found", "failed to load lesson")
	}
	session := &models.AssessmentSession{
		LessonID:        lesson.ID,
		Kind:            models.AssessmentKind(req.Kind),
		Topic:           trimmedOrNil(req.Topic),
		PointPerCorrect: models.DefaultPointPerCorrect,
		CreatedAt:       time.Now().UTC(),
	}
	if req.PointPerCorrect != nil {
		session.PointPerCorrect = *req.PointPerCorrect
	}
	if req.QuestionCapacity != nil {
		session.QuestionCapacity = *req.QuestionCapacity
	}
	if err := s.lessons.CreateSession(ctx, session, lesson.GroupID); err != nil {
		return nil, storeError(err, "lesson not found", "failed to create session")
	}
	s.cache.InvalidateStatistics(ctx)
	return session, nil
}

// DeleteSession removes a session and its results. Unsaved edits of the
// lesson are written first so they do not target removed rows.
func (s *LessonService) DeleteSession(ctx context.Context, id string) error {
	session, err := s.lessons.FindSession(ctx, id)
	if err != nil {
		return storeError(err, "session not found", "failed to load session")
	}
	if s.pending != nil {
		if err := s.pending.Flush(ctx, session.LessonID); err != nil {
			return err
		}
	}
	ok, err := s.lessons.DeleteSession(ctx, id)
	if err != nil {
		return storeError(err, "session not found", "failed to delete session")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	s.cache.InvalidateStatistics(ctx)
	return nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
