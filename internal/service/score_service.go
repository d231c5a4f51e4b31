package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

type scoreRepository interface {
	Save(ctx context.Context, lessonID string, batch models.ScoreBatch) error
}

type lessonFinder interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
}

// ScoreService validates and persists score edits of a lesson.
type ScoreService struct {
	repo      scoreRepository
	lessons   lessonFinder
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs the score service.
func NewScoreService(repo scoreRepository, lessons lessonFinder, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{repo: repo, lessons: lessons, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// CheckLesson reports NotFound for an unknown lesson so edits are never
// queued against it.
func (s *ScoreService) CheckLesson(ctx context.Context, lessonID string) error {
	if s.lessons == nil {
		return nil
	}
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		return storeError(err, "lesson not found", "failed to load lesson")
	}
	return nil
}

// ParseEdits validates a request and converts it into a batch. Any malformed
// edit rejects the whole request.
func (s *ScoreService) ParseEdits(req dto.SaveScoresRequest) (models.ScoreBatch, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ScoreBatch{}, validationError(err, "invalid score edits")
	}
	batch := models.NewScoreBatch()
	for _, edit := range req.Attendance {
		batch.Attendance[edit.ID] = edit.Present
	}
	for _, edit := range req.Homework {
		hw := models.HomeworkEdit{Note: edit.Note}
		if edit.Score != nil {
			score, err := parseScore(*edit.Score)
			if err != nil {
				return models.ScoreBatch{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("homework %s: %v", edit.ID, err))
			}
			hw.Score = score
			hw.ScoreSet = true
		}
		batch.Homework[edit.ID] = hw
	}
	for _, edit := range req.Sessions {
		batch.Sessions[edit.ID] = models.SessionEdit{
			Topic:            edit.Topic,
			PointPerCorrect:  edit.PointPerCorrect,
			QuestionCapacity: edit.QuestionCapacity,
		}
	}
	for _, edit := range req.Results {
		res := models.ResultEdit{Section: edit.Section}
		if edit.CorrectCount != nil {
			count, err := parseCount(*edit.CorrectCount)
			if err != nil {
				return models.ScoreBatch{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("result %s: %v", edit.ID, err))
			}
			res.CorrectCount = &count
		}
		batch.Results[edit.ID] = res
	}
	return batch, nil
}

// Save writes a batch for one lesson in a single transaction.
func (s *ScoreService) Save(ctx context.Context, lessonID string, batch models.ScoreBatch) error {
	if batch.Empty() {
		return nil
	}
	start := time.Now()
	err := s.repo.Save(ctx, lessonID, batch)
	s.metrics.ObserveDBQuery("save_lesson_scores", time.Since(start))
	if err != nil {
		return storeError(err, "lesson or score record not found", "failed to save lesson scores")
	}
	s.cache.InvalidateStatistics(ctx)
	return nil
}

// parseScore accepts decimal text with either '.' or ',' as separator. Empty
// text clears the grade.
func parseScore(raw string) (*float64, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("score %q is not a number", raw)
	}
	if value < 0 {
		return nil, fmt.Errorf("score %q must not be negative", raw)
	}
	return &value, nil
}

// parseCount accepts a non-negative integer. Empty text means zero.
func parseCount(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("correct count %q is not a whole number", raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("correct count %q must not be negative", raw)
	}
	return value, nil
}
