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

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) (bool, error)
	IsStudentActive(ctx context.Context, studentID string) (bool, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, studentID string) ([]models.Payment, error)
}

// StudentService handles student and payment use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Create registers a student.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	normalizeStudentRequest(&req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student := &models.Student{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		TelegramUsername: req.TelegramUsername,
		ParentName:       req.ParentName,
		ParentPhone:      req.ParentPhone,
		ParentTelegram:   req.ParentTelegram,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, storeError(err, "student not found", "failed to create student")
	}
	return student, nil
}

// Update changes a student's contact details.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	normalizeStudentRequest(&req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student := &models.Student{
		ID:               id,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		TelegramUsername: req.TelegramUsername,
		ParentName:       req.ParentName,
		ParentPhone:      req.ParentPhone,
		ParentTelegram:   req.ParentTelegram,
	}
	ok, err := s.repo.Update(ctx, student)
	if err != nil {
		return nil, storeError(err, "student not found", "failed to update student")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	s.cache.InvalidateStatistics(ctx)
	return s.Get(ctx, id)
}

// IsStudentActive reports whether a payment covers the student today.
func (s *StudentService) IsStudentActive(ctx context.Context, studentID string) (bool, error) {
	active, err := s.repo.IsStudentActive(ctx, studentID)
	if err != nil {
		return false, storeError(err, "student not found", "failed to check payments")
	}
	return active, nil
}

// RecordPayment stores a payment period for a student.
func (s *StudentService) RecordPayment(ctx context.Context, studentID string, req dto.PaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid payment payload")
	}
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	payment := &models.Payment{StudentID: studentID, Amount: req.Amount, PeriodFrom: req.PeriodFrom, PeriodTo: req.PeriodTo}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, storeError(err, "student not found", "failed to record payment")
	}
	s.cache.InvalidateStatistics(ctx)
	return payment, nil
}

// Payments lists a student's payments.
func (s *StudentService) Payments(ctx context.Context, studentID string) ([]models.Payment, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "student not found", "failed to list payments")
	}
	return payments, nil
}

func normalizeStudentRequest(req *dto.StudentRequest) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = trimmedOrNil(req.Phone)
	req.TelegramUsername = trimmedOrNil(req.TelegramUsername)
	req.ParentName = trimmedOrNil(req.ParentName)
	req.ParentPhone = trimmedOrNil(req.ParentPhone)
	req.ParentTelegram = trimmedOrNil(req.ParentTelegram)
}
