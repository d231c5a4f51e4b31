package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-api/internal/models"
)

// activeExpr derives the active flag of student s from payment coverage.
const activeExpr = `EXISTS (SELECT 1 FROM payments p WHERE p.student_id = s.id AND p.payment_to_date >= CURRENT_DATE)`

// StudentRepository manages persistence for students and their payments.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT s.id, s.first_name, s.last_name, s.phone, s.telegram_username, s.parent_name, s.parent_phone, s.parent_telegram, s.created_at,
        ` + activeExpr + ` AS active
        FROM students s WHERE s.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByGroup returns current members of a group ordered by name.
func (r *StudentRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	query := `SELECT s.id, s.first_name, s.last_name, s.phone, s.telegram_username, s.parent_name, s.parent_phone, s.parent_telegram, s.created_at,
        ` + activeExpr + ` AS active
        FROM students s JOIN student_groups sg ON sg.student_id = s.id
        WHERE sg.group_id = $1
        ORDER BY s.last_name ASC, s.first_name ASC, s.id ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return students, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, first_name, last_name, phone, telegram_username, parent_name, parent_phone, parent_telegram, created_at)
        VALUES (:id, :first_name, :last_name, :phone, :telegram_username, :parent_name, :parent_phone, :parent_telegram, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student and reports whether it existed.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) (bool, error) {
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, phone = :phone, telegram_username = :telegram_username,
        parent_name = :parent_name, parent_phone = :parent_phone, parent_telegram = :parent_telegram WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return false, fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update student rows: %w", err)
	}
	return affected > 0, nil
}

// IsStudentActive reports whether any payment covers today or later.
func (r *StudentRepository) IsStudentActive(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM payments WHERE student_id = $1 AND payment_to_date >= CURRENT_DATE)`
	var active bool
	if err := r.db.GetContext(ctx, &active, query, studentID); err != nil {
		return false, fmt.Errorf("check student payments: %w", err)
	}
	return active, nil
}

// CreatePayment records a payment period.
func (r *StudentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, student_id, amount, payment_from_date, payment_to_date, created_at)
        VALUES (:id, :student_id, :amount, :payment_from_date, :payment_to_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// ListPayments returns payments of a student, newest period first.
func (r *StudentRepository) ListPayments(ctx context.Context, studentID string) ([]models.Payment, error) {
	const query = `SELECT id, student_id, amount, payment_from_date, payment_to_date, created_at
        FROM payments WHERE student_id = $1 ORDER BY payment_to_date DESC, created_at DESC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
