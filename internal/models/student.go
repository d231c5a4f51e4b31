package models

import (
	"strings"
	"time"
)

// Student represents a learner registered at the center. Active is derived
// from payment coverage and never written by this service.
type Student struct {
	ID               string    `db:"id" json:"id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	Phone            *string   `db:"phone" json:"phone,omitempty"`
	TelegramUsername *string   `db:"telegram_username" json:"telegram_username,omitempty"`
	ParentName       *string   `db:"parent_name" json:"parent_name,omitempty"`
	ParentPhone      *string   `db:"parent_phone" json:"parent_phone,omitempty"`
	ParentTelegram   *string   `db:"parent_telegram" json:"parent_telegram,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// FullName joins the name parts.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Membership links a student to a group.
type Membership struct {
	StudentID string `db:"student_id" json:"student_id"`
	GroupID   string `db:"group_id" json:"group_id"`
}

// Payment covers a student for a period of days.
type Payment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	Amount     float64   `db:"amount" json:"amount"`
	PeriodFrom time.Time `db:"payment_from_date" json:"payment_from_date"`
	PeriodTo   time.Time `db:"payment_to_date" json:"payment_to_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
