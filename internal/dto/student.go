package dto

import "time"

// StudentRequest defines payload for creating or updating students.
type StudentRequest struct {
	FirstName        string  `json:"first_name" validate:"required,max=100"`
	LastName         string  `json:"last_name" validate:"required,max=100"`
	Phone            *string `json:"phone" validate:"omitempty,max=32"`
	TelegramUsername *string `json:"telegram_username" validate:"omitempty,max=64"`
	ParentName       *string `json:"parent_name" validate:"omitempty,max=200"`
	ParentPhone      *string `json:"parent_phone" validate:"omitempty,max=32"`
	ParentTelegram   *string `json:"parent_telegram" validate:"omitempty,max=64"`
}

// PaymentRequest records a payment covering a period of days.
type PaymentRequest struct {
	Amount     float64   `json:"amount" validate:"gte=0"`
	PeriodFrom time.Time `json:"payment_from_date" validate:"required"`
	PeriodTo   time.Time `json:"payment_to_date" validate:"required,gtefield=PeriodFrom"`
}
