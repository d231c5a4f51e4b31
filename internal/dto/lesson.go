package dto

import "time"

// CreateLessonRequest defines payload for scheduling a lesson.
type CreateLessonRequest struct {
	GroupID          string    `json:"group_id" validate:"required"`
	LessonDate       time.Time `json:"lesson_date" validate:"required"`
	Topic            *string   `json:"topic" validate:"omitempty,max=500"`
	HomeworkCapacity *float64  `json:"homework_capacity" validate:"omitempty,gte=0"`
}

// UpdateLessonRequest changes lesson header fields. Nil fields are kept.
type UpdateLessonRequest struct {
	LessonDate       *time.Time `json:"lesson_date"`
	Topic            *string    `json:"topic" validate:"omitempty,max=500"`
	HomeworkCapacity *float64   `json:"homework_capacity" validate:"omitempty,gte=0"`
}

// CreateSessionRequest attaches an assessment session to a lesson.
type CreateSessionRequest struct {
	Kind             string   `json:"kind" validate:"required,oneof=TEST QUESTION"`
	Topic            *string  `json:"topic" validate:"omitempty,max=500"`
	PointPerCorrect  *float64 `json:"point_per_correct" validate:"omitempty,gte=0"`
	QuestionCapacity *int     `json:"question_capacity" validate:"omitempty,gte=0"`
}

// LessonFilter narrows lesson listings.
type LessonFilter struct {
	GroupID  string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
