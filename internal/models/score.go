package models

import "time"

// ScorePair is an earned/possible total for one student in one lesson.
type ScorePair struct {
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
}

// SessionScore carries one session together with a single student's result in it.
type SessionScore struct {
	SessionID        string         `db:"session_id" json:"session_id"`
	LessonID         string         `db:"lesson_id" json:"lesson_id"`
	Kind             AssessmentKind `db:"kind" json:"kind"`
	Topic            *string        `db:"topic" json:"topic,omitempty"`
	PointPerCorrect  float64        `db:"point_per_correct" json:"point_per_correct"`
	QuestionCapacity int            `db:"question_capacity" json:"question_capacity"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	Section          string         `json:"section"`
	CorrectCount     int            `json:"correct_count"`
	TotalScore       float64        `json:"total_score"`
	HasResult        bool           `json:"-"`
}

// LessonBreakdown is everything needed to score and report one student in one lesson.
type LessonBreakdown struct {
	StudentID        string         `db:"student_id" json:"student_id"`
	FirstName        string         `db:"first_name" json:"-"`
	LastName         string         `db:"last_name" json:"-"`
	LessonID         string         `db:"lesson_id" json:"lesson_id"`
	GroupID          string         `db:"group_id" json:"group_id"`
	LessonDate       time.Time      `db:"lesson_date" json:"lesson_date"`
	LessonTopic      *string        `db:"lesson_topic" json:"lesson_topic,omitempty"`
	HomeworkCapacity float64        `db:"homework_capacity" json:"homework_capacity"`
	Present          bool           `db:"present" json:"present"`
	HomeworkScore    *float64       `db:"homework_score" json:"homework_score"`
	Sessions         []SessionScore `db:"-" json:"sessions"`
}

// BreakdownFilter scopes a breakdown query. Empty fields are not applied.
type BreakdownFilter struct {
	GroupID   string
	StudentID string
	LessonID  string
	Range     *DateRange
}

// StudentLessonScore is the computed score of a student in a lesson.
type StudentLessonScore struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Present     bool    `json:"present"`
	Earned      float64 `json:"earned"`
	Possible    float64 `json:"possible"`
	Percentage  float64 `json:"percentage"`
}
