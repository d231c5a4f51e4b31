package models

import "time"

// AssessmentKind distinguishes the two session variants.
type AssessmentKind string

const (
	AssessmentKindTest     AssessmentKind = "TEST"
	AssessmentKindQuestion AssessmentKind = "QUESTION"
)

// DefaultPointPerCorrect is the point value assigned to new sessions.
const DefaultPointPerCorrect = 2.0

// Valid returns true when the kind is supported.
func (k AssessmentKind) Valid() bool {
	return k == AssessmentKindTest || k == AssessmentKindQuestion
}

// Label is the human readable name of the kind.
func (k AssessmentKind) Label() string {
	switch k {
	case AssessmentKindTest:
		return "Test"
	case AssessmentKindQuestion:
		return "Question"
	default:
		return string(k)
	}
}

// AssessmentSession is a scored activity attached to a lesson.
type AssessmentSession struct {
	ID               string             `db:"id" json:"id"`
	LessonID         string             `db:"lesson_id" json:"lesson_id"`
	Kind             AssessmentKind     `db:"kind" json:"kind"`
	Topic            *string            `db:"topic" json:"topic,omitempty"`
	PointPerCorrect  float64            `db:"point_per_correct" json:"point_per_correct"`
	QuestionCapacity int                `db:"question_capacity" json:"question_capacity"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	Results          []AssessmentResult `db:"-" json:"results,omitempty"`
}

// AssessmentResult is one student's outcome in a session.
type AssessmentResult struct {
	ID           string  `db:"id" json:"id"`
	SessionID    string  `db:"session_id" json:"session_id"`
	StudentID    string  `db:"student_id" json:"student_id"`
	StudentName  string  `db:"student_name" json:"student_name"`
	Section      string  `db:"section" json:"section"`
	CorrectCount int     `db:"correct_count" json:"correct_count"`
	TotalScore   float64 `db:"total_score" json:"total_score"`
}

// ResultTotal is the stored total for a result row.
func ResultTotal(correctCount int, pointPerCorrect float64) float64 {
	return float64(correctCount) * pointPerCorrect
}
