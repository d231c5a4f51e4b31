package models

import "time"

// DefaultHomeworkCapacity is used when a lesson is created without an explicit capacity.
const DefaultHomeworkCapacity = 10.0

// Lesson is one meeting of a group.
type Lesson struct {
	ID               string    `db:"id" json:"id"`
	GroupID          string    `db:"group_id" json:"group_id"`
	LessonDate       time.Time `db:"lesson_date" json:"lesson_date"`
	Topic            *string   `db:"topic" json:"topic,omitempty"`
	HomeworkCapacity float64   `db:"homework_capacity" json:"homework_capacity"`
	SessionTopics    *string   `db:"session_topics" json:"session_topics,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// LessonDetail is a lesson with its synchronized roster and computed scores.
type LessonDetail struct {
	Lesson     Lesson               `json:"lesson"`
	Attendance []AttendanceRecord   `json:"attendance"`
	Homework   []HomeworkRecord     `json:"homework"`
	Sessions   []AssessmentSession  `json:"sessions"`
	Scores     []StudentLessonScore `json:"scores"`
}

// AttendanceRecord marks presence of a student at a lesson.
type AttendanceRecord struct {
	ID          string `db:"id" json:"id"`
	LessonID    string `db:"lesson_id" json:"lesson_id"`
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
	Present     bool   `db:"present" json:"present"`
}

// HomeworkRecord holds a homework grade. A nil Score means not yet graded.
type HomeworkRecord struct {
	ID          string   `db:"id" json:"id"`
	LessonID    string   `db:"lesson_id" json:"lesson_id"`
	StudentID   string   `db:"student_id" json:"student_id"`
	StudentName string   `db:"student_name" json:"student_name"`
	Score       *float64 `db:"score" json:"score"`
	Note        *string  `db:"note" json:"note,omitempty"`
}
