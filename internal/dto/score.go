package dto

// AttendanceEdit toggles presence for one attendance record.
type AttendanceEdit struct {
	ID      string `json:"id" validate:"required"`
	Present bool   `json:"present"`
}

// HomeworkEdit changes a homework grade. Score is the raw text typed by the
// tutor; an empty string clears the grade.
type HomeworkEdit struct {
	ID    string  `json:"id" validate:"required"`
	Score *string `json:"score"`
	Note  *string `json:"note" validate:"omitempty,max=1000"`
}

// SessionEdit changes session settings.
type SessionEdit struct {
	ID               string   `json:"id" validate:"required"`
	Topic            *string  `json:"topic" validate:"omitempty,max=500"`
	PointPerCorrect  *float64 `json:"point_per_correct" validate:"omitempty,gte=0"`
	QuestionCapacity *int     `json:"question_capacity" validate:"omitempty,gte=0"`
}

// ResultEdit changes one result row. CorrectCount is raw text.
type ResultEdit struct {
	ID           string  `json:"id" validate:"required"`
	Section      *string `json:"section" validate:"omitempty,max=100"`
	CorrectCount *string `json:"correct_count"`
}

// SaveScoresRequest is a batch of edits for one lesson.
type SaveScoresRequest struct {
	Attendance []AttendanceEdit `json:"attendance" validate:"dive"`
	Homework   []HomeworkEdit   `json:"homework" validate:"dive"`
	Sessions   []SessionEdit    `json:"sessions" validate:"dive"`
	Results    []ResultEdit     `json:"results" validate:"dive"`
}
