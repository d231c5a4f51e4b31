package models

import "time"

// ScoreKind labels the origin of a report row.
type ScoreKind string

const (
	ScoreKindHomework ScoreKind = "HOMEWORK"
	ScoreKindTest     ScoreKind = "TEST"
	ScoreKindQuestion ScoreKind = "QUESTION"
	ScoreKindNone     ScoreKind = "NONE"
)

// AttendanceStatus is the presence label shown on report rows.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Bounds returns the half-open timestamp interval [start, end) covering the range.
func (r DateRange) Bounds() (time.Time, time.Time) {
	start := truncateDay(r.From)
	end := truncateDay(r.To).AddDate(0, 0, 1)
	return start, end
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	start, end := r.Bounds()
	t = t.In(start.Location())
	return !t.Before(start) && t.Before(end)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ReportRow is one line of a student progress report.
type ReportRow struct {
	LessonID         string           `json:"lesson_id"`
	Date             time.Time        `json:"date"`
	GroupKey         string           `json:"group_key"`
	AttendanceStatus AttendanceStatus `json:"attendance_status"`
	Kind             ScoreKind        `json:"kind"`
	Topic            string           `json:"topic"`
	Earned           *float64         `json:"earned"`
	Possible         float64          `json:"possible"`
}

// StudentReport is the report view for one student within one group.
type StudentReport struct {
	Student Student           `json:"student"`
	GroupID string            `json:"group_id"`
	Range   DateRange         `json:"range"`
	Summary StudentStatistics `json:"summary"`
	Rows    []ReportRow       `json:"rows"`
}
