package models

import "time"

// GroupStatistics summarizes one group.
type GroupStatistics struct {
	GroupID              string  `json:"group_id"`
	GroupName            string  `json:"group_name"`
	StudentCount         int     `json:"student_count"`
	LessonCount          int     `json:"lesson_count"`
	AvgAttendancePercent float64 `json:"avg_attendance_percent"`
	AvgScorePercent      float64 `json:"avg_score_percent"`
}

// StudentStatistics summarizes one student within a group. Rank is assigned by the ranking engine.
type StudentStatistics struct {
	StudentID         string  `json:"student_id"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Rank              int     `json:"rank"`
	LessonCount       int     `json:"lesson_count"`
	PresentCount      int     `json:"present_count"`
	MissedCount       int     `json:"missed_count"`
	AttendancePercent float64 `json:"attendance_percent"`
	TotalEarned       float64 `json:"total_earned"`
	TotalPossible     float64 `json:"total_possible"`
	AvgScorePercent   float64 `json:"avg_score_percent"`
	Active            bool    `json:"active"`
}

// AtRiskCandidate is the raw recent-window aggregate for one student.
type AtRiskCandidate struct {
	StudentID       string   `db:"student_id"`
	FirstName       string   `db:"first_name"`
	LastName        string   `db:"last_name"`
	AttendanceCount int      `db:"attendance_count"`
	MissedCount     int      `db:"missed_count"`
	GradedCount     int      `db:"graded_count"`
	AvgScore        *float64 `db:"avg_score"`
	Active          bool     `db:"active"`
}

// AtRiskStudent is a flagged student.
type AtRiskStudent struct {
	StudentID       string   `json:"student_id"`
	FullName        string   `json:"full_name"`
	MissedRate      float64  `json:"missed_rate"`
	AvgScore        *float64 `json:"avg_score"`
	AttendanceCount int      `json:"attendance_count"`
	GradedCount     int      `json:"graded_count"`
	Active          bool     `json:"active"`
	Reasons         []string `json:"reasons"`
}

// AtRiskReport is the result of one scan.
type AtRiskReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Students    []AtRiskStudent `json:"students"`
}

// LessonStatistic is the group-wide average for one lesson.
type LessonStatistic struct {
	LessonID        string    `json:"lesson_id"`
	LessonDate      time.Time `json:"lesson_date"`
	Topic           *string   `json:"topic,omitempty"`
	PresentCount    int       `json:"present_count"`
	StudentCount    int       `json:"student_count"`
	AvgScorePercent float64   `json:"avg_score_percent"`
}

// DashboardSummary holds headline counters.
type DashboardSummary struct {
	TotalStudents  int `db:"total_students" json:"total_students"`
	ActiveStudents int `db:"active_students" json:"active_students"`
	TotalGroups    int `db:"total_groups" json:"total_groups"`
	LessonsToday   int `db:"lessons_today" json:"lessons_today"`
}

// SystemMetrics is a lightweight snapshot of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	RosterRowsInserted       uint64    `json:"roster_rows_inserted"`
	AutoSaveFlushes          uint64    `json:"autosave_flushes"`
	AutoSaveFailures         uint64    `json:"autosave_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
