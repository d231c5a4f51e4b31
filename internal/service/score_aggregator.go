package service

import (
	"github.com/noah-isme/mentor-api/internal/models"
)

// AggregateLesson derives the earned/possible pair of one student in one lesson.
// An ungraded homework counts as zero. Every session attached to the lesson
// contributes its capacity to possible, whether or not it was used.
func AggregateLesson(b models.LessonBreakdown) models.ScorePair {
	var pair models.ScorePair
	if b.HomeworkScore != nil {
		pair.Earned += *b.HomeworkScore
	}
	pair.Possible += b.HomeworkCapacity
	for _, s := range b.Sessions {
		pair.Earned += s.TotalScore
		pair.Possible += float64(s.QuestionCapacity)
	}
	return pair
}

// Percentage returns earned/possible*100, or 0 when nothing was possible.
func Percentage(earned, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return earned / possible * 100
}

// LessonScore converts a breakdown into the per-student score view.
func LessonScore(b models.LessonBreakdown) models.StudentLessonScore {
	pair := AggregateLesson(b)
	return models.StudentLessonScore{
		StudentID:   b.StudentID,
		StudentName: models.Student{FirstName: b.FirstName, LastName: b.LastName}.FullName(),
		Present:     b.Present,
		Earned:      pair.Earned,
		Possible:    pair.Possible,
		Percentage:  Percentage(pair.Earned, pair.Possible),
	}
}

// SummarizeStudent folds a student's breakdowns into attendance and average
// score figures. The average score is the mean of per-lesson percentages.
func SummarizeStudent(student models.Student, breakdowns []models.LessonBreakdown) models.StudentStatistics {
	stats := models.StudentStatistics{
		StudentID: student.ID,
		FirstName: student.FirstName,
		LastName:  student.LastName,
		Active:    student.Active,
	}
	var pctSum float64
	for _, b := range breakdowns {
		stats.LessonCount++
		if b.Present {
			stats.PresentCount++
		}
		pair := AggregateLesson(b)
		stats.TotalEarned += pair.Earned
		stats.TotalPossible += pair.Possible
		pctSum += Percentage(pair.Earned, pair.Possible)
	}
	stats.MissedCount = stats.LessonCount - stats.PresentCount
	if stats.LessonCount > 0 {
		stats.AttendancePercent = float64(stats.PresentCount) / float64(stats.LessonCount) * 100
		stats.AvgScorePercent = pctSum / float64(stats.LessonCount)
	}
	return stats
}
