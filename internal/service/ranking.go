package service

import (
	"sort"

	"github.com/noah-isme/mentor-api/internal/models"
)

// RankStudents orders a cohort by average score, highest first, and assigns
// 1-based sequential ranks. Equal averages are broken by last name, first name
// and then student id so the order is reproducible. The input is not modified.
func RankStudents(cohort []models.StudentStatistics) []models.StudentStatistics {
	ranked := make([]models.StudentStatistics, len(cohort))
	copy(ranked, cohort)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AvgScorePercent != b.AvgScorePercent {
			return a.AvgScorePercent > b.AvgScorePercent
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.StudentID < b.StudentID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
