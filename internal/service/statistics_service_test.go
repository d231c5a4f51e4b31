package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-api/internal/models"
)

type fakeDashboard struct {
	day time.Time
}

func (f *fakeDashboard) Dashboard(_ context.Context, dayStart time.Time) (*models.DashboardSummary, error) {
	f.day = dayStart
	return &models.DashboardSummary{TotalStudents: 3, TotalGroups: 1, LessonsToday: 1}, nil
}

func statisticsFixture() (*fakeGroups, *fakeBreakdowns) {
	day1 := time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 4, 8, 16, 0, 0, 0, time.UTC)
	groups := &fakeGroups{
		groups: map[string]models.Group{"g1": {ID: "g1", Name: "Math", StudentCount: 3}},
		members: map[string][]models.Student{"g1": {
			{ID: "s1", FirstName: "Ada", LastName: "Lovelace"},
			{ID: "s2", FirstName: "Alan", LastName: "Turing"},
			{ID: "s3", FirstName: "Grace", LastName: "Hopper"},
		}},
	}
	scores := &fakeBreakdowns{rows: []models.LessonBreakdown{
		breakdown("s1", "Ada", "Lovelace", "l1", day1, true, floatPtr(10), 10),
		breakdown("s1", "Ada", "Lovelace", "l2", day2, true, floatPtr(6), 10),
		breakdown("s2", "Alan", "Turing", "l1", day1, false, nil, 10),
		breakdown("s2", "Alan", "Turing", "l2", day2, true, floatPtr(10), 10),
		breakdown("s3", "Grace", "Hopper", "l1", day1, true, floatPtr(9), 10),
		breakdown("s3", "Grace", "Hopper", "l2", day2, true, floatPtr(9), 10),
	}}
	return groups, scores
}

func TestStatisticsServiceStudentStatisticsRanks(t *testing.T) {
	groups, scores := statisticsFixture()
	svc := NewStatisticsService(groups, groups, scores, nil, nil, nil, nil)

	rng := models.DateRange{From: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)}
	stats, err := svc.StudentStatistics(context.Background(), "g1", rng)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, "s3", stats[0].StudentID)
	assert.Equal(t, 1, stats[0].Rank)
	assert.InDelta(t, 90.0, stats[0].AvgScorePercent, 1e-9)
	assert.Equal(t, "s1", stats[1].StudentID)
	assert.Equal(t, "s2", stats[2].StudentID)
	assert.InDelta(t, 50.0, stats[2].AttendancePercent, 1e-9)
	assert.Equal(t, 1, stats[2].MissedCount)
	assert.Zero(t, stats[0].MissedCount)
}

func TestStatisticsServiceRangeNarrowsLessons(t *testing.T) {
	groups, scores := statisticsFixture()
	svc := NewStatisticsService(groups, groups, scores, nil, nil, nil, nil)

	rng := models.DateRange{From: time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC)}
	stats, err := svc.StudentStatistics(context.Background(), "g1", rng)
	require.NoError(t, err)
	for _, s := range stats {
		assert.Equal(t, 1, s.LessonCount)
	}
	assert.Equal(t, "s2", stats[0].StudentID)
}

func TestStatisticsServiceUnknownGroup(t *testing.T) {
	groups, scores := statisticsFixture()
	svc := NewStatisticsService(groups, groups, scores, nil, nil, nil, nil)

	_, err := svc.StudentStatistics(context.Background(), "missing", models.DateRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group not found")
}

func TestStatisticsServiceGroupStatisticsUsesCache(t *testing.T) {
	groups, scores := statisticsFixture()
	cache := NewCacheService(&memoryCache{}, nil, time.Minute, nil, true)
	svc := NewStatisticsService(groups, groups, scores, nil, cache, nil, nil)

	stats, hit, err := svc.GroupStatistics(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].LessonCount)
	assert.InDelta(t, 500.0/6.0, stats[0].AvgAttendancePercent, 1e-9)
	assert.InDelta(t, (100+60+0+100+90+90)/6.0, stats[0].AvgScorePercent, 1e-9)

	cached, hit, err := svc.GroupStatistics(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, stats, cached)
	assert.Len(t, scores.filters, 1)
}

func TestStatisticsServiceLessonStatistics(t *testing.T) {
	groups, scores := statisticsFixture()
	svc := NewStatisticsService(groups, groups, scores, nil, nil, nil, nil)

	rng := models.DateRange{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}
	lessons, err := svc.LessonStatistics(context.Background(), "g1", rng)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "l1", lessons[0].LessonID)
	assert.Equal(t, 2, lessons[0].PresentCount)
	assert.InDelta(t, (100.0+0+90)/3, lessons[0].AvgScorePercent, 1e-9)
}

func TestStatisticsServiceDashboardUsesStartOfDay(t *testing.T) {
	dash := &fakeDashboard{}
	svc := NewStatisticsService(nil, nil, nil, dash, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 15, 4, 5, 0, time.UTC) }

	summary, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), dash.day)
}
