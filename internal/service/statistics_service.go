package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-api/internal/models"
)

type groupLister interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type memberLister interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.Student, error)
}

type dashboardReader interface {
	Dashboard(ctx context.Context, dayStart time.Time) (*models.DashboardSummary, error)
}

// StatisticsService computes group and student statistics on demand.
type StatisticsService struct {
	groups    groupLister
	members   memberLister
	scores    breakdownReader
	dashboard dashboardReader
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatisticsService constructs the statistics service.
func NewStatisticsService(groups groupLister, members memberLister, scores breakdownReader, dashboard dashboardReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{
		groups:    groups,
		members:   members,
		scores:    scores,
		dashboard: dashboard,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// GroupStatistics returns one summary per group. The boolean reports a cache hit.
func (s *StatisticsService) GroupStatistics(ctx context.Context) ([]models.GroupStatistics, bool, error) {
	var cached []models.GroupStatistics
	if hit, _ := s.cache.Get(ctx, cacheKeyGroupStatistics, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	groups, err := s.groups.List(ctx, models.GroupFilter{})
	if err != nil {
		return nil, false, storeError(err, "groups not found", "failed to list groups")
	}
	breakdowns, err := s.scores.Breakdowns(ctx, models.BreakdownFilter{})
	if err != nil {
		return nil, false, storeError(err, "groups not found", "failed to load group scores")
	}
	s.metrics.ObserveDBQuery("group_statistics", time.Since(start))

	type acc struct {
		rows, present int
		pctSum        float64
		lessons       map[string]struct{}
	}
	byGroup := make(map[string]*acc, len(groups))
	for _, b := range breakdowns {
		a, ok := byGroup[b.GroupID]
		if !ok {
			a = &acc{lessons: map[string]struct{}{}}
			byGroup[b.GroupID] = a
		}
		a.rows++
		if b.Present {
			a.present++
		}
		pair := AggregateLesson(b)
		a.pctSum += Percentage(pair.Earned, pair.Possible)
		a.lessons[b.LessonID] = struct{}{}
	}

	stats := make([]models.GroupStatistics, 0, len(groups))
	for _, g := range groups {
		item := models.GroupStatistics{GroupID: g.ID, GroupName: g.Name, StudentCount: g.StudentCount}
		if a, ok := byGroup[g.ID]; ok && a.rows > 0 {
			item.LessonCount = len(a.lessons)
			item.AvgAttendancePercent = float64(a.present) / float64(a.rows) * 100
			item.AvgScorePercent = a.pctSum / float64(a.rows)
		}
		stats = append(stats, item)
	}
	_ = s.cache.Set(ctx, cacheKeyGroupStatistics, stats, 0)
	return stats, false, nil
}

// StudentStatistics ranks the current members of a group over a date range.
func (s *StatisticsService) StudentStatistics(ctx context.Context, groupID string, rng models.DateRange) ([]models.StudentStatistics, error) {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		return nil, storeError(err, "group not found", "failed to load group")
	}
	members, err := s.members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(err, "group not found", "failed to list group members")
	}
	start := time.Now()
	breakdowns, err := s.scores.Breakdowns(ctx, models.BreakdownFilter{GroupID: groupID, Range: &rng})
	if err != nil {
		return nil, storeError(err, "group not found", "failed to load student scores")
	}
	s.metrics.ObserveDBQuery("student_statistics", time.Since(start))
	return rankMembers(members, breakdowns), nil
}

func rankMembers(members []models.Student, breakdowns []models.LessonBreakdown) []models.StudentStatistics {
	byStudent := make(map[string][]models.LessonBreakdown, len(members))
	for _, b := range breakdowns {
		byStudent[b.StudentID] = append(byStudent[b.StudentID], b)
	}
	cohort := make([]models.StudentStatistics, 0, len(members))
	for _, m := range members {
		cohort = append(cohort, SummarizeStudent(m, byStudent[m.ID]))
	}
	return RankStudents(cohort)
}

// LessonStatistics returns the per-lesson average score of a group, oldest first.
func (s *StatisticsService) LessonStatistics(ctx context.Context, groupID string, rng models.DateRange) ([]models.LessonStatistic, error) {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		return nil, storeError(err, "group not found", "failed to load group")
	}
	breakdowns, err := s.scores.Breakdowns(ctx, models.BreakdownFilter{GroupID: groupID, Range: &rng})
	if err != nil {
		return nil, storeError(err, "group not found", "failed to load lesson scores")
	}
	type acc struct {
		stat   models.LessonStatistic
		pctSum float64
	}
	byLesson := make(map[string]*acc)
	for _, b := range breakdowns {
		a, ok := byLesson[b.LessonID]
		if !ok {
			a = &acc{stat: models.LessonStatistic{LessonID: b.LessonID, LessonDate: b.LessonDate, Topic: b.LessonTopic}}
			byLesson[b.LessonID] = a
		}
		a.stat.StudentCount++
		if b.Present {
			a.stat.PresentCount++
		}
		pair := AggregateLesson(b)
		a.pctSum += Percentage(pair.Earned, pair.Possible)
	}
	out := make([]models.LessonStatistic, 0, len(byLesson))
	for _, a := range byLesson {
		a.stat.AvgScorePercent = a.pctSum / float64(a.stat.StudentCount)
		out = append(out, a.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LessonDate.Equal(out[j].LessonDate) {
			return out[i].LessonDate.Before(out[j].LessonDate)
		}
		return out[i].LessonID < out[j].LessonID
	})
	return out, nil
}

// Dashboard returns headline counters for today.
func (s *StatisticsService) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.now()
	y, m, d := now.Date()
	summary, err := s.dashboard.Dashboard(ctx, time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
	if err != nil {
		return nil, storeError(err, "dashboard not found", "failed to load dashboard")
	}
	return summary, nil
}
