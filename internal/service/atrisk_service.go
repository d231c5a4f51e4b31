package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-api/internal/models"
	"github.com/noah-isme/mentor-api/pkg/config"
	"github.com/noah-isme/mentor-api/pkg/jobs"
)

// JobTypeAtRiskScan identifies the periodic at-risk scan.
const JobTypeAtRiskScan = "at_risk_scan"

type atRiskReader interface {
	AtRiskCandidates(ctx context.Context, lookback int) ([]models.AtRiskCandidate, error)
}

// AtRiskService flags students whose recent attendance or homework is poor.
type AtRiskService struct {
	repo    atRiskReader
	cache   *CacheService
	metrics *MetricsService
	cfg     config.AtRiskConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewAtRiskService constructs the at-risk detector. Zero thresholds fall back to defaults.
func NewAtRiskService(repo atRiskReader, cache *CacheService, metrics *MetricsService, cfg config.AtRiskConfig, logger *zap.Logger) *AtRiskService {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 100
	}
	if cfg.MissedRate <= 0 {
		cfg.MissedRate = 20
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = 60
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AtRiskService{repo: repo, cache: cache, metrics: metrics, cfg: cfg, logger: logger, now: time.Now}
}

// Students returns the latest at-risk list, from cache when a scan result is held.
func (s *AtRiskService) Students(ctx context.Context) (*models.AtRiskReport, bool, error) {
	var cached models.AtRiskReport
	if hit, _ := s.cache.Get(ctx, cacheKeyAtRisk, &cached); hit {
		return &cached, true, nil
	}
	report, err := s.Scan(ctx)
	return report, false, err
}

// Scan recomputes the at-risk list and stores it.
func (s *AtRiskService) Scan(ctx context.Context) (*models.AtRiskReport, error) {
	start := time.Now()
	candidates, err := s.repo.AtRiskCandidates(ctx, s.cfg.Lookback)
	if err != nil {
		return nil, storeError(err, "students not found", "failed to scan at-risk students")
	}
	s.metrics.ObserveDBQuery("at_risk_scan", time.Since(start))

	report := &models.AtRiskReport{
		GeneratedAt: s.now().UTC(),
		Students:    DetectAtRisk(candidates, s.cfg),
	}
	s.metrics.SetAtRiskFlagged(len(report.Students))
	_ = s.cache.Set(ctx, cacheKeyAtRisk, report, 0)
	return report, nil
}

// HandleJob runs a scheduled scan.
func (s *AtRiskService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeAtRiskScan {
		return fmt.Errorf("unsupported job type %s", job.Type)
	}
	report, err := s.Scan(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("at-risk scan completed", zap.String("job_id", job.ID), zap.Int("flagged", len(report.Students)))
	return nil
}

// DetectAtRisk applies the thresholds and returns at most cfg.Limit students
// ordered by missed rate (desc), then average score (asc), then id. Students
// without history are never flagged, and the score rule needs graded homework.
func DetectAtRisk(candidates []models.AtRiskCandidate, cfg config.AtRiskConfig) []models.AtRiskStudent {
	flagged := make([]models.AtRiskStudent, 0)
	for _, c := range candidates {
		var missedRate float64
		if c.AttendanceCount > 0 {
			missedRate = float64(c.MissedCount) / float64(c.AttendanceCount) * 100
		}
		var reasons []string
		if c.AttendanceCount > 0 && missedRate > cfg.MissedRate {
			reasons = append(reasons, fmt.Sprintf("missed %.0f%% of recent lessons", missedRate))
		}
		if c.GradedCount > 0 && c.AvgScore != nil && *c.AvgScore < cfg.MinScore {
			reasons = append(reasons, fmt.Sprintf("average homework score %.1f%%", *c.AvgScore))
		}
		if len(reasons) == 0 {
			continue
		}
		flagged = append(flagged, models.AtRiskStudent{
			StudentID:       c.StudentID,
			FullName:        models.Student{FirstName: c.FirstName, LastName: c.LastName}.FullName(),
			MissedRate:      missedRate,
			AvgScore:        c.AvgScore,
			AttendanceCount: c.AttendanceCount,
			GradedCount:     c.GradedCount,
			Active:          c.Active,
			Reasons:         reasons,
		})
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		a, b := flagged[i], flagged[j]
		if a.MissedRate != b.MissedRate {
			return a.MissedRate > b.MissedRate
		}
		as, bs := scoreOrMax(a.AvgScore), scoreOrMax(b.AvgScore)
		if as != bs {
			return as < bs
		}
		return a.StudentID < b.StudentID
	})
	if cfg.Limit > 0 && len(flagged) > cfg.Limit {
		flagged = flagged[:cfg.Limit]
	}
	return flagged
}

// scoreOrMax sorts students without graded homework after any graded score.
func scoreOrMax(v *float64) float64 {
	if v == nil {
		return 1e9
	}
	return *v
}
