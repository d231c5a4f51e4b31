package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
	"github.com/noah-isme/mentor-api/pkg/export"
)

const (
	dateLayout = "2006-01-02"

	// ExportFormatPDF and ExportFormatCSV are the supported report exports.
	ExportFormatPDF = "pdf"
	ExportFormatCSV = "csv"
)

var reportHeaders = []string{"Date", "Attendance", "Type", "Topic", "Earned", "Possible"}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// ExportFile is a rendered report ready to be streamed.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReportService builds per-student progress reports.
type ReportService struct {
	students studentFinder
	groups   groupFinder
	members  memberLister
	scores   breakdownReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	lookback time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(students studentFinder, groups groupFinder, members memberLister, scores breakdownReader, csv *export.CSVExporter, pdf *export.PDFExporter, lookback time.Duration, logger *zap.Logger) *ReportService {
	if lookback <= 0 {
		lookback = 365 * 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{students: students, groups: groups, members: members, scores: scores, csv: csv, pdf: pdf, lookback: lookback, logger: logger, now: time.Now}
}

// ResolveRange parses optional YYYY-MM-DD bounds. Missing bounds default to
// the configured lookback ending today.
func (s *ReportService) ResolveRange(from, to string) (models.DateRange, error) {
	return resolveRange(from, to, s.now(), s.lookback)
}

func resolveRange(from, to string, now time.Time, lookback time.Duration) (models.DateRange, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	rng := models.DateRange{To: today}
	if to = strings.TrimSpace(to); to != "" {
		parsed, err := time.ParseInLocation(dateLayout, to, now.Location())
		if err != nil {
			return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "to must be formatted as YYYY-MM-DD")
		}
		rng.To = parsed
	}
	if from = strings.TrimSpace(from); from != "" {
		parsed, err := time.ParseInLocation(dateLayout, from, now.Location())
		if err != nil {
			return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "from must be formatted as YYYY-MM-DD")
		}
		rng.From = parsed
	} else {
		back := rng.To.Add(-lookback)
		rng.From = time.Date(back.Year(), back.Month(), back.Day(), 0, 0, 0, 0, now.Location())
	}
	if rng.From.After(rng.To) {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	return rng, nil
}

// StudentReport returns report rows and the matching summary for a student in a group.
func (s *ReportService) StudentReport(ctx context.Context, studentID, groupID string, rng models.DateRange) (*models.StudentReport, error) {
	if strings.TrimSpace(groupID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group_id is required")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "student not found", "failed to load student")
	}
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		return nil, storeError(err, "group not found", "failed to load group")
	}
	members, err := s.members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(err, "group not found", "failed to list group members")
	}
	cohortBreakdowns, err := s.scores.Breakdowns(ctx, models.BreakdownFilter{GroupID: groupID, Range: &rng})
	if err != nil {
		return nil, storeError(err, "student not found", "failed to load report data")
	}

	own := make([]models.LessonBreakdown, 0)
	for _, b := range cohortBreakdowns {
		if b.StudentID == student.ID {
			own = append(own, b)
		}
	}

	summary := SummarizeStudent(*student, own)
	for _, ranked := range rankMembers(members, cohortBreakdowns) {
		if ranked.StudentID == student.ID {
			summary.Rank = ranked.Rank
			break
		}
	}

	return &models.StudentReport{
		Student: *student,
		GroupID: groupID,
		Range:   rng,
		Summary: summary,
		Rows:    BuildReportRows(own),
	}, nil
}

// Export renders the student report as a PDF or CSV file.
func (s *ReportService) Export(ctx context.Context, studentID, groupID string, rng models.DateRange, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatPDF
	}
	if format != ExportFormatPDF && format != ExportFormatCSV {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}
	report, err := s.StudentReport(ctx, studentID, groupID, rng)
	if err != nil {
		return nil, err
	}
	dataset := reportDataset(report)
	base := fmt.Sprintf("report_%s_%s_%s", slug(report.Student.FullName()), rng.From.Format(dateLayout), rng.To.Format(dateLayout))

	var file ExportFile
	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		file = ExportFile{Name: base + ".csv", ContentType: "text/csv", Data: data}
	default:
		data, err := s.pdf.Render(dataset, "Progress report: "+report.Student.FullName())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		file = ExportFile{Name: base + ".pdf", ContentType: "application/pdf", Data: data}
	}
	s.logger.Info("report exported", zap.String("student_id", studentID), zap.String("format", format), zap.Int("rows", len(report.Rows)))
	return &file, nil
}

// BuildReportRows flattens breakdowns into report rows, newest lesson first.
// Within a lesson homework comes first, then sessions in creation order.
func BuildReportRows(breakdowns []models.LessonBreakdown) []models.ReportRow {
	ordered := make([]models.LessonBreakdown, len(breakdowns))
	copy(ordered, breakdowns)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].LessonDate.Equal(ordered[j].LessonDate) {
			return ordered[i].LessonDate.After(ordered[j].LessonDate)
		}
		return ordered[i].LessonID < ordered[j].LessonID
	})

	rows := make([]models.ReportRow, 0, len(ordered))
	for _, b := range ordered {
		status := models.AttendanceAbsent
		if b.Present {
			status = models.AttendancePresent
		}
		base := models.ReportRow{
			LessonID:         b.LessonID,
			Date:             b.LessonDate,
			GroupKey:         b.LessonDate.UTC().Format(time.RFC3339),
			AttendanceStatus: status,
		}
		lessonTopic := ""
		if b.LessonTopic != nil {
			lessonTopic = *b.LessonTopic
		}
		emitted := 0

		if b.HomeworkCapacity > 0 || b.HomeworkScore != nil {
			row := base
			row.Kind = models.ScoreKindHomework
			row.Topic = labelOr(lessonTopic, "Homework")
			row.Possible = b.HomeworkCapacity
			if b.Present {
				earned := 0.0
				if b.HomeworkScore != nil {
					earned = *b.HomeworkScore
				}
				row.Earned = &earned
			}
			rows = append(rows, row)
			emitted++
		}
		for _, kind := range []models.AssessmentKind{models.AssessmentKindTest, models.AssessmentKindQuestion} {
			for _, session := range b.Sessions {
				if session.Kind != kind {
					continue
				}
				row := base
				row.Kind = models.ScoreKind(kind)
				topic := ""
				if session.Topic != nil {
					topic = *session.Topic
				}
				row.Topic = labelOr(topic, kind.Label())
				row.Possible = float64(session.QuestionCapacity)
				if b.Present {
					earned := session.TotalScore
					row.Earned = &earned
				}
				rows = append(rows, row)
				emitted++
			}
		}
		if emitted == 0 {
			row := base
			row.Kind = models.ScoreKindNone
			row.Topic = lessonTopic
			rows = append(rows, row)
		}
	}
	return rows
}

func reportDataset(report *models.StudentReport) export.Dataset {
	rows := make([]map[string]string, 0, len(report.Rows))
	for _, r := range report.Rows {
		earned := ""
		if r.Earned != nil {
			earned = formatNumber(*r.Earned)
		}
		kind := string(r.Kind)
		if r.Kind == models.ScoreKindNone {
			kind = ""
		}
		rows = append(rows, map[string]string{
			"Date":       r.Date.Format(dateLayout),
			"Attendance": string(r.AttendanceStatus),
			"Type":       kind,
			"Topic":      r.Topic,
			"Earned":     earned,
			"Possible":   formatNumber(r.Possible),
			"group_key":  r.GroupKey,
		})
	}
	summary := report.Summary
	rank := "-"
	if summary.Rank > 0 {
		rank = strconv.Itoa(summary.Rank)
	}
	return export.Dataset{
		Headers: reportHeaders,
		Rows:    rows,
		BandBy:  "group_key",
		Summary: [][2]string{
			{"Student", report.Student.FullName()},
			{"Period", report.Range.From.Format(dateLayout) + " - " + report.Range.To.Format(dateLayout)},
			{"Attendance", fmt.Sprintf("%.1f%% (%d of %d)", summary.AttendancePercent, summary.PresentCount, summary.LessonCount)},
			{"Average score", fmt.Sprintf("%.1f%%", summary.AvgScorePercent)},
			{"Rank in group", rank},
		},
	}
}

func labelOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "student"
	}
	return b.String()
}
