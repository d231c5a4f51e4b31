package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

type fakeRoster struct {
	mu    sync.Mutex
	calls []string
	errs  []error
	n     int64
}

func (f *fakeRoster) Sync(_ context.Context, lessonID, groupID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lessonID+"/"+groupID)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	return f.n, nil
}

type fakeBreakdowns struct {
	rows    []models.LessonBreakdown
	filters []models.BreakdownFilter
	err     error
}

func (f *fakeBreakdowns) Breakdowns(_ context.Context, filter models.BreakdownFilter) ([]models.LessonBreakdown, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.LessonBreakdown
	for _, b := range f.rows {
		if filter.GroupID != "" && b.GroupID != filter.GroupID {
			continue
		}
		if filter.StudentID != "" && b.StudentID != filter.StudentID {
			continue
		}
		if filter.LessonID != "" && b.LessonID != filter.LessonID {
			continue
		}
		if filter.Range != nil && !filter.Range.Contains(b.LessonDate) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type fakeGroups struct {
	groups  map[string]models.Group
	members map[string][]models.Student
}

func (f *fakeGroups) List(_ context.Context, _ models.GroupFilter) ([]models.Group, error) {
	var out []models.Group
	for _, g := range f.groups {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGroups) FindByID(_ context.Context, id string) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (f *fakeGroups) ListByGroup(_ context.Context, groupID string) ([]models.Student, error) {
	return f.members[groupID], nil
}

type fakeStudents struct {
	students map[string]models.Student
}

func (f *fakeStudents) FindByID(_ context.Context, id string) (*models.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

type fakeLessons struct {
	lessons         map[string]models.Lesson
	sessions        map[string]models.AssessmentSession
	deleted         []string
	deletedSessions []string
	created         []models.AssessmentSession
}

func (f *fakeLessons) FindByID(_ context.Context, id string) (*models.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func (f *fakeLessons) List(_ context.Context, _ dto.LessonFilter) ([]models.Lesson, int, error) {
	var out []models.Lesson
	for _, l := range f.lessons {
		out = append(out, l)
	}
	return out, len(out), nil
}

func (f *fakeLessons) Create(_ context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = "new-lesson"
	}
	f.lessons[lesson.ID] = *lesson
	return nil
}

func (f *fakeLessons) Update(_ context.Context, lesson *models.Lesson) (bool, error) {
	if _, ok := f.lessons[lesson.ID]; !ok {
		return false, nil
	}
	f.lessons[lesson.ID] = *lesson
	return true, nil
}

func (f *fakeLessons) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.lessons[id]; !ok {
		return false, nil
	}
	delete(f.lessons, id)
	f.deleted = append(f.deleted, id)
	return true, nil
}

func (f *fakeLessons) CreateSession(_ context.Context, session *models.AssessmentSession, _ string) error {
	session.ID = "new-session"
	f.created = append(f.created, *session)
	return nil
}

func (f *fakeLessons) FindSession(_ context.Context, id string) (*models.AssessmentSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeLessons) DeleteSession(_ context.Context, id string) (bool, error) {
	if _, ok := f.sessions[id]; !ok {
		return false, nil
	}
	delete(f.sessions, id)
	f.deletedSessions = append(f.deletedSessions, id)
	return true, nil
}

func (f *fakeLessons) ListSessions(_ context.Context, lessonID string) ([]models.AssessmentSession, error) {
	var out []models.AssessmentSession
	for _, s := range f.sessions {
		if s.LessonID == lessonID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLessons) ListAttendance(_ context.Context, _ string) ([]models.AttendanceRecord, error) {
	return []models.AttendanceRecord{{ID: "a1", StudentID: "s1", Present: true}}, nil
}

func (f *fakeLessons) ListHomework(_ context.Context, _ string) ([]models.HomeworkRecord, error) {
	return []models.HomeworkRecord{{ID: "h1", StudentID: "s1"}}, nil
}

func (f *fakeLessons) ListResults(_ context.Context, _ string) ([]models.AssessmentResult, error) {
	return []models.AssessmentResult{{ID: "r1", SessionID: "t1", StudentID: "s1", CorrectCount: 4, TotalScore: 8}}, nil
}

type fakePending struct {
	flushed   []string
	discarded []string
}

func (f *fakePending) Flush(_ context.Context, lessonID string) error {
	f.flushed = append(f.flushed, lessonID)
	return nil
}

func (f *fakePending) Discard(lessonID string) {
	f.discarded = append(f.discarded, lessonID)
}

type memoryCache struct {
	mu          sync.Mutex
	store       map[string][]byte
	invalidated []string
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.store = map[string][]byte{}
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	m.store = map[string][]byte{}
	return nil
}

func breakdown(studentID, first, last, lessonID string, date time.Time, present bool, hw *float64, capacity float64, sessions ...models.SessionScore) models.LessonBreakdown {
	return models.LessonBreakdown{
		StudentID:        studentID,
		FirstName:        first,
		LastName:         last,
		LessonID:         lessonID,
		GroupID:          "g1",
		LessonDate:       date,
		HomeworkCapacity: capacity,
		Present:          present,
		HomeworkScore:    hw,
		Sessions:         sessions,
	}
}
