package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-api/internal/dto"
	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

type fakeScoreRepo struct {
	saved []models.ScoreBatch
	err   error
}

func (f *fakeScoreRepo) Save(_ context.Context, _ string, batch models.ScoreBatch) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, batch)
	return nil
}

func strPtr(v string) *string { return &v }

func TestScoreServiceParseEdits(t *testing.T) {
	svc := NewScoreService(&fakeScoreRepo{}, nil, nil, nil, nil, nil)

	batch, err := svc.ParseEdits(dto.SaveScoresRequest{
		Attendance: []dto.AttendanceEdit{{ID: "a1", Present: true}},
		Homework: []dto.HomeworkEdit{
			{ID: "h1", Score: strPtr(" 7,5 ")},
			{ID: "h2", Score: strPtr("")},
			{ID: "h3", Note: strPtr("late")},
		},
		Results: []dto.ResultEdit{{ID: "r1", CorrectCount: strPtr("4")}},
	})
	require.NoError(t, err)
	assert.True(t, batch.Attendance["a1"])
	assert.Equal(t, 7.5, *batch.Homework["h1"].Score)
	assert.True(t, batch.Homework["h2"].ScoreSet)
	assert.Nil(t, batch.Homework["h2"].Score)
	assert.False(t, batch.Homework["h3"].ScoreSet)
	assert.Equal(t, 4, *batch.Results["r1"].CorrectCount)
}

func TestScoreServiceParseEditsRejectsMalformedNumbers(t *testing.T) {
	svc := NewScoreService(&fakeScoreRepo{}, nil, nil, nil, nil, nil)

	cases := []dto.SaveScoresRequest{
		{Homework: []dto.HomeworkEdit{{ID: "h1", Score: strPtr("abc")}}},
		{Homework: []dto.HomeworkEdit{{ID: "h1", Score: strPtr("-1")}}},
		{Homework: []dto.HomeworkEdit{{ID: "h1", Score: strPtr("NaN")}}},
		{Results: []dto.ResultEdit{{ID: "r1", CorrectCount: strPtr("2.5")}}},
		{Results: []dto.ResultEdit{{ID: "r1", CorrectCount: strPtr("-3")}}},
		{Attendance: []dto.AttendanceEdit{{ID: ""}}},
	}
	for i, req := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			_, err := svc.ParseEdits(req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestScoreServiceSaveMapsErrors(t *testing.T) {
	repo := &fakeScoreRepo{err: fmt.Errorf("update attendance a9: %w", sql.ErrNoRows)}
	svc := NewScoreService(repo, nil, nil, nil, nil, nil)

	batch := models.NewScoreBatch()
	batch.Attendance["a9"] = true
	err := svc.Save(context.Background(), "l1", batch)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	repo.err = errors.New("deadlock detected")
	err = svc.Save(context.Background(), "l1", batch)
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))
}

func TestScoreServiceSaveInvalidatesStatistics(t *testing.T) {
	repo := &fakeScoreRepo{}
	store := &memoryCache{}
	cache := NewCacheService(store, nil, 0, nil, true)
	svc := NewScoreService(repo, nil, cache, nil, nil, nil)

	batch := models.NewScoreBatch()
	batch.Attendance["a1"] = false
	require.NoError(t, svc.Save(context.Background(), "l1", batch))
	require.NoError(t, svc.Save(context.Background(), "l1", models.NewScoreBatch()))

	assert.Len(t, repo.saved, 1)
	assert.Equal(t, []string{cachePatternStatistics}, store.invalidated)
}

func TestScoreServiceCheckLesson(t *testing.T) {
	lessons := &fakeLessons{lessons: map[string]models.Lesson{"l1": {ID: "l1", GroupID: "g1"}}}
	svc := NewScoreService(&fakeScoreRepo{}, lessons, nil, nil, nil, nil)

	require.NoError(t, svc.CheckLesson(context.Background(), "l1"))
	err := svc.CheckLesson(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
