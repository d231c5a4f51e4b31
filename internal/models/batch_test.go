package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreBatchMergeLastWriteWins(t *testing.T) {
	score := 7.0
	note := "late"
	correct := 4
	later := 9.0

	b := NewScoreBatch()
	b.Merge(ScoreBatch{
		Attendance: map[string]bool{"a1": true},
		Homework:   map[string]HomeworkEdit{"h1": {Score: &score, ScoreSet: true, Note: &note}},
		Results:    map[string]ResultEdit{"r1": {CorrectCount: &correct}},
	})
	b.Merge(ScoreBatch{
		Attendance: map[string]bool{"a1": false},
		Homework:   map[string]HomeworkEdit{"h1": {Score: &later, ScoreSet: true}},
	})

	assert.False(t, b.Attendance["a1"])
	assert.Equal(t, 9.0, *b.Homework["h1"].Score)
	assert.Equal(t, "late", *b.Homework["h1"].Note)
	assert.Equal(t, 4, *b.Results["r1"].CorrectCount)
	assert.False(t, b.Empty())
}

func TestScoreBatchMergeClearsHomework(t *testing.T) {
	score := 5.0
	var b ScoreBatch
	b.Merge(ScoreBatch{Homework: map[string]HomeworkEdit{"h1": {Score: &score, ScoreSet: true}}})
	b.Merge(ScoreBatch{Homework: map[string]HomeworkEdit{"h1": {ScoreSet: true}}})

	assert.True(t, b.Homework["h1"].ScoreSet)
	assert.Nil(t, b.Homework["h1"].Score)
}

func TestDateRangeInclusiveDays(t *testing.T) {
	r := DateRange{
		From: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
	}
	start, end := r.Bounds()
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), end)
	assert.True(t, r.Contains(time.Date(2024, 3, 3, 23, 59, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)))
}

func TestAssessmentKind(t *testing.T) {
	assert.True(t, AssessmentKindTest.Valid())
	assert.False(t, AssessmentKind("QUIZ").Valid())
	assert.Equal(t, "Question", AssessmentKindQuestion.Label())
	assert.Equal(t, 8.0, ResultTotal(4, DefaultPointPerCorrect))
}
