package models

// HomeworkEdit changes a homework record. ScoreSet distinguishes clearing the grade from leaving it.
type HomeworkEdit struct {
	Score    *float64
	ScoreSet bool
	Note     *string
}

// SessionEdit changes session settings.
type SessionEdit struct {
	Topic            *string
	PointPerCorrect  *float64
	QuestionCapacity *int
}

// ResultEdit changes a result row.
type ResultEdit struct {
	Section      *string
	CorrectCount *int
}

// ScoreBatch is a set of pending edits for one lesson, keyed by record id.
type ScoreBatch struct {
	Attendance map[string]bool
	Homework   map[string]HomeworkEdit
	Sessions   map[string]SessionEdit
	Results    map[string]ResultEdit
}

// NewScoreBatch returns an empty batch.
func NewScoreBatch() ScoreBatch {
	return ScoreBatch{
		Attendance: map[string]bool{},
		Homework:   map[string]HomeworkEdit{},
		Sessions:   map[string]SessionEdit{},
		Results:    map[string]ResultEdit{},
	}
}

// Empty reports whether the batch carries no edits.
func (b ScoreBatch) Empty() bool {
	return len(b.Attendance) == 0 && len(b.Homework) == 0 && len(b.Sessions) == 0 && len(b.Results) == 0
}

// Merge folds other into b. Later values win field by field.
func (b *ScoreBatch) Merge(other ScoreBatch) {
	if b.Attendance == nil {
		b.Attendance = map[string]bool{}
	}
	if b.Homework == nil {
		b.Homework = map[string]HomeworkEdit{}
	}
	if b.Sessions == nil {
		b.Sessions = map[string]SessionEdit{}
	}
	if b.Results == nil {
		b.Results = map[string]ResultEdit{}
	}
	for id, present := range other.Attendance {
		b.Attendance[id] = present
	}
	for id, edit := range other.Homework {
		cur := b.Homework[id]
		if edit.ScoreSet {
			cur.Score = edit.Score
			cur.ScoreSet = true
		}
		if edit.Note != nil {
			cur.Note = edit.Note
		}
		b.Homework[id] = cur
	}
	for id, edit := range other.Sessions {
		cur := b.Sessions[id]
		if edit.Topic != nil {
			cur.Topic = edit.Topic
		}
		if edit.PointPerCorrect != nil {
			cur.PointPerCorrect = edit.PointPerCorrect
		}
		if edit.QuestionCapacity != nil {
			cur.QuestionCapacity = edit.QuestionCapacity
		}
		b.Sessions[id] = cur
	}
	for id, edit := range other.Results {
		cur := b.Results[id]
		if edit.Section != nil {
			cur.Section = edit.Section
		}
		if edit.CorrectCount != nil {
			cur.CorrectCount = edit.CorrectCount
		}
		b.Results[id] = cur
	}
}
