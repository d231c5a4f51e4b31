package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

type recordingSaver struct {
	mu      sync.Mutex
	batches map[string][]models.ScoreBatch
	fails   int
	err     error
}

func (r *recordingSaver) Save(_ context.Context, lessonID string, batch models.ScoreBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.fails > 0 {
		r.fails--
		return appErrors.Persistence(errors.New("connection reset"), "")
	}
	if r.batches == nil {
		r.batches = map[string][]models.ScoreBatch{}
	}
	r.batches[lessonID] = append(r.batches[lessonID], batch)
	return nil
}

func (r *recordingSaver) saved(lessonID string) []models.ScoreBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ScoreBatch(nil), r.batches[lessonID]...)
}

func attendanceBatch(id string, present bool) models.ScoreBatch {
	b := models.NewScoreBatch()
	b.Attendance[id] = present
	return b
}

func TestAutoSaverCoalescesEdits(t *testing.T) {
	saver := &recordingSaver{}
	auto := NewAutoSaver(saver, 30*time.Millisecond, nil, nil)

	require.NoError(t, auto.Submit("l1", attendanceBatch("a1", true)))
	require.NoError(t, auto.Submit("l1", attendanceBatch("a2", true)))
	require.NoError(t, auto.Submit("l1", attendanceBatch("a1", false)))
	assert.True(t, auto.Pending("l1"))

	require.Eventually(t, func() bool { return len(saver.saved("l1")) == 1 }, time.Second, 5*time.Millisecond)
	batch := saver.saved("l1")[0]
	assert.Equal(t, map[string]bool{"a1": false, "a2": true}, batch.Attendance)
	assert.False(t, auto.Pending("l1"))

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, saver.saved("l1"), 1)
}

func TestAutoSaverFlushWritesImmediately(t *testing.T) {
	saver := &recordingSaver{}
	auto := NewAutoSaver(saver, time.Hour, nil, nil)

	require.NoError(t, auto.Submit("l1", attendanceBatch("a1", true)))
	require.NoError(t, auto.Flush(context.Background(), "l1"))
	assert.Len(t, saver.saved("l1"), 1)
	assert.False(t, auto.Pending("l1"))

	require.NoError(t, auto.Flush(context.Background(), "l1"))
	assert.Len(t, saver.saved("l1"), 1)
}

func TestAutoSaverRetriesFailedWrite(t *testing.T) {
	saver := &recordingSaver{fails: 1}
	auto := NewAutoSaver(saver, 20*time.Millisecond, nil, nil)

	require.NoError(t, auto.Submit("l1", attendanceBatch("a1", true)))
	require.Eventually(t, func() bool { return len(saver.saved("l1")) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, saver.saved("l1")[0].Attendance["a1"])
}

func TestAutoSaverFlushFailureKeepsEdits(t *testing.T) {
	saver := &recordingSaver{fails: 1}
	auto := NewAutoSaver(saver, time.Hour, nil, nil)

	require.NoError(t, auto.Submit("l1", attendanceBatch("a1", true)))
	err := auto.Flush(context.Background(), "l1")
	require.Error(t, err)
	assert.True(t, auto.Pending("l1"))

	require.NoError(t, auto.Submit("l1", attendanceBatch("a2", false)))
	require.NoError(t, auto.Flush(context.Background(), "l1"))
	saved := saver.saved("l1")
	require.Len(t, saved, 1)
	assert.Equal(t, map[string]bool{"a1": true, "a2": false}, saved[0].Attendance)
}

func TestAutoSaverDropsUnwritableEdits(t *testing.T) {
	saver := &recordingSaver{err: appErrors.Clone(appErrors.ErrNotFound, "lesson not found")}
	auto := NewAutoSaver(saver, time.Hour, nil, nil)

	require.NoError(t, auto.Submit("gone", attendanceBatch("a1", true)))
	err := auto.Flush(context.Background(), "gone")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.False(t, auto.Pending("gone"))
}

func TestAutoSaverDiscardAndClose(t *testing.T) {
	saver := &recordingSaver{}
	auto := NewAutoSaver(saver, time.Hour, nil, nil)

	require.NoError(t, auto.Submit("l1", attendanceBatch("a1", true)))
	require.NoError(t, auto.Submit("l2", attendanceBatch("a2", true)))
	auto.Discard("l1")

	require.NoError(t, auto.Close(context.Background()))
	assert.Empty(t, saver.saved("l1"))
	assert.Len(t, saver.saved("l2"), 1)

	err := auto.Submit("l2", attendanceBatch("a2", false))
	assert.True(t, errors.Is(err, ErrAutoSaveClosed))
}
