package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-api/internal/models"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

const (
	defaultAutoSaveDelay   = 1500 * time.Millisecond
	defaultAutoSaveTimeout = 15 * time.Second
)

// ErrAutoSaveClosed is returned when edits arrive after shutdown started.
var ErrAutoSaveClosed = appErrors.New("AUTOSAVE_CLOSED", http.StatusServiceUnavailable, "auto-save is shutting down")

type batchSaver interface {
	Save(ctx context.Context, lessonID string, batch models.ScoreBatch) error
}

type pendingBatch struct {
	batch models.ScoreBatch
	timer *time.Timer
	gen   uint64
}

// AutoSaver buffers score edits per lesson and writes each buffer once edits
// have settled for the configured delay. Writes are serialized.
type AutoSaver struct {
	saver   batchSaver
	delay   time.Duration
	timeout time.Duration
	metrics *MetricsService
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingBatch
	gen     uint64
	closed  bool

	writeMu sync.Mutex
}

// NewAutoSaver constructs the debounced writer.
func NewAutoSaver(saver batchSaver, delay time.Duration, metrics *MetricsService, logger *zap.Logger) *AutoSaver {
	if delay <= 0 {
		delay = defaultAutoSaveDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoSaver{
		saver:   saver,
		delay:   delay,
		timeout: defaultAutoSaveTimeout,
		metrics: metrics,
		logger:  logger,
		pending: make(map[string]*pendingBatch),
	}
}

// Submit merges edits into the lesson's buffer and restarts its deadline.
func (a *AutoSaver) Submit(lessonID string, batch models.ScoreBatch) error {
	if batch.Empty() {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAutoSaveClosed
	}
	p, ok := a.pending[lessonID]
	if !ok {
		p = &pendingBatch{batch: models.NewScoreBatch()}
		a.pending[lessonID] = p
	}
	p.batch.Merge(batch)
	a.armLocked(lessonID, p)
	a.metrics.SetAutoSavePending(len(a.pending))
	return nil
}

// Flush writes the lesson's buffer now. It is a no-op when nothing is pending.
func (a *AutoSaver) Flush(ctx context.Context, lessonID string) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	batch, ok := a.take(lessonID, 0)
	if !ok {
		return nil
	}
	return a.write(ctx, lessonID, batch)
}

// FlushAll writes every pending buffer, returning the joined failures.
func (a *AutoSaver) FlushAll(ctx context.Context) error {
	a.mu.Lock()
	ids := make([]string, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	a.mu.Unlock()
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := a.Flush(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops the lesson's buffer without writing it.
func (a *AutoSaver) Discard(lessonID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[lessonID]; ok {
		p.timer.Stop()
		delete(a.pending, lessonID)
		a.metrics.SetAutoSavePending(len(a.pending))
	}
}

// Pending reports whether the lesson has unsaved edits.
func (a *AutoSaver) Pending(lessonID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[lessonID]
	return ok
}

// Close rejects further edits and flushes what is buffered.
func (a *AutoSaver) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.FlushAll(ctx)
}

func (a *AutoSaver) armLocked(lessonID string, p *pendingBatch) {
	if p.timer != nil {
		p.timer.Stop()
	}
	a.gen++
	gen := a.gen
	p.gen = gen
	p.timer = time.AfterFunc(a.delay, func() { a.fire(lessonID, gen) })
}

func (a *AutoSaver) fire(lessonID string, gen uint64) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	batch, ok := a.take(lessonID, gen)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	_ = a.write(ctx, lessonID, batch)
}

// take removes and returns the lesson's buffer. A non-zero gen must match the
// buffer's current deadline, so superseded timers do nothing.
func (a *AutoSaver) take(lessonID string, gen uint64) (models.ScoreBatch, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[lessonID]
	if !ok || (gen != 0 && p.gen != gen) {
		return models.ScoreBatch{}, false
	}
	p.timer.Stop()
	delete(a.pending, lessonID)
	a.metrics.SetAutoSavePending(len(a.pending))
	return p.batch, true
}

func (a *AutoSaver) write(ctx context.Context, lessonID string, batch models.ScoreBatch) error {
	err := a.saver.Save(ctx, lessonID, batch)
	a.metrics.RecordAutoSaveFlush(err == nil)
	if err == nil {
		return nil
	}
	if errors.Is(err, appErrors.ErrNotFound) || errors.Is(err, appErrors.ErrValidation) {
		a.logger.Error("auto-save dropped unwritable edits", zap.String("lesson_id", lessonID), zap.Error(err))
		return err
	}
	a.logger.Warn("auto-save failed, will retry", zap.String("lesson_id", lessonID), zap.Error(err))
	a.requeue(lessonID, batch)
	return err
}

// requeue puts a failed batch back underneath any edits that arrived meanwhile.
func (a *AutoSaver) requeue(lessonID string, failed models.ScoreBatch) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[lessonID]; ok {
		failed.Merge(p.batch)
		p.batch = failed
		a.armLocked(lessonID, p)
	} else {
		p = &pendingBatch{batch: failed}
		a.pending[lessonID] = p
		a.armLocked(lessonID, p)
	}
	a.metrics.SetAutoSavePending(len(a.pending))
}
