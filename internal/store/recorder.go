package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds a single save.
const DefaultTimeout = 10 * time.Second

// Recorder saves records in the background. Failures are logged and dropped.
type Recorder struct {
	store   Store
	timeout time.Duration
	logger  *log.Logger
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewRecorder wraps st. A zero timeout uses DefaultTimeout.
func NewRecorder(st Store, timeout time.Duration, logger *log.Logger) *Recorder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{store: st, timeout: timeout, logger: logger}
}

// Submit starts saving rec and returns immediately. Records submitted after
// Close are logged and dropped.
func (r *Recorder) Submit(rec Record) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("Recorder closed, result dropped", "id", rec.ID, "ps_number", rec.PSNumber, "score", rec.TotalScore)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.store.Save(ctx, rec); err != nil {
			r.logger.Error("Failed to save result", "id", rec.ID, "ps_number", rec.PSNumber, "err", err)
			return
		}
		r.logger.Debug("Result saved", "id", rec.ID, "score", rec.TotalScore)
	}()
}

// Close stops accepting new records. Saves already started keep running.
func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Wait closes the recorder and blocks until every submitted save has
// finished or ctx is done.
func (r *Recorder) Wait(ctx context.Context) error {
	r.Close()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
