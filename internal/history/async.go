package history

import (
	"context"
	"sync"
	"time"

	"github.com/Skufu/symptomatch/internal/metrics"
	"github.com/Skufu/symptomatch/internal/observability"
	"github.com/Skufu/symptomatch/internal/predictor"
)

// DefaultWriteTimeout bounds a single background write.
const DefaultWriteTimeout = 5 * time.Second

// Async writes through to another Recorder in the background. Record never
// fails; write errors are logged and counted.
type Async struct {
	inner   Recorder
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsync(inner Recorder, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &Async{inner: inner, timeout: timeout}
}

// Record schedules the write and returns immediately. The write outlives the
// caller's cancellation but keeps its values (trace ids) for logging.
func (a *Async) Record(ctx context.Context, userID string, symptoms []string, predictions []predictor.Prediction) error {
	logger := observability.LoggerFromContext(ctx)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		logger.Warn().Str("user_id", userID).Msg("query log closed, dropping record")
		metrics.RecordQueryLogWrite(false)
		return nil
	}

	symptoms = append([]string(nil), symptoms...)
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()

		if err := a.inner.Record(writeCtx, userID, symptoms, predictions); err != nil {
			logger.Error().Err(err).
				Str("user_id", userID).
				Strs("symptoms", symptoms).
				Msg("failed to write query log")
			metrics.RecordQueryLogWrite(false)
			return
		}
		metrics.RecordQueryLogWrite(true)
	}()
	return nil
}

// Close stops accepting records and waits for in-flight writes, or for ctx.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
