package predictor

import (
	"context"
	"time"
)

// beginGeneration reserves a queue slot and then the single in-flight slot.
// Returns a release func to be deferred.
func (p *Predictor) beginGeneration(ctx context.Context) (func(), error) {
	p.mu.RLock()
	state := p.state
	p.mu.RUnlock()
	// If draining, reject new work to allow graceful shutdown
	if state == StateDraining {
		return func() {}, tooBusyError{reason: "draining"}
	}

	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	timer := time.NewTimer(p.maxWait)
	defer timer.Stop()
	select {
	case p.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{reason: "queue full"}
	}
	queueDepth.Set(float64(len(p.queueCh)))

	// Wait to acquire the single in-flight slot
	acquired := false
	defer func() {
		if !acquired {
			<-p.queueCh
			queueDepth.Set(float64(len(p.queueCh)))
		}
	}()
	// Check for cancellation again before blocking on gen slot
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	timer2 := time.NewTimer(p.maxWait)
	defer timer2.Stop()
	select {
	case p.genCh <- struct{}{}:
		acquired = true
		return func() {
			<-p.genCh
			<-p.queueCh
			queueDepth.Set(float64(len(p.queueCh)))
		}, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer2.C:
		return func() {}, tooBusyError{reason: "timed out waiting for generation slot"}
	}
}
