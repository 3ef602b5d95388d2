package predictor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"predictd/internal/runtime"
	"predictd/pkg/types"
)

// Predictor loads one model and serves generations against it.
type Predictor struct {
	mu      sync.RWMutex
	setupMu sync.Mutex
	state   State
	err     string
	variant Variant
	model   types.Model

	backend  runtime.Backend
	sess     runtime.Session
	loadOpts runtime.LoadOptions
	threads  int

	// Queueing primitives
	genCh        chan struct{} // size 1: single in-flight generation
	queueCh      chan struct{} // buffered: queue slots
	maxWait      time.Duration
	drainTimeout time.Duration

	cache     *resultCache
	log       zerolog.Logger
	hold      *HoldWriter
	publisher EventPublisher

	startTime   time.Time
	predictions atomic.Uint64
}

// Setup loads the model through the backend. It is safe to call more than
// once; after a successful load later calls return immediately.
func (p *Predictor) Setup(ctx context.Context) error {
	p.setupMu.Lock()
	defer p.setupMu.Unlock()

	p.mu.Lock()
	if p.state == StateReady {
		p.mu.Unlock()
		return nil
	}
	if p.state == StateDraining {
		p.mu.Unlock()
		return notReadyError{state: StateDraining}
	}
	p.state = StateLoading
	p.err = ""
	p.mu.Unlock()

	p.publisher.Publish(Event{Name: "setup_start", ModelID: p.model.ID, Fields: map[string]any{"path": p.model.Path}})
	start := time.Now()
	if p.backend == nil {
		return p.failSetup(runtime.ErrDependencyUnavailable("no runtime backend configured"))
	}
	sess, err := p.backend.Load(ctx, p.model.Path, p.loadOpts)
	if err != nil {
		return p.failSetup(fmt.Errorf("load %s: %w", p.model.ID, err))
	}

	p.mu.Lock()
	if p.state != StateLoading {
		// Closed while loading.
		state := p.state
		p.mu.Unlock()
		_ = sess.Close()
		return notReadyError{state: state}
	}
	p.sess = sess
	p.state = StateReady
	p.mu.Unlock()
	setupDuration.Observe(time.Since(start).Seconds())
	p.publisher.Publish(Event{Name: "setup_done", ModelID: p.model.ID, Fields: map[string]any{"dur": time.Since(start).String()}})
	p.log.Info().Str("model", p.model.ID).Str("variant", string(p.variant)).Dur("dur", time.Since(start)).Msg("model loaded")
	return nil
}

func (p *Predictor) failSetup(err error) error {
	p.mu.Lock()
	if p.state != StateDraining {
		p.state = StateError
	}
	p.err = err.Error()
	p.mu.Unlock()
	p.publisher.Publish(Event{Name: "setup_error", ModelID: p.model.ID, Fields: map[string]any{"error": err.Error()}})
	p.log.Error().Err(err).Str("model", p.model.ID).Msg("model load failed")
	return err
}

// Ready reports whether the model is loaded and accepting predictions.
func (p *Predictor) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == StateReady && p.sess != nil
}

// Variant returns the configured variant.
func (p *Predictor) Variant() Variant { return p.variant }

// Defaults returns the input defaults for the configured variant.
func (p *Predictor) Defaults() types.PredictInput { return DefaultInput(p.variant) }

// Schema returns the input field table for the configured variant.
func (p *Predictor) Schema() types.SchemaResponse { return Schema(p.variant) }

// session returns the loaded session or a not-ready error.
func (p *Predictor) session() (runtime.Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != StateReady || p.sess == nil {
		return nil, notReadyError{state: p.state, cause: p.err}
	}
	return p.sess, nil
}
