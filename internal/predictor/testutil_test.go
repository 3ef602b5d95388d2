package predictor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"predictd/internal/runtime"
	"predictd/pkg/types"
)

// fakeBackend is a lightweight in-memory backend used for tests.
type fakeBackend struct {
	mu      sync.Mutex
	loadErr error
	genErr  error
	tokens  []string
	text    string
	loads   int
	prompts []string
	params  []runtime.GenerateParams
	block   chan struct{}
	closed  bool
	gotPath string
	gotOpts runtime.LoadOptions
	// loadStarted is closed when Load begins; Load then waits on loadBlock.
	loadStarted chan struct{}
	loadBlock   chan struct{}
}

func (f *fakeBackend) Load(ctx context.Context, modelPath string, opts runtime.LoadOptions) (runtime.Session, error) {
	f.mu.Lock()
	f.loads++
	f.gotPath = modelPath
	f.gotOpts = opts
	started, block, loadErr := f.loadStarted, f.loadBlock, f.loadErr
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if loadErr != nil {
		return nil, loadErr
	}
	return &fakeSession{f: f}, nil
}

func (f *fakeBackend) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeSession struct{ f *fakeBackend }

func (s *fakeSession) Generate(ctx context.Context, prompt string, params runtime.GenerateParams, onToken func(string) error) (runtime.Result, error) {
	s.f.mu.Lock()
	s.f.prompts = append(s.f.prompts, prompt)
	s.f.params = append(s.f.params, params)
	block, genErr, tokens, text := s.f.block, s.f.genErr, s.f.tokens, s.f.text
	s.f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return runtime.Result{}, ctx.Err()
		}
	}
	if genErr != nil {
		return runtime.Result{}, genErr
	}
	for _, t := range tokens {
		select {
		case <-ctx.Done():
			return runtime.Result{}, ctx.Err()
		default:
		}
		if onToken != nil {
			if err := onToken(t); err != nil {
				return runtime.Result{}, err
			}
		}
	}
	return runtime.Result{Text: text, FinishReason: "stop", Usage: runtime.Usage{CompletionTokens: len(tokens)}}, nil
}

func (s *fakeSession) Close() error {
	s.f.mu.Lock()
	s.f.closed = true
	s.f.mu.Unlock()
	return nil
}

var errBoom = errors.New("boom")

// newTestPredictor returns a predictor over fb that has completed Setup.
func newTestPredictor(t *testing.T, v Variant, fb *fakeBackend, mutate ...func(*Config)) *Predictor {
	t.Helper()
	cfg := Config{
		Variant: v,
		Model:   types.Model{ID: "test.gguf", Path: "/models/test.gguf"},
		Logger:  zerolog.Nop(),
		MaxWait: 200 * time.Millisecond,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	p := New(cfg, fb)
	if err := p.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
