//go:build llama

package runtime

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"
)

// Built reports whether this binary was compiled with real llama support.
const Built = true

// llamaBackend loads gguf weights through go-llama.cpp.
type llamaBackend struct {
	log zerolog.Logger
}

// NewLlama returns the llama.cpp backend.
func NewLlama(log zerolog.Logger) Backend {
	return &llamaBackend{log: log.With().Str("component", "llama").Logger()}
}

// llamaSession owns the loaded model
type llamaSession struct {
	model   *llama.LLama
	threads int
	log     zerolog.Logger
}

func (b *llamaBackend) Load(ctx context.Context, modelPath string, opts LoadOptions) (Session, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mo := []llama.ModelOption{
		llama.SetMMap(opts.MMap),
	}
	if opts.ContextSize > 0 {
		mo = append(mo, llama.SetContext(opts.ContextSize))
	}
	if opts.GPULayers > 0 {
		mo = append(mo, llama.SetGPULayers(opts.GPULayers))
	}
	b.log.Info().Str("path", modelPath).Int("ctx", opts.ContextSize).Int("gpu_layers", opts.GPULayers).Msg("loading model")
	m, err := llama.New(modelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaSession{model: m, threads: opts.Threads, log: b.log}, nil
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, params GenerateParams, onToken func(string) error) (Result, error) {
	if s.model == nil {
		return Result{}, errors.New("llama model not initialized")
	}
	var n atomic.Int64
	var cbErr error
	// Bridge token streaming to onToken and respect cancellation
	s.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		n.Add(1)
		if onToken != nil {
			if err := onToken(tok); err != nil {
				cbErr = err
				return false
			}
		}
		return true
	})
	defer s.model.SetTokenCallback(nil)

	if params.EtaCutoff > 0 || params.DecayFactor > 1 {
		s.log.Debug().
			Float32("eta_cutoff", params.EtaCutoff).
			Int("decay_start", params.DecayStart).
			Float32("decay_factor", params.DecayFactor).
			Msg("sampler knobs not exposed by llama.cpp bindings; using library defaults")
	}
	if params.Threads == 0 {
		params.Threads = s.threads
	}
	text, err := s.model.Predict(prompt, predictOptions(params)...)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if cbErr != nil {
			return Result{}, cbErr
		}
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if cbErr != nil {
		return Result{}, cbErr
	}
	completion := int(n.Load())
	finish := "stop"
	if params.MaxTokens > 0 && completion >= params.MaxTokens {
		finish = "length"
	}
	return Result{
		Text:         text,
		Usage:        Usage{CompletionTokens: completion, TotalTokens: completion},
		FinishReason: finish,
	}, nil
}

func (s *llamaSession) Close() error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

// predictOptions converts GenerateParams into go-llama.cpp options.
func predictOptions(p GenerateParams) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, p.MaxTokens)),
		llama.SetThreads(max(1, p.Threads)),
		llama.SetTemperature(p.Temperature),
		llama.SetTopP(zf(p.TopP, 1)),
		llama.SetTopK(zn(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetPenalty(p.RepetitionPenalty),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	return po
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
