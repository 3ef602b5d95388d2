package predictor

import (
	"context"
	"errors"
	"strings"
	"time"

	"predictd/internal/runtime"
	"predictd/pkg/types"
)

// Result is the outcome of one prediction.
type Result struct {
	// Output is the final string returned to the caller.
	Output       string
	Pieces       int
	Cached       bool
	Duration     time.Duration
	Usage        runtime.Usage
	FinishReason string
}

// Predict runs a single generation. Fields the configured variant does not
// accept are reset to defaults, bounds are checked, the prompt is wrapped in
// the instruction template, and the sampling parameters are handed to the
// runtime unchanged. onPiece, when non-nil, observes each piece as it is
// produced; returning an error from it aborts the prediction.
func (p *Predictor) Predict(ctx context.Context, in types.PredictInput, onPiece func(string) error) (Result, error) {
	start := time.Now()
	in = Normalize(p.variant, in)
	if err := Validate(p.variant, in); err != nil {
		predictionsTotal.WithLabelValues(string(p.variant), "invalid").Inc()
		return Result{}, err
	}
	sess, err := p.session()
	if err != nil {
		predictionsTotal.WithLabelValues(string(p.variant), "not_ready").Inc()
		return Result{}, err
	}

	key := cacheKey(p.variant, p.model.ID, in)
	if out, ok := p.cache.get(key); ok {
		if onPiece != nil {
			if err := onPiece(out); err != nil {
				return Result{}, err
			}
		}
		cacheHitsTotal.Inc()
		predictionsTotal.WithLabelValues(string(p.variant), "cached").Inc()
		p.predictions.Add(1)
		return Result{Output: out, Pieces: 1, Cached: true, Duration: time.Since(start), FinishReason: "cached"}, nil
	}

	release, err := p.beginGeneration(ctx)
	if err != nil {
		if IsTooBusy(err) {
			predictionsTotal.WithLabelValues(string(p.variant), "busy").Inc()
		}
		return Result{}, err
	}
	defer release()

	prompt := FormatPrompt(in.SystemPrompt, in.Prompt)
	params := generateParams(p.variant, in)
	params.Threads = p.threads
	p.publisher.Publish(Event{Name: "predict_start", ModelID: p.model.ID, Fields: map[string]any{
		"variant":        string(p.variant),
		"max_new_tokens": in.MaxNewTokens,
	}})

	var res Result
	switch p.variant {
	case VariantStream:
		res, err = p.generateStream(ctx, sess, prompt, params, in.SkipPrompt, onPiece)
	default:
		res, err = p.generateSync(ctx, sess, prompt, params, onPiece)
	}
	res.Duration = time.Since(start)
	predictionDuration.WithLabelValues(string(p.variant)).Observe(res.Duration.Seconds())
	piecesTotal.Add(float64(res.Pieces))
	if err != nil {
		status := "failed"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "canceled"
		}
		predictionsTotal.WithLabelValues(string(p.variant), status).Inc()
		p.publisher.Publish(Event{Name: "predict_error", ModelID: p.model.ID, Fields: map[string]any{"error": err.Error()}})
		return Result{}, err
	}
	predictionsTotal.WithLabelValues(string(p.variant), "succeeded").Inc()
	p.predictions.Add(1)
	p.cache.set(key, res.Output)
	p.publisher.Publish(Event{Name: "predict_done", ModelID: p.model.ID, Fields: map[string]any{
		"pieces": res.Pieces,
		"dur":    res.Duration.String(),
	}})
	p.log.Info().
		Str("variant", string(p.variant)).
		Int("pieces", res.Pieces).
		Str("finish", res.FinishReason).
		Dur("dur", res.Duration).
		Msg("prediction finished")
	return res, nil
}

// generateSync decodes the prompt plus continuation and returns only the
// text after the last instruction-closing marker.
func (p *Predictor) generateSync(ctx context.Context, sess runtime.Session, prompt string, params runtime.GenerateParams, onPiece func(string) error) (Result, error) {
	var b strings.Builder
	pieces := 0
	gen, err := sess.Generate(ctx, prompt, params, func(tok string) error {
		b.WriteString(tok)
		pieces++
		if onPiece != nil {
			return onPiece(tok)
		}
		return nil
	})
	if err != nil {
		return Result{Pieces: pieces}, err
	}
	text := gen.Text
	if text == "" {
		text = b.String()
	}
	return Result{
		Output:       ExtractResponse(prompt + text),
		Pieces:       pieces,
		Usage:        gen.Usage,
		FinishReason: gen.FinishReason,
	}, nil
}

// generateStream collects every piece the runtime emits. Log output is held
// until generation completes so it does not interleave with the stream.
func (p *Predictor) generateStream(ctx context.Context, sess runtime.Session, prompt string, params runtime.GenerateParams, skipPrompt bool, onPiece func(string) error) (Result, error) {
	if p.hold != nil {
		p.hold.Hold()
		defer func() {
			dropped := p.hold.Dropped()
			_ = p.hold.Release()
			if dropped > 0 {
				p.log.Warn().Int("bytes", dropped).Msg("held log output exceeded buffer; bytes dropped")
			}
		}()
	}
	var b strings.Builder
	pieces := 0
	emit := func(s string) error {
		b.WriteString(s)
		pieces++
		if onPiece != nil {
			return onPiece(s)
		}
		return nil
	}
	if !skipPrompt {
		if err := emit(prompt); err != nil {
			return Result{Pieces: pieces}, err
		}
	}
	promptPieces := pieces
	gen, err := sess.Generate(ctx, prompt, params, emit)
	if err != nil {
		return Result{Pieces: pieces}, err
	}
	// Runtimes that do not stream still report the full text.
	if pieces == promptPieces && gen.Text != "" {
		if err := emit(gen.Text); err != nil {
			return Result{Pieces: pieces}, err
		}
	}
	return Result{
		Output:       b.String(),
		Pieces:       pieces,
		Usage:        gen.Usage,
		FinishReason: gen.FinishReason,
	}, nil
}
