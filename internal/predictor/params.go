package predictor

import (
	"math"
	"strconv"

	"predictd/internal/runtime"
	"predictd/pkg/types"
)

// DefaultPrompt and DefaultSystemPrompt are used when a request omits them.
const (
	DefaultPrompt       = "[INST]Tell me about AI[/INST]"
	DefaultSystemPrompt = "You are a helpful, respectful and honest assistant. Always answer as helpfully as possible, while being safe.  Your answers should not include any harmful, unethical, racist, sexist, toxic, dangerous, or illegal content. Please ensure that your responses are socially unbiased and positive in nature. If a question does not make any sense, or is not factually coherent, explain why instead of answering something not correct. If you don't know the answer to a question, please don't share false information."
)

// libraryTopK is the top-k the generation library applies when callers do
// not choose one.
const libraryTopK = 50

// DefaultInput returns the defaults for variant v. Fields that v does not
// accept are left at their zero value.
func DefaultInput(v Variant) types.PredictInput {
	in := types.PredictInput{
		Prompt:                 DefaultPrompt,
		SystemPrompt:           DefaultSystemPrompt,
		MaxNewTokens:           512,
		Temperature:            1.0,
		RepetitionPenalty:      1.0,
		ExponentialDecayStart:  512,
		ExponentialDecayFactor: 1.0,
	}
	switch v {
	case VariantStream:
		in.TopP = 0.95
		in.SkipPrompt = true
	default:
		in.EtaCutoff = 0.002
	}
	return in
}

func bound(v float64) *float64 { return &v }

// field describes one input field: its declared bounds, the variant that
// accepts it, and accessors used for validation and normalization.
type field struct {
	name string
	kind string
	desc string
	min  *float64
	max  *float64
	// only restricts the field to one variant; empty accepts it everywhere.
	only   Variant
	value  func(in *types.PredictInput) any
	number func(in *types.PredictInput) float64
	reset  func(in *types.PredictInput, def types.PredictInput)
}

var fields = []field{
	{
		name:  "prompt",
		kind:  "string",
		desc:  "Prompt to send to the model",
		value: func(in *types.PredictInput) any { return in.Prompt },
		reset: func(in *types.PredictInput, def types.PredictInput) { in.Prompt = def.Prompt },
	},
	{
		name:  "system_prompt",
		kind:  "string",
		desc:  "System prompt that helps guide system behavior",
		value: func(in *types.PredictInput) any { return in.SystemPrompt },
		reset: func(in *types.PredictInput, def types.PredictInput) { in.SystemPrompt = def.SystemPrompt },
	},
	{
		name:   "max_new_tokens",
		kind:   "integer",
		desc:   "Number of new tokens",
		min:    bound(1),
		max:    bound(4096),
		value:  func(in *types.PredictInput) any { return in.MaxNewTokens },
		number: func(in *types.PredictInput) float64 { return float64(in.MaxNewTokens) },
		reset:  func(in *types.PredictInput, def types.PredictInput) { in.MaxNewTokens = def.MaxNewTokens },
	},
	{
		name:   "temperature",
		kind:   "number",
		desc:   "Randomness of outputs, 0 is deterministic, greater than 1 is random",
		min:    bound(0),
		max:    bound(5),
		value:  func(in *types.PredictInput) any { return in.Temperature },
		number: func(in *types.PredictInput) float64 { return in.Temperature },
		reset:  func(in *types.PredictInput, def types.PredictInput) { in.Temperature = def.Temperature },
	},
	{
		name:   "top_p",
		kind:   "number",
		desc:   "When decoding text, samples from the top p percentage of most likely tokens; lower to ignore less likely tokens",
		min:    bound(0.01),
		max:    bound(1),
		only:   VariantStream,
		value:  func(in *types.PredictInput) any { return in.TopP },
		number: func(in *types.PredictInput) float64 { return in.TopP },
		reset:  func(in *types.PredictInput, def types.PredictInput) { in.TopP = def.TopP },
	},
	{
		name:   "eta_cutoff",
		kind:   "number",
		desc:   "Cutoff for eta sampling",
		min:    bound(0.0003),
		max:    bound(0.004),
		only:   VariantSync,
		value:  func(in *types.PredictInput) any { return in.EtaCutoff },
		number: func(in *types.PredictInput) float64 { return in.EtaCutoff },
		reset:  func(in *types.PredictInput, def types.PredictInput) { in.EtaCutoff = def.EtaCutoff },
	},
	{
		name:   "repetition_penalty",
		kind:   "number",
		desc:   "Penalty for repeated words in generated text; 1 is no penalty, values greater than 1 discourage repetition, less than 1 encourage it",
		min:    bound(0),
		max:    bound(5),
		value:  func(in *types.PredictInput) any { return in.RepetitionPenalty },
		number: func(in *types.PredictInput) float64 { return in.RepetitionPenalty },
		reset:  func(in *types.PredictInput, def types.PredictInput) { in.RepetitionPenalty = def.RepetitionPenalty },
	},
	{
		name:   "exponential_decay_start",
		kind:   "integer",
		desc:   "Number of tokens to wait before starting exponential decay",
		min:    bound(0),
		max:    bound(4096),
		value:  func(in *types.PredictInput) any { return in.ExponentialDecayStart },
		number: func(in *types.PredictInput) float64 { return float64(in.ExponentialDecayStart) },
		reset: func(in *types.PredictInput, def types.PredictInput) {
			in.ExponentialDecayStart = def.ExponentialDecayStart
		},
	},
	{
		name:   "exponential_decay_factor",
		kind:   "number",
		desc:   "Decay factor for exponential length decay",
		min:    bound(1),
		max:    bound(10),
		value:  func(in *types.PredictInput) any { return in.ExponentialDecayFactor },
		number: func(in *types.PredictInput) float64 { return in.ExponentialDecayFactor },
		reset: func(in *types.PredictInput, def types.PredictInput) {
			in.ExponentialDecayFactor = def.ExponentialDecayFactor
		},
	},
	{
		name:  "skip_prompt",
		kind:  "boolean",
		desc:  "Skip the prompt in the streamed output",
		only:  VariantStream,
		value: func(in *types.PredictInput) any { return in.SkipPrompt },
		reset: func(in *types.PredictInput, def types.PredictInput) { in.SkipPrompt = def.SkipPrompt },
	},
	{
		name:  "random_seed",
		kind:  "integer",
		desc:  "Random seed, 0 for a random seed",
		only:  VariantStream,
		value: func(in *types.PredictInput) any { return in.RandomSeed },
		reset: func(in *types.PredictInput, def types.PredictInput) { in.RandomSeed = def.RandomSeed },
	},
}

func (f field) accepts(v Variant) bool { return f.only == "" || f.only == v }

// Normalize resets every field that variant v does not accept to its
// default, so values sent for the other variant are ignored.
func Normalize(v Variant, in types.PredictInput) types.PredictInput {
	def := DefaultInput(v)
	for _, f := range fields {
		if !f.accepts(v) {
			f.reset(&in, def)
		}
	}
	return in
}

// Validate checks the declared inclusive bounds of every numeric field v accepts.
func Validate(v Variant, in types.PredictInput) error {
	for _, f := range fields {
		if !f.accepts(v) || f.number == nil {
			continue
		}
		n := f.number(&in)
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return ErrInvalidInput(f.name, "must be a finite number")
		}
		if f.min != nil && n < *f.min {
			return ErrInvalidInput(f.name, "must be greater than or equal to "+formatBound(*f.min))
		}
		if f.max != nil && n > *f.max {
			return ErrInvalidInput(f.name, "must be less than or equal to "+formatBound(*f.max))
		}
	}
	return nil
}

// Schema renders the field table for variant v.
func Schema(v Variant) types.SchemaResponse {
	def := DefaultInput(v)
	out := types.SchemaResponse{Variant: string(v)}
	for _, f := range fields {
		if !f.accepts(v) {
			continue
		}
		out.Fields = append(out.Fields, types.SchemaField{
			Name:        f.name,
			Type:        f.kind,
			Description: f.desc,
			Minimum:     f.min,
			Maximum:     f.max,
			Default:     f.value(&def),
		})
	}
	return out
}

// generateParams maps a validated input to runtime parameters. Sampling
// knobs pass through unchanged.
func generateParams(v Variant, in types.PredictInput) runtime.GenerateParams {
	p := runtime.GenerateParams{
		MaxTokens:         in.MaxNewTokens,
		Temperature:       float32(in.Temperature),
		TopK:              libraryTopK,
		RepetitionPenalty: float32(in.RepetitionPenalty),
		DecayStart:        in.ExponentialDecayStart,
		DecayFactor:       float32(in.ExponentialDecayFactor),
	}
	switch v {
	case VariantStream:
		p.TopP = float32(in.TopP)
		p.Seed = int(in.RandomSeed)
	default:
		p.TopP = 1
		p.EtaCutoff = float32(in.EtaCutoff)
	}
	return p
}

func formatBound(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
