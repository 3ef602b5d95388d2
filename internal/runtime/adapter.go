// Package runtime is the boundary to the external model library. Model
// loading, tokenization, sampling and decoding all happen behind Backend; this
// package only maps parameters and bridges token streaming.
package runtime

import "context"

// Backend loads model weights into a Session. Concrete implementations
// (e.g., llama.cpp) satisfy this interface.
type Backend interface {
	// Load reads the model at modelPath. It is called once at setup.
	Load(ctx context.Context, modelPath string, opts LoadOptions) (Session, error)
}

// Session is a loaded model that can serve generations. Sessions are not
// safe for concurrent Generate calls; callers serialize access.
type Session interface {
	// Generate runs one generation for prompt. onToken, when non-nil, is
	// invoked for every decoded piece; returning an error stops generation.
	// Implementations must return when ctx is canceled.
	Generate(ctx context.Context, prompt string, params GenerateParams, onToken func(string) error) (Result, error)
	// Close releases the model.
	Close() error
}

// LoadOptions are applied when the model is loaded.
type LoadOptions struct {
	ContextSize int
	GPULayers   int
	Threads     int
	MMap        bool
}

// GenerateParams are passed unchanged to the model library. EtaCutoff and the
// exponential decay fields have no counterpart in go-llama.cpp or the llama.cpp
// server; both backends only log them at debug level.
type GenerateParams struct {
	MaxTokens         int
	Temperature       float32
	TopP              float32
	TopK              int
	EtaCutoff         float32
	RepetitionPenalty float32
	// Exponential length decay: after DecayStart tokens the end-of-sequence
	// score grows by DecayFactor per token. A factor of 1 disables it.
	DecayStart  int
	DecayFactor float32
	// Seed 0 lets the runtime choose.
	Seed    int
	Stop    []string
	Threads int
}

// Result summarizes a finished generation.
type Result struct {
	Text         string
	Usage        Usage
	FinishReason string
}

// Usage contains token accounting. Zero values mean the runtime did not report it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
