package types

// PredictInput is the input schema of a single prediction. Fields that are
// omitted from a request keep the predictor's defaults.
type PredictInput struct {
	// Prompt to send to the model.
	// example: [INST]Tell me about AI[/INST]
	Prompt string `json:"prompt" yaml:"prompt" example:"[INST]Tell me about AI[/INST]"`
	// System prompt that helps guide system behavior.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
	// Number of new tokens (1-4096).
	// example: 512
	MaxNewTokens int `json:"max_new_tokens" yaml:"max_new_tokens" example:"512"`
	// Randomness of outputs, 0 is deterministic, greater than 1 is random (0-5).
	// example: 1.0
	Temperature float64 `json:"temperature" yaml:"temperature" example:"1.0"`
	// Nucleus sampling probability (stream variant, 0.01-1).
	// example: 0.95
	TopP float64 `json:"top_p,omitempty" yaml:"top_p,omitempty" example:"0.95"`
	// Cutoff for eta sampling (sync variant, 0.0003-0.004).
	// example: 0.002
	EtaCutoff float64 `json:"eta_cutoff,omitempty" yaml:"eta_cutoff,omitempty" example:"0.002"`
	// Penalty for repeated words; 1 is no penalty (0-5).
	// example: 1.0
	RepetitionPenalty float64 `json:"repetition_penalty" yaml:"repetition_penalty" example:"1.0"`
	// Number of tokens to wait before starting exponential decay (0-4096).
	// example: 512
	ExponentialDecayStart int `json:"exponential_decay_start" yaml:"exponential_decay_start" example:"512"`
	// Decay factor for exponential length decay (1-10).
	// example: 1.0
	ExponentialDecayFactor float64 `json:"exponential_decay_factor" yaml:"exponential_decay_factor" example:"1.0"`
	// Skip the prompt in the streamed output (stream variant).
	// example: true
	SkipPrompt bool `json:"skip_prompt" yaml:"skip_prompt" example:"true"`
	// Random seed; 0 lets the runtime choose (stream variant).
	// example: 0
	RandomSeed int64 `json:"random_seed" yaml:"random_seed" example:"0"`
}

// PredictionRequest is the request envelope accepted by POST /predictions.
type PredictionRequest struct {
	// Optional client-supplied prediction id. The request id is used when empty.
	ID string `json:"id,omitempty"`
	// Prediction input.
	Input PredictInput `json:"input"`
}

// PredictionMetrics reports timing and accounting for a finished prediction.
type PredictionMetrics struct {
	// Wall time spent predicting, in seconds.
	// example: 1.25
	PredictTime float64 `json:"predict_time" example:"1.25"`
	// Number of pieces emitted by the runtime.
	// example: 87
	Pieces int `json:"pieces" example:"87"`
	// True when the output was served from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// PredictionResponse is returned by POST /predictions.
type PredictionResponse struct {
	// Prediction id.
	ID string `json:"id,omitempty"`
	// succeeded or failed.
	// example: succeeded
	Status string `json:"status" example:"succeeded"`
	// Generated continuation with the prompt template stripped.
	Output string `json:"output"`
	// Error message when status is failed.
	Error string `json:"error,omitempty"`
	// Timing and accounting.
	Metrics *PredictionMetrics `json:"metrics,omitempty"`
}

// StreamEvent is one NDJSON line (or websocket frame) of a streamed prediction.
type StreamEvent struct {
	// Piece of generated text.
	Token string `json:"token,omitempty"`
	// Set on the final frame.
	Done bool `json:"done,omitempty"`
	// Final output, present on the final frame.
	Output string `json:"output,omitempty"`
	// Error message, present on a failed final frame.
	Error string `json:"error,omitempty"`
	// Timing and accounting, present on the final frame.
	Metrics *PredictionMetrics `json:"metrics,omitempty"`
}

// SchemaField describes one input field and its declared bounds.
type SchemaField struct {
	// example: temperature
	Name string `json:"name" yaml:"name" example:"temperature"`
	// One of string, integer, number, boolean.
	// example: number
	Type        string   `json:"type" yaml:"type" example:"number"`
	Description string   `json:"description" yaml:"description"`
	Minimum     *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	Default     any      `json:"default" yaml:"default"`
}

// SchemaResponse is returned by GET /schema.
type SchemaResponse struct {
	// example: sync
	Variant string        `json:"variant" yaml:"variant" example:"sync"`
	Fields  []SchemaField `json:"fields" yaml:"fields"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SanityReport describes runtime checks for the model dependency.
type SanityReport struct {
	// True when the binary was built with the llama runtime.
	RuntimeBuilt bool `json:"runtime_built"`
	// True when the model weights exist on disk.
	ModelFound bool   `json:"model_found"`
	ModelPath  string `json:"model_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Predictor state (loading, ready, error, draining).
	// example: ready
	State string `json:"state" example:"ready"`
	// Configured variant.
	// example: sync
	Variant string `json:"variant" example:"sync"`
	// Loaded model.
	Model *Model `json:"model,omitempty"`
	// Last error observed by the predictor (if any).
	LastError string `json:"last_error,omitempty"`
	// Current queue length for incoming requests.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Number of in-flight generations.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued requests allowed before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Total predictions served since start.
	// example: 12
	PredictionsTotal uint64 `json:"predictions_total" example:"12"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Runtime dependency checks.
	Sanity SanityReport `json:"sanity"`
}
