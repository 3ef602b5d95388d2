// Package predictor loads a model once and serves single text-generation
// calls against it. It is structured into small files by concern:
//
//   - predictor.go: core Predictor type, constructor, Setup and getters.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: state and variant types.
//   - errors.go: error types and helpers (IsTooBusy, IsInvalidInput, IsNotReady).
//   - params.go: the input field table, defaults, normalization and bounds checks.
//   - template.go: instruction prompt formatting and response extraction.
//   - predict.go: the Predict entry point for both variants.
//   - admission.go: queueing and single in-flight generation admission.
//   - holdwriter.go: log output held during streamed generation.
//   - cache.go: TTL cache for deterministic requests.
//   - events.go, metrics.go, status.go: observability.
//   - close.go: draining and releasing the model.
//
// Variants:
//
//   - sync: the runtime output is appended to the formatted prompt and the
//     text after the last instruction-closing marker is returned.
//   - stream: pieces are collected as the runtime emits them and concatenated;
//     the formatted prompt is emitted first unless skip_prompt is set, and log
//     output is held until generation completes.
package predictor
