//go:build !llama

package runtime

// This file provides a no-CGO stub for the llama backend. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.
// The real backend lives in llama.go (tagged 'llama').

import (
	"context"

	"github.com/rs/zerolog"
)

// Built reports whether this binary was compiled with real llama support.
const Built = false

const notBuiltMsg = "llama support not built (missing 'llama' build tag)"

type llamaBackend struct{}

// NewLlama returns the llama.cpp backend. Without the 'llama' build tag every
// Load fails with a dependency-unavailable error.
func NewLlama(log zerolog.Logger) Backend { return llamaBackend{} }

func (llamaBackend) Load(ctx context.Context, modelPath string, opts LoadOptions) (Session, error) {
	return nil, ErrDependencyUnavailable(notBuiltMsg)
}
