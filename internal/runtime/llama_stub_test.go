//go:build !llama

package runtime

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubBackendRefusesToLoad(t *testing.T) {
	b := NewLlama(zerolog.Nop())
	sess, err := b.Load(context.Background(), "/models/x.gguf", LoadOptions{})
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.True(t, IsDependencyUnavailable(err))
	assert.False(t, Built)
}
