package predictor

import "fmt"

// State represents lifecycle state of the predictor.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateError    State = "error"
	StateDraining State = "draining"
)

// Variant selects how generation output is assembled.
type Variant string

const (
	VariantSync   Variant = "sync"
	VariantStream Variant = "stream"
)

// ParseVariant maps a configuration string to a Variant. Empty means sync.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", VariantSync:
		return VariantSync, nil
	case VariantStream:
		return VariantStream, nil
	default:
		return "", fmt.Errorf("unknown variant %q (want sync or stream)", s)
	}
}
