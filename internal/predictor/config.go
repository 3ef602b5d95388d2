package predictor

import (
	"time"

	"github.com/rs/zerolog"

	"predictd/internal/runtime"
	"predictd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDrainTimeout  = 10 * time.Second
	defaultCacheCapacity = 256
)

// Config encapsulates all tunables for Predictor construction.
type Config struct {
	Variant Variant
	// Model weights to load at Setup.
	Model types.Model
	Load  runtime.LoadOptions
	// Threads used for generation; 0 uses the load threads.
	Threads       int
	MaxQueueDepth int
	MaxWait       time.Duration
	DrainTimeout  time.Duration
	// CacheTTL enables the result cache for deterministic requests when > 0.
	CacheTTL      time.Duration
	CacheCapacity uint64
	Logger        zerolog.Logger
	// Hold, when set, is held for the duration of streamed generations. It
	// should be the writer behind Logger.
	Hold      *HoldWriter
	Publisher EventPublisher
}

// New constructs a Predictor from Config. The model is not loaded until Setup.
func New(cfg Config, backend runtime.Backend) *Predictor {
	p := &Predictor{
		state:     StateUnloaded,
		variant:   cfg.Variant,
		model:     cfg.Model,
		loadOpts:  cfg.Load,
		threads:   cfg.Threads,
		backend:   backend,
		log:       cfg.Logger.With().Str("component", "predictor").Logger(),
		hold:      cfg.Hold,
		publisher: cfg.Publisher,
		startTime: time.Now(),
	}
	if p.variant == "" {
		p.variant = VariantSync
	}
	if p.publisher == nil {
		p.publisher = LogPublisher{Log: p.log}
	}
	// Apply defaults if unset
	depth := cfg.MaxQueueDepth
	if depth <= 0 {
		depth = defaultMaxQueueDepth
	}
	p.maxWait = cfg.MaxWait
	if p.maxWait <= 0 {
		p.maxWait = defaultMaxWait
	}
	p.drainTimeout = cfg.DrainTimeout
	if p.drainTimeout <= 0 {
		p.drainTimeout = defaultDrainTimeout
	}
	if p.threads <= 0 {
		p.threads = cfg.Load.Threads
	}
	capacity := cfg.CacheCapacity
	if capacity == 0 {
		capacity = defaultCacheCapacity
	}
	p.cache = newResultCache(cfg.CacheTTL, capacity)
	p.genCh = make(chan struct{}, 1)
	p.queueCh = make(chan struct{}, depth)
	return p
}
