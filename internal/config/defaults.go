package config

import (
	"os"
	"strconv"
	"strings"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:                ":5000",
		ModelPath:           "~/models/llm",
		Variant:             "sync",
		Backend:             "llama",
		ContextSize:         4096,
		MaxQueueDepth:       32,
		MaxWaitSeconds:      30,
		DrainTimeoutSeconds: 10,
		MaxBodyBytes:        1 << 20,
		CacheCapacity:       256,
		LogLevel:            "info",
		LogFormat:           "auto",
		CORSAllowedMethods:  []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders:  []string{"Content-Type", "X-Request-Id", "X-Log-Level"},
	}
}

// Merge overlays the non-zero fields of src onto dst.
func Merge(dst, src Config) Config {
	if src.Addr != "" {
		dst.Addr = src.Addr
	}
	if src.ModelPath != "" {
		dst.ModelPath = src.ModelPath
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Variant != "" {
		dst.Variant = src.Variant
	}
	if src.Backend != "" {
		dst.Backend = src.Backend
	}
	if src.ServerURL != "" {
		dst.ServerURL = src.ServerURL
	}
	if src.ServerAPIKey != "" {
		dst.ServerAPIKey = src.ServerAPIKey
	}
	if src.ContextSize != 0 {
		dst.ContextSize = src.ContextSize
	}
	if src.GPULayers != 0 {
		dst.GPULayers = src.GPULayers
	}
	if src.Threads != 0 {
		dst.Threads = src.Threads
	}
	if src.NoMMap {
		dst.NoMMap = true
	}
	if src.MaxQueueDepth != 0 {
		dst.MaxQueueDepth = src.MaxQueueDepth
	}
	if src.MaxWaitSeconds != 0 {
		dst.MaxWaitSeconds = src.MaxWaitSeconds
	}
	if src.PredictTimeoutSeconds != 0 {
		dst.PredictTimeoutSeconds = src.PredictTimeoutSeconds
	}
	if src.DrainTimeoutSeconds != 0 {
		dst.DrainTimeoutSeconds = src.DrainTimeoutSeconds
	}
	if src.MaxBodyBytes != 0 {
		dst.MaxBodyBytes = src.MaxBodyBytes
	}
	if src.CacheTTLSeconds != 0 {
		dst.CacheTTLSeconds = src.CacheTTLSeconds
	}
	if src.CacheCapacity != 0 {
		dst.CacheCapacity = src.CacheCapacity
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
	}
	if src.CORSEnabled {
		dst.CORSEnabled = true
	}
	if len(src.CORSAllowedOrigins) > 0 {
		dst.CORSAllowedOrigins = src.CORSAllowedOrigins
	}
	if len(src.CORSAllowedMethods) > 0 {
		dst.CORSAllowedMethods = src.CORSAllowedMethods
	}
	if len(src.CORSAllowedHeaders) > 0 {
		dst.CORSAllowedHeaders = src.CORSAllowedHeaders
	}
	if src.Swagger {
		dst.Swagger = true
	}
	return dst
}

// envPrefix namespaces environment overrides, e.g. PREDICTD_ADDR.
const envPrefix = "PREDICTD_"

// FromEnv reads PREDICTD_* variables through lookup (os.LookupEnv when nil).
// Unparseable numbers are ignored.
func FromEnv(lookup func(string) (string, bool)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(k string) string {
		v, _ := lookup(envPrefix + k)
		return strings.TrimSpace(v)
	}
	num := func(k string) int {
		n, _ := strconv.Atoi(str(k))
		return n
	}
	flag := func(k string) bool {
		b, _ := strconv.ParseBool(str(k))
		return b
	}
	var c Config
	c.Addr = str("ADDR")
	c.ModelPath = str("MODEL_PATH")
	c.Model = str("MODEL")
	c.Variant = str("VARIANT")
	c.Backend = str("BACKEND")
	c.ServerURL = str("SERVER_URL")
	c.ServerAPIKey = str("SERVER_API_KEY")
	c.ContextSize = num("CONTEXT_SIZE")
	c.GPULayers = num("GPU_LAYERS")
	c.Threads = num("THREADS")
	c.NoMMap = flag("NO_MMAP")
	c.MaxQueueDepth = num("MAX_QUEUE_DEPTH")
	c.MaxWaitSeconds = num("MAX_WAIT_SECONDS")
	c.PredictTimeoutSeconds = int64(num("PREDICT_TIMEOUT_SECONDS"))
	c.CacheTTLSeconds = num("CACHE_TTL_SECONDS")
	c.LogLevel = str("LOG_LEVEL")
	c.LogFormat = str("LOG_FORMAT")
	c.CORSEnabled = flag("CORS_ENABLED")
	c.CORSAllowedOrigins = SplitCSV(str("CORS_ALLOWED_ORIGINS"))
	c.Swagger = flag("SWAGGER")
	return c
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
