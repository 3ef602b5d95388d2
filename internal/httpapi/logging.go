package httpapi

import (
	"bytes"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger used by the HTTP layer.
var zlog = zerolog.New(os.Stderr).With().Timestamp().Logger()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// loggingLineWriter logs complete NDJSON lines at debug level.
type loggingLineWriter struct {
	log zerolog.Logger
	buf []byte
}

func (lw *loggingLineWriter) Write(p []byte) (int, error) {
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		if idx > 0 {
			lw.log.Debug().Str("line", string(lw.buf[:idx])).Msg("predict>")
		}
		lw.buf = lw.buf[idx+1:]
	}
	return len(p), nil
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error", "warn":
		return LevelError
	case "info":
		return LevelInfo
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetDefaultLogLevel sets the level used when a request carries no override.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestLogger carries the per-request level and request id.
type requestLogger struct {
	lvl   LogLevel
	log   zerolog.Logger
	start time.Time
}

func newRequestLogger(r *http.Request) requestLogger {
	c := zlog.With().Str("path", r.URL.Path)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		c = c.Str("request_id", rid)
	}
	l := c.Logger()
	// Debug lines need the logger itself to pass debug events.
	lvl := requestLogLevel(r)
	if lvl >= LevelDebug {
		l = l.Level(zerolog.DebugLevel)
	}
	return requestLogger{lvl: lvl, log: l, start: time.Now()}
}

func (rl requestLogger) begin(msg string) {
	if rl.lvl >= LevelInfo {
		rl.log.Info().Msg(msg)
	}
}

func (rl requestLogger) end(msg string, status int, err error) {
	switch {
	case err != nil && rl.lvl >= LevelError:
		rl.log.Info().Int("status", status).Dur("dur", time.Since(rl.start)).Err(err).Msg(msg)
	case err == nil && rl.lvl >= LevelInfo:
		rl.log.Info().Int("status", status).Dur("dur", time.Since(rl.start)).Msg(msg)
	}
}

// lineLogger returns a writer that logs NDJSON lines, or nil below debug.
func (rl requestLogger) lineLogger() *loggingLineWriter {
	if rl.lvl < LevelDebug {
		return nil
	}
	return &loggingLineWriter{log: rl.log}
}
