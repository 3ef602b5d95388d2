package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"predictd/internal/predictor"
)

// newLogger builds the process logger. Output goes through a HoldWriter so
// streamed generations can keep log lines out of the token stream.
func newLogger(level, format string, out io.Writer) (zerolog.Logger, *predictor.HoldWriter, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	hold := predictor.NewHoldWriter(out)
	var w io.Writer = hold
	if useConsole(format, out) {
		w = zerolog.ConsoleWriter{Out: hold, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), hold, nil
}

func useConsole(format string, out io.Writer) bool {
	switch strings.ToLower(format) {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := out.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
