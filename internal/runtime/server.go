package runtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServerOptions configures the llama.cpp server backend.
type ServerOptions struct {
	// BaseURL of a running llama.cpp server, e.g. http://127.0.0.1:8081.
	BaseURL        string
	APIKey         string
	ConnectTimeout time.Duration
}

// serverBackend talks to a running llama.cpp server over HTTP. The server owns
// the model weights, so the local model path is informational only.
type serverBackend struct {
	opts ServerOptions
	cli  *http.Client
	log  zerolog.Logger
}

// NewServer returns a Backend that streams completions from a llama.cpp server.
func NewServer(opts ServerOptions, log zerolog.Logger) Backend {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// No client timeout: generations are bounded by the caller's context.
	return &serverBackend{
		opts: opts,
		cli:  &http.Client{Transport: tr},
		log:  log.With().Str("component", "llama_server").Logger(),
	}
}

func (b *serverBackend) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.opts.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.opts.APIKey)
	}
	return req, nil
}

// Load checks that the server is up and has finished loading its model.
func (b *serverBackend) Load(ctx context.Context, modelPath string, opts LoadOptions) (Session, error) {
	if b.opts.BaseURL == "" {
		return nil, ErrDependencyUnavailable("llama server url is empty")
	}
	req, err := b.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.cli.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrDependencyUnavailable("llama server unreachable: " + err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, ErrDependencyUnavailable(fmt.Sprintf("llama server not healthy: %s: %s", resp.Status, strings.TrimSpace(string(msg))))
	}
	b.log.Info().Str("url", b.opts.BaseURL).Str("model", modelPath).Msg("llama server ready")
	return &serverSession{backend: b}, nil
}

type serverSession struct {
	backend *serverBackend
}

// completionRequest is the native llama.cpp /completion payload.
type completionRequest struct {
	Prompt        string   `json:"prompt"`
	NPredict      int      `json:"n_predict,omitempty"`
	Temperature   float32  `json:"temperature"`
	TopK          int      `json:"top_k,omitempty"`
	TopP          float32  `json:"top_p,omitempty"`
	RepeatPenalty float32  `json:"repeat_penalty"`
	Seed          int      `json:"seed,omitempty"`
	Stop          []string `json:"stop,omitempty"`
	Stream        bool     `json:"stream"`
}

// completionChunk is one streamed server event.
type completionChunk struct {
	Content         string `json:"content"`
	Stop            bool   `json:"stop"`
	StopType        string `json:"stop_type"`
	StoppedLimit    bool   `json:"stopped_limit"`
	TokensPredicted int    `json:"tokens_predicted"`
	TokensEvaluated int    `json:"tokens_evaluated"`
}

func (s *serverSession) Generate(ctx context.Context, prompt string, params GenerateParams, onToken func(string) error) (Result, error) {
	b := s.backend
	if params.EtaCutoff > 0 || params.DecayFactor > 1 {
		b.log.Debug().
			Float32("eta_cutoff", params.EtaCutoff).
			Int("decay_start", params.DecayStart).
			Float32("decay_factor", params.DecayFactor).
			Msg("sampler knobs not supported by llama server; using server defaults")
	}
	body, err := json.Marshal(completionRequest{
		Prompt:        prompt,
		NPredict:      params.MaxTokens,
		Temperature:   params.Temperature,
		TopK:          params.TopK,
		TopP:          params.TopP,
		RepeatPenalty: params.RepetitionPenalty,
		Seed:          params.Seed,
		Stop:          params.Stop,
		Stream:        true,
	})
	if err != nil {
		return Result{}, err
	}
	req, err := b.newRequest(ctx, http.MethodPost, "/completion", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	resp, err := b.cli.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("llama server http error: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var (
		text  strings.Builder
		final completionChunk
	)
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			b.log.Debug().Str("line", line).Msg("unknown stream line")
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			final.Stop = true
			break
		}
		var c completionChunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			b.log.Debug().Err(err).Str("line", line).Msg("unparseable stream event")
			continue
		}
		if c.Content != "" {
			text.WriteString(c.Content)
			if onToken != nil {
				if err := onToken(c.Content); err != nil {
					return Result{}, err
				}
			}
		}
		if c.Stop {
			final = c
			break
		}
	}
	if err := sc.Err(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if !final.Stop {
		return Result{}, errors.New("llama server closed the stream before completion")
	}
	finish := "stop"
	if final.StoppedLimit || final.StopType == "limit" {
		finish = "length"
	}
	return Result{
		Text: text.String(),
		Usage: Usage{
			PromptTokens:     final.TokensEvaluated,
			CompletionTokens: final.TokensPredicted,
			TotalTokens:      final.TokensEvaluated + final.TokensPredicted,
		},
		FinishReason: finish,
	}, nil
}

// Close is a no-op: the server owns the model.
func (s *serverSession) Close() error { return nil }
