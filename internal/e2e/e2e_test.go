package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"predictd/internal/httpapi"
	"predictd/internal/predictor"
	"predictd/internal/registry"
	"predictd/internal/runtime"
	"predictd/pkg/types"
)

// llamaServer fakes the llama.cpp server endpoints the server backend uses.
type llamaServer struct {
	mu      sync.Mutex
	reply   []string
	release chan struct{} // when set, /completion waits for it before replying
	temps   []float64
}

func (s *llamaServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	case "/completion":
		var req struct {
			Temperature float64 `json:"temperature"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.temps = append(s.temps, req.Temperature)
		release := s.release
		s.mu.Unlock()
		if release != nil {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range s.reply {
			b, _ := json.Marshal(map[string]any{"content": piece, "stop": false})
			_, _ = w.Write([]byte("data: " + string(b) + "\n\n"))
		}
		_, _ = w.Write([]byte(`data: {"content":"","stop":true,"tokens_predicted":3}` + "\n\n"))
	default:
		http.NotFound(w, r)
	}
}

func (s *llamaServer) temperatures() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.temps...)
}

// createTempModelsDir creates a temporary directory populated with empty .gguf files.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", n, err)
		}
	}
	return dir
}

type stack struct {
	api  *httptest.Server
	pred *predictor.Predictor
}

// newStack wires registry, server backend, predictor and HTTP API together.
// The predictor is not set up yet.
func newStack(t *testing.T, llama *llamaServer, cfg predictor.Config) stack {
	t.Helper()
	fake := httptest.NewServer(llama)
	t.Cleanup(fake.Close)

	dir := createTempModelsDir(t, "llama-2-7b-chat.Q4_K_M.gguf")
	model, err := registry.Resolve(dir, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	cfg.Model = model
	cfg.Logger = zerolog.Nop()
	p := predictor.New(cfg, runtime.NewServer(runtime.ServerOptions{BaseURL: fake.URL}, zerolog.Nop()))
	t.Cleanup(func() { _ = p.Close() })

	httpapi.SetLogger(zerolog.Nop())
	api := httptest.NewServer(httpapi.NewMux(p))
	t.Cleanup(api.Close)
	return stack{api: api, pred: p}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func TestE2E_Sync_Ready_Predict_Status(t *testing.T) {
	llama := &llamaServer{reply: []string{" AI", " is", " great"}}
	s := newStack(t, llama, predictor.Config{Variant: predictor.VariantSync})

	// Before setup the service is alive but not ready.
	if resp, _ := httpGet(t, s.api.URL+"/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("/healthz %d", resp.StatusCode)
	}
	if resp, _ := httpGet(t, s.api.URL+"/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before setup %d", resp.StatusCode)
	}
	if resp, body := httpPostJSON(t, s.api.URL+"/predictions", `{"input":{}}`); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/predictions before setup %d %s", resp.StatusCode, body)
	}

	if err := s.pred.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if resp, _ := httpGet(t, s.api.URL+"/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz after setup %d", resp.StatusCode)
	}

	resp, body := httpPostJSON(t, s.api.URL+"/predictions", `{"input":{"prompt":"[INST]Tell me about AI[/INST]","temperature":0.5}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/predictions %d %s", resp.StatusCode, body)
	}
	var pr types.PredictionResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		t.Fatalf("json: %v", err)
	}
	if pr.Output != "AI is great" {
		t.Fatalf("output=%q", pr.Output)
	}
	if temps := llama.temperatures(); len(temps) != 1 || temps[0] != 0.5 {
		t.Fatalf("temperature not passed through: %v", temps)
	}

	// A prompt without the closing marker is echoed back in front of the answer.
	_, body = httpPostJSON(t, s.api.URL+"/predictions", `{"input":{"prompt":"Tell me about AI"}}`)
	if err := json.Unmarshal(body, &pr); err != nil {
		t.Fatalf("json: %v", err)
	}
	if pr.Output != "Tell me about AI AI is great" {
		t.Fatalf("echo output=%q", pr.Output)
	}

	resp, body = httpPostJSON(t, s.api.URL+"/predictions", `{"input":{"temperature":6}}`)
	if resp.StatusCode != http.StatusUnprocessableEntity || !strings.Contains(string(body), "temperature") {
		t.Fatalf("out-of-range temperature: %d %s", resp.StatusCode, body)
	}

	resp, body = httpGet(t, s.api.URL+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/status %d", resp.StatusCode)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.State != "ready" || st.Variant != "sync" || st.PredictionsTotal != 2 {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Model == nil || st.Model.Quant != "Q4_K_M" || st.Model.Family != "llama" {
		t.Fatalf("unexpected model: %+v", st.Model)
	}
}

func TestE2E_Stream_PromptThenPieces(t *testing.T) {
	llama := &llamaServer{reply: []string{"Hi", " there"}}
	s := newStack(t, llama, predictor.Config{Variant: predictor.VariantStream})
	if err := s.pred.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	resp, body := httpPostJSON(t, s.api.URL+"/predictions/stream", `{"input":{"prompt":"Say hi","system_prompt":"Be brief.","skip_prompt":false}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/predictions/stream %d %s", resp.StatusCode, body)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	var events []types.StreamEvent
	for _, l := range lines {
		var ev types.StreamEvent
		if err := json.Unmarshal([]byte(l), &ev); err != nil {
			t.Fatalf("json line %q: %v", l, err)
		}
		events = append(events, ev)
	}
	if len(events) != 4 {
		t.Fatalf("expected prompt, two pieces and done; got %d events", len(events))
	}
	prompt := predictor.FormatPrompt("Be brief.", "Say hi")
	if events[0].Token != prompt {
		t.Fatalf("first piece should be the formatted prompt, got %q", events[0].Token)
	}
	last := events[3]
	if !last.Done || last.Output != prompt+"Hi there" {
		t.Fatalf("final frame: %+v", last)
	}
}

func TestE2E_Backpressure429(t *testing.T) {
	release := make(chan struct{})
	llama := &llamaServer{reply: []string{"ok"}, release: release}
	s := newStack(t, llama, predictor.Config{
		Variant:       predictor.VariantSync,
		MaxQueueDepth: 1,
		MaxWait:       50 * time.Millisecond,
	})
	if err := s.pred.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	first := make(chan int, 1)
	go func() {
		resp, _ := httpPostJSON(t, s.api.URL+"/predictions", `{"input":{}}`)
		first <- resp.StatusCode
	}()
	deadline := time.Now().Add(2 * time.Second)
	for s.pred.Status().Inflight == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first request never started generating")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, body := httpPostJSON(t, s.api.URL+"/predictions", `{"input":{}}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 while busy, got %d %s", resp.StatusCode, body)
	}

	close(release)
	if code := <-first; code != http.StatusOK {
		t.Fatalf("first request status %d", code)
	}
}
