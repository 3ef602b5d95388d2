package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"predictd/internal/predictor"
	"predictd/pkg/types"
)

func TestLoadDotEnvMissingFileIsIgnored(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, loadDotEnv(""))
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "predictd.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("addr: :7000\nvariant: stream\nmax_queue_depth: 3\n"), 0o644))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("PREDICTD_MAX_QUEUE_DEPTH=9\n"), 0o644))
	// godotenv never overrides variables that exist, even empty ones.
	t.Setenv("PREDICTD_MAX_QUEUE_DEPTH", "")
	require.NoError(t, os.Unsetenv("PREDICTD_MAX_QUEUE_DEPTH"))

	a := &app{configPath: cfgPath, envFile: envPath}
	a.flags.Addr = ":8000"
	a.flags.LogFormat = "json"
	require.NoError(t, a.init())

	assert.Equal(t, ":8000", a.cfg.Addr, "flag wins over file")
	assert.Equal(t, "stream", a.cfg.Variant, "file wins over defaults")
	assert.Equal(t, 9, a.cfg.MaxQueueDepth, "env wins over file")
	assert.Equal(t, int64(1<<20), a.cfg.MaxBodyBytes, "defaults fill the rest")
	assert.NotNil(t, a.hold)
}

func TestInitRejectsBadConfig(t *testing.T) {
	t.Setenv("PREDICTD_CONFIG", "")
	a := &app{configPath: filepath.Join(t.TempDir(), "cfg.ini")}
	require.Error(t, a.init())

	a = &app{}
	a.flags.LogLevel = "loud"
	require.Error(t, a.init())
}

func TestNewLoggerHoldsOutput(t *testing.T) {
	var buf bytes.Buffer
	log, hold, err := newLogger("warn", "json", &buf)
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log.Info().Msg("dropped")
	hold.Hold()
	log.Warn().Msg("held")
	assert.Empty(t, buf.String())
	require.NoError(t, hold.Release())
	assert.Contains(t, buf.String(), `"message":"held"`)
	assert.NotContains(t, buf.String(), "dropped")
}

func TestUseConsole(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useConsole("console", &buf))
	assert.False(t, useConsole("json", &buf))
	assert.False(t, useConsole("auto", &buf), "non-file writers are never terminals")
}

func TestInputFlagsOnlyOverrideSetFlags(t *testing.T) {
	fs := pflag.NewFlagSet("predict", pflag.ContinueOnError)
	b := bindInputFlags(fs)
	require.NoError(t, fs.Parse([]string{"-p", "hello", "--temperature", "0", "--random-seed", "7"}))

	def := predictor.DefaultInput(predictor.VariantStream)
	got := b.resolve(fs, def)

	assert.Equal(t, "hello", got.Prompt)
	assert.Equal(t, 0.0, got.Temperature)
	assert.Equal(t, int64(7), got.RandomSeed)
	assert.Equal(t, def.TopP, got.TopP)
	assert.Equal(t, def.MaxNewTokens, got.MaxNewTokens)
	assert.Equal(t, def.SystemPrompt, got.SystemPrompt)
}

func TestWriteSchema(t *testing.T) {
	s := predictor.Schema(predictor.VariantSync)

	var y bytes.Buffer
	require.NoError(t, writeSchema(&y, s, "yaml"))
	var fromYAML types.SchemaResponse
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &fromYAML))
	assert.Equal(t, "sync", fromYAML.Variant)
	assert.Len(t, fromYAML.Fields, len(s.Fields))

	var j bytes.Buffer
	require.NoError(t, writeSchema(&j, s, "json"))
	var fromJSON types.SchemaResponse
	require.NoError(t, json.Unmarshal(j.Bytes(), &fromJSON))
	assert.Equal(t, s.Fields[0].Name, fromJSON.Fields[0].Name)

	require.Error(t, writeSchema(&j, s, "xml"))
}

func TestWriteModels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeModels(&buf, nil))
	assert.Equal(t, "no models found\n", buf.String())

	buf.Reset()
	require.NoError(t, writeModels(&buf, []types.Model{{ID: "a.Q4_0.gguf", Quant: "Q4_0", Family: "llama", SizeBytes: 3 << 30}}))
	out := buf.String()
	for _, want := range []string{"ID", "a.Q4_0.gguf", "Q4_0", "llama", "3.0 GiB"} {
		assert.True(t, strings.Contains(out, want), "missing %q in %q", want, out)
	}
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.5 KiB", humanBytes(1536))
	assert.Equal(t, "4.0 MiB", humanBytes(4<<20))
}

func TestPrintResult(t *testing.T) {
	var out, errOut bytes.Buffer
	m := types.PredictionMetrics{PredictTime: 1.5, Pieces: 3, Cached: true}
	require.NoError(t, printResult(&out, &errOut, "answer", m, printOptions{}))
	assert.Equal(t, "answer\n", out.String())
	assert.Contains(t, errOut.String(), "3 pieces in 1.50s (cached)")

	out.Reset()
	require.NoError(t, printResult(&out, &errOut, "answer", m, printOptions{json: true}))
	var resp types.PredictionResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "answer", resp.Output)
	assert.Equal(t, 3, resp.Metrics.Pieces)
}

func TestNewBackendAndModelResolution(t *testing.T) {
	a := &app{}
	a.cfg.Backend = "bogus"
	_, err := a.newBackend()
	require.Error(t, err)

	a.cfg.Backend = "server"
	a.cfg.ModelPath = filepath.Join(t.TempDir(), "missing")
	b, err := a.newBackend()
	require.NoError(t, err)
	require.NotNil(t, b)
	m, err := a.resolveModel()
	require.NoError(t, err, "server backend does not need local weights")
	assert.Equal(t, "llama-server", m.ID)

	a.cfg.Backend = "llama"
	_, err = a.resolveModel()
	require.Error(t, err)
}
