package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"predictd/internal/config"
	"predictd/internal/predictor"
	"predictd/internal/registry"
	"predictd/internal/runtime"
	"predictd/pkg/types"
)

// app carries state shared by subcommands once PersistentPreRunE has run.
type app struct {
	configPath string
	envFile    string
	// flags holds values bound to command-line flags; non-zero fields win.
	flags config.Config
	cfg   config.Config
	log   zerolog.Logger
	hold  *predictor.HoldWriter
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "predictd",
		Short:         "Single-model LLM prediction server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml); defaults to $PREDICTD_CONFIG")
	pf.StringVar(&a.envFile, "env-file", ".env", "Dotenv file to load before reading PREDICTD_* variables")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&a.flags.LogFormat, "log-format", "", "Log format: auto|console|json")
	pf.StringVar(&a.flags.ModelPath, "model-path", "", "Model .gguf file or directory of .gguf files")
	pf.StringVar(&a.flags.Model, "model", "", "Model id or name to pick when --model-path is a directory")
	pf.StringVar(&a.flags.Variant, "variant", "", "Predictor variant: sync|stream")
	pf.StringVar(&a.flags.Backend, "backend", "", "Runtime backend: llama|server")
	pf.StringVar(&a.flags.ServerURL, "server-url", "", "llama.cpp server URL for --backend server")
	pf.IntVar(&a.flags.ContextSize, "context-size", 0, "Model context size in tokens")
	pf.IntVar(&a.flags.GPULayers, "gpu-layers", 0, "Layers to offload to the GPU")
	pf.IntVar(&a.flags.Threads, "threads", 0, "Generation threads (0 lets the runtime decide)")
	pf.BoolVar(&a.flags.NoMMap, "no-mmap", false, "Read weights into memory instead of mmap")

	root.AddCommand(newServeCmd(a), newPredictCmd(a), newSchemaCmd(a), newModelsCmd(a))
	return root
}

// init resolves configuration (defaults, file, environment, flags, in that
// order of precedence) and builds the logger.
func (a *app) init() error {
	if err := loadDotEnv(a.envFile); err != nil {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	cfg := config.Defaults()
	path := a.configPath
	if path == "" {
		path = os.Getenv("PREDICTD_CONFIG")
	}
	if path != "" {
		fileCfg, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = config.Merge(cfg, fileCfg)
	}
	cfg = config.Merge(cfg, config.FromEnv(nil))
	a.cfg = config.Merge(cfg, a.flags)

	log, hold, err := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	a.log, a.hold = log, hold
	return nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// newBackend picks the runtime named by the config.
func (a *app) newBackend() (runtime.Backend, error) {
	switch a.cfg.Backend {
	case "", "llama":
		return runtime.NewLlama(a.log), nil
	case "server":
		return runtime.NewServer(runtime.ServerOptions{BaseURL: a.cfg.ServerURL, APIKey: a.cfg.ServerAPIKey}, a.log), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want llama or server)", a.cfg.Backend)
	}
}

// resolveModel finds the weights to load. The server backend owns its
// weights, so a missing local file is only an error for the llama backend.
func (a *app) resolveModel() (types.Model, error) {
	model, err := registry.Resolve(a.cfg.ModelPath, a.cfg.Model)
	if err == nil || a.cfg.Backend != "server" {
		return model, err
	}
	name := a.cfg.Model
	if name == "" {
		name = "llama-server"
	}
	return types.Model{ID: name, Name: name}, nil
}

// newPredictor resolves the model and builds an unloaded predictor.
func (a *app) newPredictor() (*predictor.Predictor, error) {
	variant, err := predictor.ParseVariant(a.cfg.Variant)
	if err != nil {
		return nil, err
	}
	backend, err := a.newBackend()
	if err != nil {
		return nil, err
	}
	model, err := a.resolveModel()
	if err != nil {
		return nil, err
	}
	return predictor.New(predictor.Config{
		Variant: variant,
		Model:   model,
		Load: runtime.LoadOptions{
			ContextSize: a.cfg.ContextSize,
			GPULayers:   a.cfg.GPULayers,
			Threads:     a.cfg.Threads,
			MMap:        !a.cfg.NoMMap,
		},
		MaxQueueDepth: a.cfg.MaxQueueDepth,
		MaxWait:       time.Duration(a.cfg.MaxWaitSeconds) * time.Second,
		DrainTimeout:  time.Duration(a.cfg.DrainTimeoutSeconds) * time.Second,
		CacheTTL:      time.Duration(a.cfg.CacheTTLSeconds) * time.Second,
		CacheCapacity: a.cfg.CacheCapacity,
		Logger:        a.log,
		Hold:          a.hold,
	}, backend), nil
}
