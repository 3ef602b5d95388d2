package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"predictd/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the model and serve predictions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.flags.Addr, "addr", "", "HTTP listen address, e.g. :5000")
	f.IntVar(&a.flags.MaxQueueDepth, "max-queue-depth", 0, "Requests allowed to wait for the generation slot")
	f.IntVar(&a.flags.MaxWaitSeconds, "max-wait-seconds", 0, "Longest a request waits for the generation slot")
	f.Int64Var(&a.flags.PredictTimeoutSeconds, "predict-timeout-seconds", 0, "Per-request prediction timeout (0 disables)")
	f.IntVar(&a.flags.DrainTimeoutSeconds, "drain-timeout-seconds", 0, "Time allowed for in-flight work on shutdown")
	f.Int64Var(&a.flags.MaxBodyBytes, "max-body-bytes", 0, "Maximum request body size")
	f.IntVar(&a.flags.CacheTTLSeconds, "cache-ttl-seconds", 0, "Cache deterministic results for this long (0 disables)")
	f.BoolVar(&a.flags.CORSEnabled, "cors", false, "Enable CORS")
	f.StringSliceVar(&a.flags.CORSAllowedOrigins, "cors-origins", nil, "Allowed CORS origins (comma-separated)")
	f.BoolVar(&a.flags.Swagger, "swagger", false, "Serve the API browser under /swagger/")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	p, err := a.newPredictor()
	if err != nil {
		return err
	}
	cfg := a.cfg
	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetPredictTimeoutSeconds(cfg.PredictTimeoutSeconds)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)
	httpapi.SetSwaggerEnabled(cfg.Swagger)

	// base outlives the signal so in-flight requests can drain.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(base)

	go func() {
		if err := p.Setup(base); err != nil {
			a.log.Error().Err(err).Msg("model setup failed")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(p),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", cfg.Addr).Str("variant", string(p.Variant())).Msg("predictd listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = p.Close()
			return err
		}
	case <-sigCtx.Done():
	}

	a.log.Info().Msg("shutting down")
	drain := time.Duration(cfg.DrainTimeoutSeconds) * time.Second
	if drain <= 0 {
		drain = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown error")
	}
	cancelBase()
	return p.Close()
}
