// Command brepview serves an HTTP endpoint that converts uploaded solid
// models (STL, OBJ and scene scripts) into triangle meshes with wireframe
// edges and a bounding box for a browser viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chazu/brepview/internal/config"
	"github.com/chazu/brepview/internal/metrics"
	"github.com/chazu/brepview/pkg/engine"
	"github.com/chazu/brepview/pkg/kernel"
	"github.com/chazu/brepview/pkg/kernel/manifold"
	"github.com/chazu/brepview/pkg/kernel/sdfx"
	"github.com/chazu/brepview/pkg/loader"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg, "brepview", logger)

	k := selectKernel(logger)
	eng := engine.NewEngine(k,
		engine.WithTimeout(cfg.ScriptTimeout),
		engine.WithMaxConcurrent(cfg.MaxScripts),
		engine.WithLogger(logger),
	)
	app := NewApp(loader.New(eng, logger), collector, cfg.UploadDir, cfg.Tolerance, logger)

	handler := NewHandler(ctx, app, reg, ServerConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}

// selectKernel prefers Manifold when the binary was built with it.
func selectKernel(logger *zap.Logger) kernel.Kernel {
	k, err := manifold.New()
	if err == nil {
		logger.Info("using manifold kernel")
		return k
	}
	if !errors.Is(err, manifold.ErrUnavailable) {
		logger.Warn("manifold kernel failed to initialize", zap.Error(err))
	}
	logger.Info("using sdfx kernel")
	return sdfx.New()
}

func initLogger(level, format string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      format == "console",
		Encoding:         format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
