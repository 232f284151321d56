package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/brepview/internal/metrics"
	"github.com/chazu/brepview/pkg/kernel"
	"github.com/chazu/brepview/pkg/loader"
	"github.com/chazu/brepview/pkg/mesh"
	"github.com/chazu/brepview/pkg/tessellate"
	"go.uber.org/zap"
)

// App converts uploaded files into renderer meshes.
type App struct {
	loader    *loader.Loader
	metrics   *metrics.Collector
	logger    *zap.Logger
	uploadDir string
	tolerance float64
}

// NewApp creates an App that stages uploads in uploadDir and tessellates
// with tolerance unless a request overrides it. metrics may be nil.
func NewApp(l *loader.Loader, m *metrics.Collector, uploadDir string, tolerance float64, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		loader:    l,
		metrics:   m,
		logger:    logger.With(zap.String("component", "app")),
		uploadDir: uploadDir,
		tolerance: tolerance,
	}
}

// Convert loads the contents of r as the file type implied by filename and
// returns its mesh. The upload is staged in a temporary file that is always
// removed before Convert returns.
func (a *App) Convert(ctx context.Context, filename string, r io.Reader, opts tessellate.Options) (*mesh.Output, error) {
	start := time.Now()

	format, err := loader.DetectFormat(filename)
	if err != nil {
		a.record("", metrics.OutcomeRejected, start)
		return nil, err
	}
	if format == loader.FormatSTEP {
		a.record(string(format), metrics.OutcomeRejected, start)
		return nil, loader.ErrNoSTEPKernel
	}

	path, err := a.stage(filename, r)
	if err != nil {
		a.record(string(format), metrics.OutcomeFailed, start)
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.logger.Warn("failed to remove staged upload", zap.String("path", path), zap.Error(err))
		}
	}()

	h, err := a.loader.LoadAs(format, path)
	if err != nil {
		a.record(string(format), metrics.OutcomeFailed, start)
		return nil, err
	}

	if opts.Tolerance <= 0 {
		opts.Tolerance = a.tolerance
	}
	if opts.Logger == nil {
		opts.Logger = a.logger
	}
	out, err := tessellate.Convert(ctx, h, opts)
	if err != nil {
		a.record(string(format), metrics.OutcomeFailed, start)
		return nil, err
	}

	a.record(string(format), metrics.OutcomeSuccess, start)
	if a.metrics != nil {
		a.metrics.RecordMesh(len(kernel.Enumerate(h)), out.VertexCount(), out.TriangleCount())
	}
	return out, nil
}

// stage copies r into a fresh file in the upload directory, keeping the
// original extension so the loaders can dispatch on it.
func (a *App) stage(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("app: create upload dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.CreateTemp(a.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("app: stage upload: %w", err)
	}
	path := f.Name()

	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(path)
		if copyErr == nil {
			copyErr = closeErr
		}
		return "", fmt.Errorf("app: stage upload: %w", copyErr)
	}
	return path, nil
}

func (a *App) record(format, outcome string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordConversion(format, outcome, time.Since(start))
	}
}
