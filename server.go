package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/chazu/brepview/internal/web"
	"github.com/chazu/brepview/pkg/engine"
	"github.com/chazu/brepview/pkg/loader"
	"github.com/chazu/brepview/pkg/mesh"
	"github.com/chazu/brepview/pkg/tessellate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to disk.
const multipartMemory = 8 << 20

// ServerConfig holds the HTTP-facing settings.
type ServerConfig struct {
	MaxUploadBytes int64
	RateLimit      float64 // requests per second per client; 0 disables limiting
	RateBurst      int
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// invalidFormatMessage names the extensions an upload may have.
func invalidFormatMessage() string {
	return "Invalid file format. Supported formats: " + strings.Join(loader.SupportedExtensions(), ", ")
}

// NewHandler builds the service's routes and middleware. ctx bounds the
// rate limiter's background cleanup.
func NewHandler(ctx context.Context, app *App, gatherer prometheus.Gatherer, cfg ServerConfig, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "http"))

	mux := http.NewServeMux()
	mux.Handle("POST /upload", handleUpload(app, cfg.MaxUploadBytes, logger))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("GET /{$}", web.Index())
	mux.Handle("GET /static/", http.StripPrefix("/static/", web.Static()))

	// Method-less patterns catch what the method-specific routes above do
	// not, so wrong methods get a JSON error like every other failure.
	mux.HandleFunc("/upload", methodNotAllowed(http.MethodPost))
	mux.HandleFunc("/healthz", methodNotAllowed(http.MethodGet, http.MethodHead))
	if gatherer != nil {
		mux.HandleFunc("/metrics", methodNotAllowed(http.MethodGet, http.MethodHead))
	}

	middlewares := []Middleware{
		RequestID(),
		Recovery(logger),
		RequestLogger(logger, app.metrics),
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimiter(ctx, cfg.RateLimit, cfg.RateBurst, logger))
	}
	return Chain(mux, middlewares...)
}

func methodNotAllowed(allowed ...string) http.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleUpload converts the multipart "file" field and replies with its mesh.
// Optional query parameters: indexing=local|global, tolerance=<float>.
func handleUpload(app *App, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			// A form submitted without choosing a file sends the field
			// with an empty filename, which arrives as a plain value.
			if _, ok := r.MultipartForm.Value["file"]; ok {
				writeError(w, http.StatusBadRequest, "No file selected")
				return
			}
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		defer file.Close()
		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, "No file selected")
			return
		}

		opts, err := uploadOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		out, err := app.Convert(r.Context(), header.Filename, file, opts)
		if err != nil {
			status, msg := uploadErrorStatus(err)
			if status == http.StatusServiceUnavailable {
				w.Header().Set("Retry-After", "1")
			}
			logger.Warn("conversion failed",
				zap.String("filename", header.Filename),
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.Int("status", status),
				zap.Error(err),
			)
			writeError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func uploadOptions(r *http.Request) (tessellate.Options, error) {
	var opts tessellate.Options
	q := r.URL.Query()

	idx, err := mesh.ParseIndexing(q.Get("indexing"))
	if err != nil {
		return opts, err
	}
	opts.Indexing = idx

	if s := q.Get("tolerance"); s != "" {
		tol, err := strconv.ParseFloat(s, 64)
		if err != nil || tol <= 0 {
			return opts, errors.New("tolerance must be a positive number")
		}
		opts.Tolerance = tol
	}
	return opts, nil
}

// uploadErrorStatus maps a conversion error to a response status and message.
func uploadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return http.StatusBadRequest, invalidFormatMessage()
	case errors.Is(err, loader.ErrNoSTEPKernel):
		return http.StatusUnprocessableEntity, loader.ErrNoSTEPKernel.Error()
	case errors.Is(err, engine.ErrTimeout):
		return http.StatusUnprocessableEntity, "Scene script took too long to evaluate"
	case errors.Is(err, engine.ErrBusy):
		return http.StatusServiceUnavailable, "Too many scene scripts running, try again later"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
