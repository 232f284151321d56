// Package loader turns an uploaded interchange file into a kernel handle.
// STL and OBJ files become polymesh solids; scene scripts are evaluated by
// the engine against a modeling kernel.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/brepview/pkg/engine"
	"github.com/chazu/brepview/pkg/kernel"
	"go.uber.org/zap"
)

// Format identifies an input file type.
type Format string

const (
	FormatSTL    Format = "stl"
	FormatOBJ    Format = "obj"
	FormatScript Format = "script"
	FormatSTEP   Format = "step"
)

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrNoSTEPKernel is returned for STEP files: reading them needs an exact
// B-rep kernel, which this build does not link.
var ErrNoSTEPKernel = errors.New("STEP import requires a B-rep kernel that is not available")

// extensions maps lower-case file extensions to formats.
var extensions = map[string]Format{
	".stl":  FormatSTL,
	".obj":  FormatOBJ,
	".zy":   FormatScript,
	".step": FormatSTEP,
	".stp":  FormatSTEP,
}

// SupportedExtensions lists the extensions that load successfully.
func SupportedExtensions() []string {
	return []string{".stl", ".obj", ".zy"}
}

// DetectFormat returns the format implied by a file name's extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("loader: %q: %w", filename, ErrUnsupportedFormat)
	}
	return f, nil
}

// ScriptError carries the evaluation errors of a scene script.
type ScriptError struct {
	Errors []engine.EvalError
}

func (e *ScriptError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		msgs[i] = ee.Error()
	}
	return "script error: " + strings.Join(msgs, "; ")
}

// Loader reads files into kernel handles.
type Loader struct {
	engine *engine.Engine
	logger *zap.Logger
}

// New returns a Loader that evaluates scene scripts with eng.
func New(eng *engine.Engine, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{engine: eng, logger: logger.With(zap.String("component", "loader"))}
}

// Load reads the file at path, choosing a reader by its extension.
func (l *Loader) Load(path string) (kernel.Handle, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return l.LoadAs(format, path)
}

// LoadAs reads the file at path as the given format.
func (l *Loader) LoadAs(format Format, path string) (kernel.Handle, error) {
	l.logger.Debug("loading file", zap.String("path", path), zap.String("format", string(format)))

	switch format {
	case FormatSTL:
		return ReadSTL(path)

	case FormatOBJ:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("loader: %w", err)
		}
		defer f.Close()
		return ReadOBJ(f)

	case FormatScript:
		if l.engine == nil {
			return nil, fmt.Errorf("loader: no script engine configured")
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loader: %w", err)
		}
		scene, evalErrs, err := l.engine.Evaluate(string(src))
		if err != nil {
			return nil, fmt.Errorf("loader: %w", err)
		}
		if len(evalErrs) > 0 {
			return nil, &ScriptError{Errors: evalErrs}
		}
		return scene, nil

	case FormatSTEP:
		return nil, ErrNoSTEPKernel

	default:
		return nil, fmt.Errorf("loader: %q: %w", format, ErrUnsupportedFormat)
	}
}
