// Package engine evaluates scene scripts. A scene script is a small Lisp
// program, run by zygomys in a sandbox, that builds solids through a
// geometry kernel and emits them as the conversion input.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/brepview/pkg/kernel"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Compile-time interface check.
var _ kernel.Assembly = (*Scene)(nil)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Scene is the set of solids a script emitted, in emission order.
type Scene struct {
	Name  string
	Parts []kernel.Solid
}

// Solids implements kernel.Assembly.
func (s *Scene) Solids() []kernel.Solid {
	return s.Parts
}

// Engine evaluates scene scripts against one kernel. It is safe for
// concurrent use; each call to Evaluate creates a fresh sandbox.
//
// zygomys cannot be interrupted, so a script that outlives its timeout keeps
// running in the background until it finishes. Such a script keeps holding
// its evaluation slot, which caps how many runaway scripts can pile up.
type Engine struct {
	kernel  kernel.Kernel
	timeout time.Duration
	slots   int64
	sem     *semaphore.Weighted
	logger  *zap.Logger

	run func(source string) (*Scene, []EvalError, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxConcurrent overrides MaxConcurrentEvals.
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.slots = int64(n)
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine that builds solids with k.
func NewEngine(k kernel.Kernel, opts ...Option) *Engine {
	e := &Engine{kernel: k, timeout: EvalTimeout, slots: MaxConcurrentEvals, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.sem = semaphore.NewWeighted(e.slots)
	e.logger = e.logger.With(zap.String("component", "engine"))
	e.run = e.evaluate
	return e
}

// Evaluate runs a scene script and returns the emitted solids.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic, no free slot): returns nil + nil + error
//
// Timeouts wrap ErrTimeout; a call made while every slot is held returns ErrBusy.
func (e *Engine) Evaluate(source string) (*Scene, []EvalError, error) {
	if !e.sem.TryAcquire(1) {
		e.logger.Warn("evaluation rejected", zap.Int64("slots", e.slots))
		return nil, nil, fmt.Errorf("engine: %w", ErrBusy)
	}

	ch := make(chan evalResult, 1)
	go func() {
		// The slot is released when the script actually stops, not when
		// Evaluate gives up waiting for it.
		defer e.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		scene, evalErrs, err := e.run(source)
		ch <- evalResult{scene: scene, errors: evalErrs, err: err}
	}()

	scene, evalErrs, err := waitWithTimeout(ch, e.timeout)
	switch {
	case err != nil:
		e.logger.Warn("evaluation failed", zap.Error(err))
	case len(evalErrs) > 0:
		e.logger.Debug("script errors", zap.Int("count", len(evalErrs)), zap.String("first", evalErrs[0].Error()))
	default:
		e.logger.Debug("script evaluated", zap.Int("solids", len(scene.Parts)))
	}
	return scene, evalErrs, err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Scene, []EvalError, error) {
	scene := &Scene{}

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return scene, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, e.kernel, scene)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}

	last, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	// A script that never emits but ends in a solid expression yields that solid.
	if len(scene.Parts) == 0 {
		if s, ok := last.(*sexpSolid); ok {
			scene.Parts = append(scene.Parts, s.solid)
		}
	}
	return scene, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values,
// extracting a line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
