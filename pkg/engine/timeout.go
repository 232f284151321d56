package engine

import (
	"errors"
	"fmt"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// MaxConcurrentEvals is the default number of scripts that may run at once.
const MaxConcurrentEvals = 4

var (
	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("evaluation timed out")

	// ErrBusy is returned when every evaluation slot is taken.
	ErrBusy = errors.New("too many scripts running")
)

// evalResult is the internal type used to pass evaluation results through channels.
type evalResult struct {
	scene  *Scene
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds timeout.
//
// On timeout the evaluating goroutine may still be running; ch is buffered
// so its late result is dropped without blocking it.
func waitWithTimeout(ch <-chan evalResult, timeout time.Duration) (*Scene, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.scene, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
