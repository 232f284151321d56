//go:build !manifold

// Package manifold binds the Manifold mesh kernel. Without the "manifold"
// build tag this stub is compiled and New reports ErrUnavailable, so
// callers can fall back to the sdfx kernel.
package manifold

import (
	"errors"

	"github.com/chazu/brepview/pkg/kernel"
)

// ErrUnavailable is returned by New when the binary was built without Manifold.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// New always fails in builds without the manifold tag.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
