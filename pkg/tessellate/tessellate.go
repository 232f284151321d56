// Package tessellate runs the conversion pipeline: it enumerates the solids
// behind a kernel handle, tessellates each one with a fixed tolerance and
// folds the results into a single renderer mesh.
package tessellate

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/brepview/pkg/kernel"
	"github.com/chazu/brepview/pkg/mesh"
	"go.uber.org/zap"
)

// DefaultTolerance is the linear deflection passed to the kernel, in kernel units.
const DefaultTolerance = 0.1

// Options controls a conversion. The zero value is usable.
type Options struct {
	Tolerance float64       // linear deflection; <= 0 means DefaultTolerance
	Indexing  mesh.Indexing // index space for faces and edges
	Logger    *zap.Logger   // nil means no logging
}

func (o Options) tolerance() float64 {
	if o.Tolerance <= 0 {
		return DefaultTolerance
	}
	return o.Tolerance
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// TessellateSolid asks the kernel for one solid's tessellation. Any kernel
// failure, including a nil solid or a panic inside the kernel, comes back
// as a *kernel.GeometryError tagged with index.
func TessellateSolid(s kernel.Solid, index int, tolerance float64) (t *kernel.Tessellation, err error) {
	if s == nil {
		return nil, &kernel.GeometryError{Solid: index, Err: kernel.ErrNilSolid}
	}
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, &kernel.GeometryError{Solid: index, Err: fmt.Errorf("kernel panic: %v", r)}
		}
	}()

	t, err = s.Tessellate(tolerance)
	if err != nil {
		return nil, &kernel.GeometryError{Solid: index, Err: err}
	}
	if t == nil {
		return nil, &kernel.GeometryError{Solid: index, Err: kernel.ErrDegenerate}
	}
	return t, nil
}

// Convert enumerates the solids behind h, tessellates them in order and
// assembles one mesh. The first failure aborts the conversion and no
// partial mesh is returned. Cancellation is checked between solids; a
// kernel call in progress is not interrupted.
func Convert(ctx context.Context, h kernel.Handle, opts Options) (*mesh.Output, error) {
	log := opts.logger().With(zap.String("component", "tessellate"))
	tol := opts.tolerance()
	solids := kernel.Enumerate(h)
	acc := mesh.NewAccumulator(opts.Indexing)

	start := time.Now()
	for i, s := range solids {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("tessellate: canceled before solid %d: %w", i, err)
		}

		t, err := TessellateSolid(s, i, tol)
		if err != nil {
			log.Warn("solid tessellation failed", zap.Int("solid", i), zap.Error(err))
			return nil, err
		}
		if err := acc.AddSolid(t); err != nil {
			log.Warn("solid rejected", zap.Int("solid", i), zap.Error(err))
			return nil, &kernel.GeometryError{Solid: i, Err: err}
		}
		log.Debug("solid tessellated",
			zap.Int("solid", i),
			zap.Int("vertices", t.VertexCount()),
			zap.Int("faces", t.FaceCount()),
		)
	}

	out := acc.Finish()
	log.Info("conversion complete",
		zap.Int("solids", len(solids)),
		zap.Int("vertices", out.VertexCount()),
		zap.Int("triangles", out.TriangleCount()),
		zap.Int("edges", out.EdgeCount()),
		zap.Float64("tolerance", tol),
		zap.Stringer("indexing", opts.Indexing),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
