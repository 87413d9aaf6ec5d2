package mandelbrot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	intImage "github.com/gogpu/mandelbrot/internal/image"
	"github.com/gogpu/mandelbrot/internal/parallel"
)

// State is the lifecycle stage of a single render.
type State int32

const (
	// StateIdle: buffer accepted, nothing dispatched yet.
	StateIdle State = iota

	// StateRendering: row tasks dispatched, buffer writes in flight.
	StateRendering

	// StateComplete: every row task joined, buffer ready for emission.
	StateComplete

	// StateFailed: a row task failed; the buffer must not be used.
	StateFailed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Renderer renders one viewport at one size.
//
// A Renderer is immutable after NewRenderer returns and is safe to share
// between goroutines; concurrent Render calls must use distinct buffers.
type Renderer struct {
	bounds   Bounds
	viewport Viewport
	config   Config

	progress  func(done, total int)
	stateHook func(State)

	samples *sampler

	// rowHook runs before each row; tests use it to inject task failures.
	rowHook func(y int)
}

// NewRenderer validates bounds, viewport and options and returns a Renderer.
// Every error is a configuration error.
func NewRenderer(b Bounds, v Viewport, opts ...RenderOption) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	return &Renderer{
		bounds:    b,
		viewport:  v,
		config:    o.config,
		progress:  o.progress,
		stateHook: o.stateHook,
		samples:   newSampler(o.config.Intensity, o.config.IterationLimit),
	}, nil
}

// Bounds returns the pixel grid size.
func (r *Renderer) Bounds() Bounds {
	return r.bounds
}

// Viewport returns the rendered rectangle of the complex plane.
func (r *Renderer) Viewport() Viewport {
	return r.viewport
}

// Config returns the render configuration.
func (r *Renderer) Config() Config {
	return r.config
}

// BufferLen returns the length of the buffer Render expects.
func (r *Renderer) BufferLen() int {
	return r.bounds.BufferLen(r.config.ColorMode)
}

// PointAt returns the complex point of pixel (x, y).
func (r *Renderer) PointAt(x, y int) complex128 {
	return Map(r.bounds, r.viewport, x, y)
}

// SampleAt computes the sample of pixel (x, y) without touching any buffer.
func (r *Renderer) SampleAt(x, y int) uint8 {
	count, escaped := Escape(r.PointAt(x, y), r.config.IterationLimit, r.config.EscapeRadiusSq)
	return r.samples.sample(count, escaped)
}

// RenderImage allocates a zeroed buffer of BufferLen bytes and renders into it.
func (r *Renderer) RenderImage(ctx context.Context) ([]byte, error) {
	img, err := intImage.NewImageBuf(r.bounds.Width, r.bounds.Height, r.config.ColorMode.pixelFormat())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBounds, err)
	}
	return r.Render(ctx, img.Data())
}

// Render fills buf with the image and returns it.
//
// buf must be exactly BufferLen bytes long, otherwise Render returns
// ErrBufferSize before any work starts. Rows are rendered concurrently, each
// into its own slice of buf, and Render returns only after all of them have
// finished.
//
// If a row task panics the render fails as a whole: Render returns a nil
// buffer and a *TaskError. Cancelling ctx skips rows that have not started
// yet and fails the render with ErrRenderFailed; rows already running are
// not interrupted.
func (r *Renderer) Render(ctx context.Context, buf []byte) ([]byte, error) {
	if want := r.BufferLen(); len(buf) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(buf), want)
	}

	j := &job{r: r, total: r.bounds.Height}
	j.transition(StateIdle)

	log := Logger()
	log.Debug("mandelbrot: dispatching render",
		"bounds", r.bounds.String(),
		"viewport", r.viewport.String(),
		"schedule", r.config.Schedule.String(),
		"workers", r.workers())

	start := time.Now()
	j.transition(StateRendering)

	var err error
	switch r.config.Schedule {
	case ScheduleBands:
		err = r.renderBands(ctx, buf, j)
	default:
		err = r.renderRows(ctx, buf, j)
	}
	if err == nil && j.skipped.Load() {
		err = fmt.Errorf("%w: %w", ErrRenderFailed, context.Cause(ctx))
	}

	if err != nil {
		j.transition(StateFailed)
		log.Warn("mandelbrot: render failed", "bounds", r.bounds.String(), "error", err)
		return nil, err
	}

	j.transition(StateComplete)
	log.Info("mandelbrot: render complete",
		"bounds", r.bounds.String(),
		"limit", r.config.IterationLimit,
		"intensity", r.config.Intensity.String(),
		"color", r.config.ColorMode.String(),
		"elapsed", time.Since(start))
	return buf, nil
}

// renderRows runs one task per row on an errgroup bounded by the worker count.
// The first failing row cancels the group so rows not yet started are skipped.
func (r *Renderer) renderRows(ctx context.Context, buf []byte, j *job) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())

	stride := r.bounds.Stride(r.config.ColorMode)
	for y := range r.bounds.Height {
		lo, hi := y*stride, (y+1)*stride
		row := buf[lo:hi:hi]

		g.Go(func() (err error) {
			if gctx.Err() != nil {
				j.skipped.Store(true)
				return nil
			}
			defer func() {
				if v := recover(); v != nil {
					err = &TaskError{Row: y, Cause: panicCause(v), Stack: debug.Stack()}
				}
			}()

			r.renderRow(y, row)
			j.rowsDone(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// The failed row is the cause; rows skipped after it are not.
		j.skipped.Store(false)
		return err
	}
	return nil
}

// renderBands splits buf into row bands and runs them on a worker pool.
func (r *Renderer) renderBands(ctx context.Context, buf []byte, j *job) error {
	bands, err := parallel.SplitRows(buf, r.bounds.Stride(r.config.ColorMode), r.bounds.Height, r.config.BandRows)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBufferSize, err)
	}

	pool := parallel.NewWorkerPool(r.workers())
	defer pool.Close()

	// current[i] is the row band i is working on; read only after the barrier.
	current := make([]int, len(bands))

	work := make([]func(), len(bands))
	for i := range bands {
		b := &bands[i]
		work[i] = func() {
			if ctx.Err() != nil {
				j.skipped.Store(true)
				return
			}
			for k := range b.Rows {
				current[i] = b.Y + k
				r.renderRow(b.Y+k, b.Row(k))
			}
			j.rowsDone(b.Rows)
		}
	}

	err = pool.ExecuteAll(work)

	var pe *parallel.PanicError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pe):
		j.skipped.Store(false)
		return &TaskError{Row: current[pe.Index], Cause: panicCause(pe.Value), Stack: pe.Stack}
	default:
		return fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
}

// renderRow computes every pixel of image row y into row.
func (r *Renderer) renderRow(y int, row []byte) {
	if r.rowHook != nil {
		r.rowHook(y)
	}

	ch := r.config.ColorMode.Channels()
	limit, r2 := r.config.IterationLimit, r.config.EscapeRadiusSq
	for x := range r.bounds.Width {
		count, escaped := Escape(Map(r.bounds, r.viewport, x, y), limit, r2)
		// RGBTinted: red channel only.
		row[x*ch] = r.samples.sample(count, escaped)
	}
}

func (r *Renderer) workers() int {
	if r.config.Workers > 0 {
		return r.config.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// job carries the per-call bookkeeping of one Render.
type job struct {
	r       *Renderer
	total   int
	done    atomic.Int64
	skipped atomic.Bool
}

func (j *job) transition(s State) {
	Logger().Debug("mandelbrot: render state", "state", s.String())
	if j.r.stateHook != nil {
		j.r.stateHook(s)
	}
}

func (j *job) rowsDone(n int) {
	d := j.done.Add(int64(n))
	if j.r.progress != nil {
		j.r.progress(int(d), j.total)
	}
}
