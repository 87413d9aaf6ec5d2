package mandelbrot

import (
	"fmt"
	"math"
	"strings"
)

// Schedule selects how rows are dispatched onto goroutines.
type Schedule uint8

const (
	// ScheduleRows runs one task per row on a bounded errgroup.
	ScheduleRows Schedule = iota

	// ScheduleBands groups rows into bands of Config.BandRows and runs them
	// on a work-stealing worker pool. Preferable for very tall images.
	ScheduleBands

	scheduleCount
)

// String returns the lower-case schedule name.
func (s Schedule) String() string {
	switch s {
	case ScheduleRows:
		return "rows"
	case ScheduleBands:
		return "bands"
	default:
		return "unknown"
	}
}

// ParseSchedule parses "rows" or "bands", case-insensitive.
func ParseSchedule(s string) (Schedule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rows", "row":
		return ScheduleRows, nil
	case "bands", "band":
		return ScheduleBands, nil
	default:
		return 0, fmt.Errorf("%w: unknown schedule %q", ErrConfig, s)
	}
}

// Config holds the tunables of a render.
type Config struct {
	// IterationLimit caps iterations per pixel. Must be positive.
	IterationLimit uint32

	// EscapeRadiusSq is the squared magnitude beyond which a point has escaped.
	// Must be positive and finite.
	EscapeRadiusSq float64

	// Intensity selects the count-to-sample transform.
	Intensity Intensity

	// ColorMode selects one or three bytes per pixel.
	ColorMode ColorMode

	// Workers bounds the number of rows rendered concurrently.
	// Zero means GOMAXPROCS.
	Workers int

	// Schedule selects per-row tasks or row bands.
	Schedule Schedule

	// BandRows is the number of rows per band for ScheduleBands.
	// Zero means parallel.DefaultBandRows.
	BandRows int
}

// DefaultConfig returns the default render configuration: 255 iterations,
// escape radius² 4, linear grayscale, one task per row on GOMAXPROCS workers.
func DefaultConfig() Config {
	return Config{
		IterationLimit: DefaultIterationLimit,
		EscapeRadiusSq: DefaultEscapeRadiusSq,
		Intensity:      Linear,
		ColorMode:      Grayscale,
		Schedule:       ScheduleRows,
	}
}

// Validate reports the first invalid field as a configuration error.
func (c Config) Validate() error {
	switch {
	case c.IterationLimit == 0:
		return fmt.Errorf("%w: iteration limit must be positive", ErrConfig)
	case !(c.EscapeRadiusSq > 0) || math.IsInf(c.EscapeRadiusSq, 0):
		return fmt.Errorf("%w: escape radius² must be positive and finite, got %v", ErrConfig, c.EscapeRadiusSq)
	case !c.Intensity.IsValid():
		return fmt.Errorf("%w: invalid intensity %d", ErrConfig, c.Intensity)
	case !c.ColorMode.IsValid():
		return fmt.Errorf("%w: invalid color mode %d", ErrConfig, c.ColorMode)
	case c.Schedule >= scheduleCount:
		return fmt.Errorf("%w: invalid schedule %d", ErrConfig, c.Schedule)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrConfig, c.Workers)
	case c.BandRows < 0:
		return fmt.Errorf("%w: band rows must not be negative, got %d", ErrConfig, c.BandRows)
	}
	return nil
}

// RenderOption configures a Renderer during creation.
//
// Example:
//
//	r, err := mandelbrot.NewRenderer(bounds, viewport,
//	    mandelbrot.WithIterationLimit(1000),
//	    mandelbrot.WithColorMode(mandelbrot.RGBTinted),
//	)
type RenderOption func(*renderOptions)

// renderOptions holds optional configuration for Renderer creation.
type renderOptions struct {
	config    Config
	progress  func(done, total int)
	stateHook func(State)
}

// defaultOptions returns the default renderer options.
func defaultOptions() renderOptions {
	return renderOptions{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(c Config) RenderOption {
	return func(o *renderOptions) {
		o.config = c
	}
}

// WithIterationLimit sets the maximum number of iterations per pixel.
func WithIterationLimit(limit uint32) RenderOption {
	return func(o *renderOptions) {
		o.config.IterationLimit = limit
	}
}

// WithEscapeRadiusSq sets the squared escape radius.
// 4.0 is the tight bound; 8.0 trades a little precision for smoother
// logarithmic gradients.
func WithEscapeRadiusSq(r2 float64) RenderOption {
	return func(o *renderOptions) {
		o.config.EscapeRadiusSq = r2
	}
}

// WithIntensity sets the count-to-sample transform.
func WithIntensity(p Intensity) RenderOption {
	return func(o *renderOptions) {
		o.config.Intensity = p
	}
}

// WithColorMode sets the pixel layout of the output buffer.
func WithColorMode(m ColorMode) RenderOption {
	return func(o *renderOptions) {
		o.config.ColorMode = m
	}
}

// WithWorkers bounds the number of concurrently rendered rows or bands.
// Zero means GOMAXPROCS.
func WithWorkers(n int) RenderOption {
	return func(o *renderOptions) {
		o.config.Workers = n
	}
}

// WithSchedule selects per-row tasks or row bands.
func WithSchedule(s Schedule) RenderOption {
	return func(o *renderOptions) {
		o.config.Schedule = s
	}
}

// WithBandRows sets the band height for ScheduleBands.
func WithBandRows(n int) RenderOption {
	return func(o *renderOptions) {
		o.config.BandRows = n
	}
}

// WithProgress registers fn to be called after each finished row or band
// with the number of rows completed so far and the image height.
// fn is called from render goroutines and must be safe for concurrent use.
func WithProgress(fn func(done, total int)) RenderOption {
	return func(o *renderOptions) {
		o.progress = fn
	}
}

// WithStateHook registers fn to observe render state transitions.
// fn is called synchronously from the goroutine that called Render.
func WithStateHook(fn func(State)) RenderOption {
	return func(o *renderOptions) {
		o.stateHook = fn
	}
}
