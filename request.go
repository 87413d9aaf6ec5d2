package mandelbrot

import "fmt"

// Default request geometry: a 16K crop of the seahorse valley.
const (
	DefaultWidth      = 15360
	DefaultHeight     = 8640
	DefaultUpperLeft  = "-1.20+0.35i"
	DefaultLowerRight = "-1+0.20i"
)

// Request is a self-contained, serializable description of one render.
// Points use ParsePoint syntax.
//
// Build requests from DefaultRequest and override fields. Fields are taken
// as given: a zero size, limit or escape radius is a configuration error.
// Empty enum names select the first value (gray, linear, png, rows) and zero
// Workers means GOMAXPROCS.
type Request struct {
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	UpperLeft      string  `json:"upper_left,omitempty"`
	LowerRight     string  `json:"lower_right,omitempty"`
	Limit          uint32  `json:"limit,omitempty"`
	EscapeRadiusSq float64 `json:"escape_radius_sq,omitempty"`
	Color          string  `json:"color,omitempty"`
	Intensity      string  `json:"intensity,omitempty"`
	Format         string  `json:"format,omitempty"`
	Schedule       string  `json:"schedule,omitempty"`
	Workers        int     `json:"workers,omitempty"`
}

// DefaultRequest returns a request with every field set to its default.
func DefaultRequest() Request {
	return Request{
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		UpperLeft:      DefaultUpperLeft,
		LowerRight:     DefaultLowerRight,
		Limit:          DefaultIterationLimit,
		EscapeRadiusSq: DefaultEscapeRadiusSq,
		Color:          Grayscale.String(),
		Intensity:      Linear.String(),
		Format:         FormatPNG.String(),
		Schedule:       ScheduleRows.String(),
	}
}

// Bounds returns the requested pixel grid.
func (q Request) Bounds() Bounds {
	return Bounds{Width: q.Width, Height: q.Height}
}

// Viewport parses the requested corners.
func (q Request) Viewport() (Viewport, error) {
	ul, err := ParsePoint(q.UpperLeft)
	if err != nil {
		return Viewport{}, fmt.Errorf("upper_left: %w", err)
	}
	lr, err := ParsePoint(q.LowerRight)
	if err != nil {
		return Viewport{}, fmt.Errorf("lower_right: %w", err)
	}
	return Viewport{UpperLeft: ul, LowerRight: lr}, nil
}

// Config parses the requested render configuration.
func (q Request) Config() (Config, error) {
	c := DefaultConfig()
	c.IterationLimit = q.Limit
	c.EscapeRadiusSq = q.EscapeRadiusSq
	c.Workers = q.Workers

	var err error
	if c.ColorMode, err = ParseColorMode(q.Color); err != nil {
		return Config{}, err
	}
	if c.Intensity, err = ParseIntensity(q.Intensity); err != nil {
		return Config{}, err
	}
	if c.Schedule, err = ParseSchedule(q.Schedule); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// OutputFormat parses the requested file format.
func (q Request) OutputFormat() (Format, error) {
	return ParseFormat(q.Format)
}

// Renderer builds a Renderer for q. opts are applied after the request's
// own configuration, so they can attach progress or state hooks.
func (q Request) Renderer(opts ...RenderOption) (*Renderer, error) {
	v, err := q.Viewport()
	if err != nil {
		return nil, err
	}
	c, err := q.Config()
	if err != nil {
		return nil, err
	}
	return NewRenderer(q.Bounds(), v, append([]RenderOption{WithConfig(c)}, opts...)...)
}
