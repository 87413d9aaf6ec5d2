package mandelbrot

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultRequest(t *testing.T) {
	q := DefaultRequest()
	r, err := q.Renderer()
	if err != nil {
		t.Fatalf("DefaultRequest().Renderer() = %v", err)
	}

	if got := r.Bounds(); got != (Bounds{Width: 15360, Height: 8640}) {
		t.Errorf("Bounds() = %v, want 15360x8640", got)
	}
	want := Viewport{UpperLeft: complex(-1.2, 0.35), LowerRight: complex(-1, 0.2)}
	if got := r.Viewport(); got != want {
		t.Errorf("Viewport() = %v, want %v", got, want)
	}
	if got := r.Config(); got != DefaultConfig() {
		t.Errorf("Config() = %+v, want %+v", got, DefaultConfig())
	}
	if f, err := q.OutputFormat(); err != nil || f != FormatPNG {
		t.Errorf("OutputFormat() = %v, %v, want png", f, err)
	}
}

func TestRequestOverrides(t *testing.T) {
	q := DefaultRequest()
	q.Width, q.Height = 64, 48
	q.Limit = 1000
	q.Color, q.Intensity, q.Schedule = "rgb", "log", "bands"
	q.Workers = 3

	r, err := q.Renderer()
	if err != nil {
		t.Fatalf("Renderer() = %v", err)
	}
	c := r.Config()
	if c.IterationLimit != 1000 || c.ColorMode != RGBTinted || c.Intensity != Logarithmic ||
		c.Schedule != ScheduleBands || c.Workers != 3 {
		t.Errorf("Config() = %+v", c)
	}
	if r.BufferLen() != 64*48*3 {
		t.Errorf("BufferLen() = %d, want %d", r.BufferLen(), 64*48*3)
	}
}

func TestRequestEmptyEnumsSelectDefaults(t *testing.T) {
	q := DefaultRequest()
	q.Color, q.Intensity, q.Schedule, q.Format = "", "", "", ""

	c, err := q.Config()
	if err != nil {
		t.Fatalf("Config() = %v", err)
	}
	if c != DefaultConfig() {
		t.Errorf("Config() = %+v, want %+v", c, DefaultConfig())
	}
	if f, err := q.OutputFormat(); err != nil || f != FormatPNG {
		t.Errorf("OutputFormat() = %v, %v, want png", f, err)
	}
}

func TestRequestRendererErrors(t *testing.T) {
	with := func(edit func(*Request)) Request {
		q := DefaultRequest()
		edit(&q)
		return q
	}

	tests := []struct {
		name string
		q    Request
		want error
	}{
		{"zero request", Request{}, ErrFormat},
		{"bad upper left", with(func(q *Request) { q.UpperLeft = "i" }), ErrFormat},
		{"bad lower right", with(func(q *Request) { q.LowerRight = "1+i" }), ErrFormat},
		{"inverted viewport", with(func(q *Request) { q.UpperLeft, q.LowerRight = "1-1i", "-2+1i" }), ErrInvalidViewport},
		{"zero width", with(func(q *Request) { q.Width = 0 }), ErrInvalidBounds},
		{"zero height", with(func(q *Request) { q.Height = 0 }), ErrInvalidBounds},
		{"negative width", with(func(q *Request) { q.Width = -5 }), ErrInvalidBounds},
		{"overflowing size", with(func(q *Request) { q.Width, q.Height = math.MaxInt / 2, 2 }), ErrInvalidBounds},
		{"zero limit", with(func(q *Request) { q.Limit = 0 }), ErrConfig},
		{"zero radius", with(func(q *Request) { q.EscapeRadiusSq = 0 }), ErrConfig},
		{"negative radius", with(func(q *Request) { q.EscapeRadiusSq = -1 }), ErrConfig},
		{"bad color", with(func(q *Request) { q.Color = "cmyk" }), ErrConfig},
		{"bad intensity", with(func(q *Request) { q.Intensity = "cubic" }), ErrConfig},
		{"bad schedule", with(func(q *Request) { q.Schedule = "random" }), ErrConfig},
		{"negative workers", with(func(q *Request) { q.Workers = -2 }), ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.q.Renderer()
			if !errors.Is(err, tt.want) {
				t.Errorf("Renderer() error = %v, want %v", err, tt.want)
			}
			if KindOf(err) != KindConfig {
				t.Errorf("KindOf() = %v, want config", KindOf(err))
			}
		})
	}

	if _, err := (Request{Format: "gif"}).OutputFormat(); KindOf(err) != KindConfig {
		t.Errorf("OutputFormat(gif) error = %v, want config error", err)
	}
}
