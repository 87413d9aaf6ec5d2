package mandelbrot

import (
	"fmt"
	"math"
)

// Bounds is the size of the pixel grid.
type Bounds struct {
	Width  int
	Height int
}

// maxChannels is the widest pixel of any ColorMode.
const maxChannels = 3

// Validate returns ErrInvalidBounds unless both dimensions are positive and
// the buffer length fits in an int for every color mode.
func (b Bounds) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidBounds, b.Width, b.Height)
	}
	if b.Width > math.MaxInt/b.Height/maxChannels {
		return fmt.Errorf("%w: %dx%d overflows the pixel buffer", ErrInvalidBounds, b.Width, b.Height)
	}
	return nil
}

// Pixels returns the number of pixels in the grid.
func (b Bounds) Pixels() int {
	return b.Width * b.Height
}

// Stride returns the number of bytes in one row for color mode m.
func (b Bounds) Stride(m ColorMode) int {
	return b.Width * m.Channels()
}

// BufferLen returns the pixel buffer length required for color mode m.
func (b Bounds) BufferLen(m ColorMode) int {
	return b.Stride(m) * b.Height
}

// String returns "WxH".
func (b Bounds) String() string {
	return fmt.Sprintf("%dx%d", b.Width, b.Height)
}

// Viewport is the rectangle of the complex plane mapped onto the pixel grid.
//
// Screen Y grows downward while the imaginary part decreases downward, so a
// valid viewport has real(UpperLeft) < real(LowerRight) and
// imag(UpperLeft) > imag(LowerRight).
type Viewport struct {
	UpperLeft  complex128
	LowerRight complex128
}

// Validate returns ErrInvalidViewport unless the corners are strictly ordered.
func (v Viewport) Validate() error {
	if !(real(v.UpperLeft) < real(v.LowerRight)) || !(imag(v.UpperLeft) > imag(v.LowerRight)) {
		return fmt.Errorf("%w: upper-left %s, lower-right %s",
			ErrInvalidViewport, FormatPoint(v.UpperLeft), FormatPoint(v.LowerRight))
	}
	return nil
}

// Width returns the extent of the viewport along the real axis.
func (v Viewport) Width() float64 {
	return real(v.LowerRight) - real(v.UpperLeft)
}

// Height returns the extent of the viewport along the imaginary axis.
func (v Viewport) Height() float64 {
	return imag(v.UpperLeft) - imag(v.LowerRight)
}

// Contains reports whether c lies in the closed rectangle spanned by the corners.
func (v Viewport) Contains(c complex128) bool {
	return real(c) >= real(v.UpperLeft) && real(c) <= real(v.LowerRight) &&
		imag(c) <= imag(v.UpperLeft) && imag(c) >= imag(v.LowerRight)
}

// String returns "(upper-left, lower-right)" in ParsePoint syntax.
func (v Viewport) String() string {
	return "(" + FormatPoint(v.UpperLeft) + ", " + FormatPoint(v.LowerRight) + ")"
}

// Map converts pixel (x, y) of a grid of size b into a point of viewport v by
// linear interpolation. Pixel (0, 0) maps exactly to v.UpperLeft.
//
// Map does not check its inputs; callers pass x < b.Width and y < b.Height.
func Map(b Bounds, v Viewport, x, y int) complex128 {
	re := real(v.UpperLeft) + float64(x)*v.Width()/float64(b.Width)
	im := imag(v.UpperLeft) - float64(y)*v.Height()/float64(b.Height)
	return complex(re, im)
}
