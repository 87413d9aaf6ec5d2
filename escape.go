package mandelbrot

// Escape defaults.
const (
	// DefaultIterationLimit caps the number of iterations per pixel.
	DefaultIterationLimit uint32 = 255

	// DefaultEscapeRadiusSq is the squared escape radius. 4.0 (|z| > 2) is the
	// smallest bound that proves divergence.
	DefaultEscapeRadiusSq = 4.0
)

// Escape iterates z = z*z + c from z = 0 at most limit times.
//
// If |z|² exceeds radiusSq at iteration i (0-based) it returns (i, true).
// If the loop completes without escaping the point is considered bounded and
// Escape returns (0, false).
//
// The loop uses scalar float64 arithmetic and does not allocate.
func Escape(c complex128, limit uint32, radiusSq float64) (count uint32, escaped bool) {
	cr, ci := real(c), imag(c)
	var zr, zi float64
	for i := range limit {
		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
		if zr*zr+zi*zi > radiusSq {
			return i, true
		}
	}
	return 0, false
}
