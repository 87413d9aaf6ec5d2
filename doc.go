// Package mandelbrot renders escape-time images of the Mandelbrot set.
//
// # Overview
//
// A render maps every pixel of a Bounds-sized grid onto a point of a
// rectangular Viewport of the complex plane, iterates z = z*z + c from z = 0
// until |z|² exceeds an escape radius or an iteration limit is hit, and turns
// the escape count into an 8-bit sample. Rows are rendered in parallel into a
// caller-owned byte buffer, which is then handed to an Emitter that writes a
// lossless image file.
//
// # Quick Start
//
//	import "github.com/gogpu/mandelbrot"
//
//	ul, _ := mandelbrot.ParsePoint("-2+1i")
//	lr, _ := mandelbrot.ParsePoint("1-1i")
//
//	r, err := mandelbrot.NewRenderer(
//	    mandelbrot.Bounds{Width: 1200, Height: 800},
//	    mandelbrot.Viewport{UpperLeft: ul, LowerRight: lr},
//	    mandelbrot.WithIntensity(mandelbrot.Logarithmic),
//	)
//	if err != nil {
//	    return err
//	}
//	pixels, err := r.RenderImage(ctx)
//	if err != nil {
//	    return err
//	}
//	return mandelbrot.SaveFile("mandelbrot.png", pixels, r.Bounds(), mandelbrot.Grayscale)
//
// # Coordinate System
//
// Pixel (0, 0) is the top-left corner and maps exactly to Viewport.UpperLeft.
// X grows to the right (real part increases), Y grows downward (imaginary part
// decreases).
//
// # Concurrency
//
// A Renderer is immutable and may be shared between goroutines. During a
// render every row owns a disjoint slice of the buffer, so no lock guards the
// pixels. Output is bit-identical regardless of worker count or schedule.
//
// # Errors
//
// Failures fall into three kinds, see KindOf: configuration errors (bad
// bounds, viewport, buffer or option values, detected before any work is
// dispatched), render failures (a row task terminated abnormally; no partial
// buffer is returned) and emission errors (the encoder rejected the buffer).
package mandelbrot

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
