package mandelbrot

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	// ErrConfig is the parent of every configuration error. Configuration
	// errors are reported before any render work is dispatched.
	ErrConfig = errors.New("mandelbrot: invalid configuration")

	// ErrRenderFailed is returned when a row task terminated abnormally or the
	// render was abandoned. No partial buffer accompanies it.
	ErrRenderFailed = errors.New("mandelbrot: render failed")

	// ErrEmit is returned when the image emitter rejects the buffer or fails
	// to write it.
	ErrEmit = errors.New("mandelbrot: emit failed")
)

// Configuration errors.
var (
	// ErrInvalidBounds is returned when width or height is not positive.
	ErrInvalidBounds = fmt.Errorf("%w: bounds must be positive", ErrConfig)

	// ErrInvalidViewport is returned when the upper-left corner is not strictly
	// left of and above the lower-right corner.
	ErrInvalidViewport = fmt.Errorf("%w: viewport corners out of order", ErrConfig)

	// ErrBufferSize is returned by Render when the buffer length is not
	// width*height*channels.
	ErrBufferSize = fmt.Errorf("%w: buffer size does not match bounds", ErrConfig)

	// ErrFormat is returned when a complex point string matches none of the
	// accepted forms.
	ErrFormat = fmt.Errorf("%w: malformed complex point", ErrConfig)
)

// ErrBufferMismatch is wrapped by EmitError when the buffer length does not
// match the image geometry handed to the emitter.
var ErrBufferMismatch = errors.New("mandelbrot: buffer length does not match image geometry")

// ParseError reports a string that could not be parsed as a complex point.
type ParseError struct {
	// Input is the rejected text.
	Input string

	// Err is the underlying number parsing error, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mandelbrot: parse point %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("mandelbrot: parse point %q: expected <re>+<im>i, <im>i or <re>", e.Input)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// TaskError reports a row task that terminated abnormally.
type TaskError struct {
	// Row is the image row the task was rendering when it failed.
	Row int

	// Cause is the recovered failure.
	Cause error

	// Stack is the stack of the failed task, when available.
	Stack []byte
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("mandelbrot: render failed at row %d: %v", e.Row, e.Cause)
}

func (e *TaskError) Unwrap() []error {
	return []error{ErrRenderFailed, e.Cause}
}

// EmitError reports a failure of the image emitter.
type EmitError struct {
	// Format is the file format being written.
	Format Format

	// Err is the encoder or geometry error.
	Err error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("mandelbrot: emit %s: %v", e.Format, e.Err)
}

func (e *EmitError) Unwrap() []error {
	return []error{ErrEmit, e.Err}
}

// ErrorKind classifies an error returned by this package.
type ErrorKind uint8

const (
	// KindNone is the kind of a nil error.
	KindNone ErrorKind = iota

	// KindConfig marks configuration errors.
	KindConfig

	// KindRender marks render failures.
	KindRender

	// KindEmit marks emission errors.
	KindEmit

	// KindUnknown marks errors that did not originate in this package.
	KindUnknown
)

// String returns the lower-case kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfig:
		return "config"
	case KindRender:
		return "render"
	case KindEmit:
		return "emit"
	default:
		return "unknown"
	}
}

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrRenderFailed):
		return KindRender
	case errors.Is(err, ErrEmit):
		return KindEmit
	default:
		return KindUnknown
	}
}

// panicCause converts a recovered panic value into an error.
func panicCause(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}
