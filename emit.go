package mandelbrot

import (
	"fmt"
	"io"
	"path/filepath"

	intImage "github.com/gogpu/mandelbrot/internal/image"
)

// Format is a lossless output file format.
type Format uint8

const (
	// FormatPNG writes PNG. Grayscale buffers become 8-bit gray PNGs,
	// RGB buffers become opaque truecolor PNGs.
	FormatPNG Format = iota

	// FormatBMP writes an uncompressed Windows bitmap.
	FormatBMP

	// FormatTIFF writes a deflate-compressed TIFF.
	FormatTIFF
)

func (f Format) codec() intImage.Codec {
	switch f {
	case FormatBMP:
		return intImage.CodecBMP
	case FormatTIFF:
		return intImage.CodecTIFF
	default:
		return intImage.CodecPNG
	}
}

// String returns the lower-case format name.
func (f Format) String() string {
	if f > FormatTIFF {
		return "unknown"
	}
	return f.codec().String()
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	return f.codec().ContentType()
}

// Extension returns the canonical file extension, including the dot.
func (f Format) Extension() string {
	return f.codec().Extension()
}

// ParseFormat parses "png", "bmp" or "tiff"/"tif", case-insensitive.
// An empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatPNG, nil
	}
	c, err := intImage.CodecFromName(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return formatOf(c), nil
}

// FormatFromPath picks the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	c, err := intImage.CodecFromPath(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return formatOf(c), nil
}

func formatOf(c intImage.Codec) Format {
	switch c {
	case intImage.CodecBMP:
		return FormatBMP
	case intImage.CodecTIFF:
		return FormatTIFF
	default:
		return FormatPNG
	}
}

// Emitter writes a rendered pixel buffer to w.
type Emitter interface {
	Emit(w io.Writer, buf []byte, width, height int, mode ColorMode) error
}

// Emit encodes buf, a width x height image in color mode mode, to w.
// The buffer is only read. Every error is an *EmitError.
func (f Format) Emit(w io.Writer, buf []byte, width, height int, mode ColorMode) error {
	img, err := f.wrap(buf, width, height, mode)
	if err != nil {
		return err
	}
	if err := img.Encode(w, f.codec()); err != nil {
		return &EmitError{Format: f, Err: err}
	}
	return nil
}

func (f Format) wrap(buf []byte, width, height int, mode ColorMode) (*intImage.ImageBuf, error) {
	if !mode.IsValid() {
		return nil, &EmitError{Format: f, Err: fmt.Errorf("%w: invalid color mode %d", ErrBufferMismatch, mode)}
	}
	img, err := intImage.FromRaw(buf, width, height, mode.pixelFormat())
	if err != nil {
		return nil, &EmitError{Format: f, Err: fmt.Errorf("%w: %w", ErrBufferMismatch, err)}
	}
	return img, nil
}

// Encode writes buf to w in format f.
func Encode(w io.Writer, f Format, buf []byte, b Bounds, mode ColorMode) error {
	return f.Emit(w, buf, b.Width, b.Height, mode)
}

// EncodeToBytes encodes buf in format f and returns the file bytes.
func EncodeToBytes(f Format, buf []byte, b Bounds, mode ColorMode) ([]byte, error) {
	img, err := f.wrap(buf, b.Width, b.Height, mode)
	if err != nil {
		return nil, err
	}
	data, err := img.EncodeToBytes(f.codec())
	if err != nil {
		return nil, &EmitError{Format: f, Err: err}
	}
	return data, nil
}

// SaveFile writes buf to path, choosing the format from the file extension.
// The file is created or truncated. An unknown extension is a configuration
// error; everything else is an *EmitError.
func SaveFile(path string, buf []byte, b Bounds, mode ColorMode) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	img, err := f.wrap(buf, b.Width, b.Height, mode)
	if err != nil {
		return err
	}
	if err := img.SaveFile(filepath.Clean(path), f.codec()); err != nil {
		return &EmitError{Format: f, Err: err}
	}

	Logger().Debug("mandelbrot: image written", "path", path, "format", f.String(), "bounds", b.String())
	return nil
}
