package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedCodec is returned when the requested file codec is not known.
var ErrUnsupportedCodec = errors.New("image: unsupported codec")

// Codec identifies a lossless raster file format.
type Codec uint8

const (
	// CodecPNG is the Portable Network Graphics format.
	CodecPNG Codec = iota

	// CodecBMP is the Windows bitmap format.
	CodecBMP

	// CodecTIFF is the Tagged Image File Format, deflate compressed.
	CodecTIFF
)

// String returns the lower-case codec name.
func (c Codec) String() string {
	switch c {
	case CodecPNG:
		return "png"
	case CodecBMP:
		return "bmp"
	case CodecTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type of the codec.
func (c Codec) ContentType() string {
	switch c {
	case CodecPNG:
		return "image/png"
	case CodecBMP:
		return "image/bmp"
	case CodecTIFF:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the canonical file extension, including the dot.
func (c Codec) Extension() string {
	switch c {
	case CodecPNG:
		return ".png"
	case CodecBMP:
		return ".bmp"
	case CodecTIFF:
		return ".tiff"
	default:
		return ""
	}
}

// CodecFromName parses a codec name ("png", "bmp", "tiff"/"tif"), case-insensitive.
func CodecFromName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return CodecPNG, nil
	case "bmp":
		return CodecBMP, nil
	case "tiff", "tif":
		return CodecTIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCodec, name)
	}
}

// CodecFromPath picks a codec from the extension of path.
func CodecFromPath(path string) (Codec, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return 0, fmt.Errorf("%w: %q has no extension", ErrUnsupportedCodec, path)
	}
	return CodecFromName(ext)
}

// ToStdImage converts the ImageBuf to a standard library image.Image.
// Returns *image.Gray for Gray8 and an opaque *image.NRGBA for RGB8.
func (b *ImageBuf) ToStdImage() image.Image {
	rect := image.Rect(0, 0, b.width, b.height)

	if b.format.IsGrayscale() {
		gray := image.NewGray(rect)
		copy(gray.Pix, b.data)
		return gray
	}

	// Expand to NRGBA (opaque)
	nrgba := image.NewNRGBA(rect)
	for y := range b.height {
		row := b.RowBytes(y)
		dstStart := y * nrgba.Stride
		for x := range b.width {
			srcOff := x * 3
			dstOff := dstStart + x*4
			nrgba.Pix[dstOff] = row[srcOff]
			nrgba.Pix[dstOff+1] = row[srcOff+1]
			nrgba.Pix[dstOff+2] = row[srcOff+2]
			nrgba.Pix[dstOff+3] = 255
		}
	}
	return nrgba
}

// Encode writes the image to w using codec c.
func (b *ImageBuf) Encode(w io.Writer, c Codec) error {
	switch c {
	case CodecPNG:
		return b.EncodePNG(w)
	case CodecBMP:
		return b.EncodeBMP(w)
	case CodecTIFF:
		return b.EncodeTIFF(w)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedCodec, c)
	}
}

// EncodePNG encodes the image as PNG to the given writer.
func (b *ImageBuf) EncodePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, b.ToStdImage()); err != nil {
		return fmt.Errorf("image: encode PNG: %w", err)
	}
	return nil
}

// EncodeBMP encodes the image as an uncompressed BMP to the given writer.
func (b *ImageBuf) EncodeBMP(w io.Writer) error {
	if err := bmp.Encode(w, b.ToStdImage()); err != nil {
		return fmt.Errorf("image: encode BMP: %w", err)
	}
	return nil
}

// EncodeTIFF encodes the image as a deflate-compressed TIFF to the given writer.
func (b *ImageBuf) EncodeTIFF(w io.Writer) error {
	opts := &tiff.Options{Compression: tiff.Deflate, Predictor: true}
	if err := tiff.Encode(w, b.ToStdImage(), opts); err != nil {
		return fmt.Errorf("image: encode TIFF: %w", err)
	}
	return nil
}

// EncodeToBytes encodes the image with codec c and returns the bytes.
func (b *ImageBuf) EncodeToBytes(c Codec) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(b.ByteSize()/2 + 64)
	if err := b.Encode(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveFile saves the image to path with codec c.
func (b *ImageBuf) SaveFile(path string, c Codec) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("image: create file: %w", err)
	}

	if err := b.Encode(f, c); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
