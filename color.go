package mandelbrot

import (
	"fmt"
	"strings"

	intImage "github.com/gogpu/mandelbrot/internal/image"
)

// ColorMode selects the pixel layout of the output buffer.
type ColorMode uint8

const (
	// Grayscale stores one sample per pixel.
	Grayscale ColorMode = iota

	// RGBTinted stores three bytes per pixel. The sample is written to the red
	// channel only; green and blue keep whatever the caller initialized them
	// to, which gives a red-tinted monochrome image.
	RGBTinted

	colorModeCount
)

// Channels returns the number of bytes per pixel.
func (m ColorMode) Channels() int {
	return m.pixelFormat().Channels()
}

// String returns the lower-case mode name.
func (m ColorMode) String() string {
	switch m {
	case Grayscale:
		return "gray"
	case RGBTinted:
		return "rgb"
	default:
		return "unknown"
	}
}

// IsValid returns true if m is a known color mode.
func (m ColorMode) IsValid() bool {
	return m < colorModeCount
}

// ParseColorMode parses "gray"/"grayscale" or "rgb"/"rgb-tinted", case-insensitive.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gray", "grey", "grayscale":
		return Grayscale, nil
	case "rgb", "rgb-tinted", "tinted":
		return RGBTinted, nil
	default:
		return 0, fmt.Errorf("%w: unknown color mode %q", ErrConfig, s)
	}
}

func (m ColorMode) pixelFormat() intImage.Format {
	if m == RGBTinted {
		return intImage.FormatRGB8
	}
	return intImage.FormatGray8
}
