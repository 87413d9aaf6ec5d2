package mandelbrot

import (
	"fmt"
	"math"
	"strings"
)

// Intensity selects how an escape count becomes an 8-bit sample.
type Intensity uint8

const (
	// Linear maps count to limit-count. Fast escapes are bright and the image
	// shows hard bands.
	Linear Intensity = iota

	// Logarithmic maps count through a calibrated natural log so that count 0
	// is 0 and count limit-1 reaches limit. Gradients are smoother.
	Logarithmic

	intensityCount
)

// String returns the lower-case policy name.
func (p Intensity) String() string {
	switch p {
	case Linear:
		return "linear"
	case Logarithmic:
		return "log"
	default:
		return "unknown"
	}
}

// IsValid returns true if p is a known policy.
func (p Intensity) IsValid() bool {
	return p < intensityCount
}

// ParseIntensity parses "linear" or "log"/"logarithmic", case-insensitive.
func ParseIntensity(s string) (Intensity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return Linear, nil
	case "log", "logarithmic":
		return Logarithmic, nil
	default:
		return 0, fmt.Errorf("%w: unknown intensity %q", ErrConfig, s)
	}
}

// Sample converts an escape result into a sample in [0, 255].
// Bounded points (escaped == false) are always 0.
func (p Intensity) Sample(count uint32, escaped bool, limit uint32) uint8 {
	if !escaped {
		return 0
	}
	switch p {
	case Logarithmic:
		offset, scale := logCalibration(limit)
		return logSample(count, limit, offset, scale)
	default:
		return linearSample(count, limit)
	}
}

func linearSample(count, limit uint32) uint8 {
	if count >= limit {
		return 0
	}
	return uint8(min(limit-count, 255))
}

// logCalibration returns the offset and scale that stretch
// ln(count + 1/limit) over [0, limit] for count in [0, limit-1].
func logCalibration(limit uint32) (offset, scale float64) {
	l := float64(limit)
	offset = math.Log(l)
	scale = offset + math.Log(l-1+1/l)
	return offset, scale
}

func logSample(count, limit uint32, offset, scale float64) uint8 {
	if scale <= 0 {
		return 0
	}
	l := float64(limit)
	return clampSample((math.Log(float64(count)+1/l) + offset) / scale * l)
}

// clampSample truncates v into [0, 255]. NaN maps to 0.
func clampSample(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// maxLUTLimit bounds the size of a precomputed sample table.
const maxLUTLimit = 1 << 16

// sampler maps escape results to samples for one renderer configuration.
// For limits up to maxLUTLimit it holds a table indexed by count, built once
// and then shared read-only by every row task.
type sampler struct {
	policy Intensity
	limit  uint32
	offset float64
	scale  float64
	lut    []uint8
}

func newSampler(p Intensity, limit uint32) *sampler {
	s := &sampler{policy: p, limit: limit}
	s.offset, s.scale = logCalibration(limit)

	if limit <= maxLUTLimit {
		s.lut = make([]uint8, limit)
		for i := range limit {
			s.lut[i] = s.compute(i)
		}
	}
	return s
}

func (s *sampler) compute(count uint32) uint8 {
	if s.policy == Logarithmic {
		return logSample(count, s.limit, s.offset, s.scale)
	}
	return linearSample(count, s.limit)
}

func (s *sampler) sample(count uint32, escaped bool) uint8 {
	if !escaped {
		return 0
	}
	if s.lut != nil {
		return s.lut[count]
	}
	return s.compute(count)
}
