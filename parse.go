package mandelbrot

import (
	"regexp"
	"strconv"
	"strings"
)

// number matches a decimal float with optional sign and exponent.
const number = `[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`

var (
	fullPointRe = regexp.MustCompile(`^(` + number + `)([+-])((?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?)i$`)
	imagPointRe = regexp.MustCompile(`^(` + number + `)i$`)
	realPointRe = regexp.MustCompile(`^(` + number + `)$`)
)

// ParsePoint parses a complex point in one of three forms:
//
//	"<re><+|-><im>i"  e.g. "-1.20+0.35i", "3.14-2e-3i"
//	"<im>i"           e.g. "2.718i" (real part 0)
//	"<re>"            e.g. "3.14"   (imaginary part 0)
//
// Surrounding whitespace is ignored. A bare "i" and an implicit imaginary
// coefficient such as "1+i" are rejected. Every error is a *ParseError that
// matches ErrFormat.
func ParsePoint(s string) (complex128, error) {
	t := strings.TrimSpace(s)

	if m := fullPointRe.FindStringSubmatch(t); m != nil {
		re, err := parseFloat(s, m[1])
		if err != nil {
			return 0, err
		}
		im, err := parseFloat(s, m[3])
		if err != nil {
			return 0, err
		}
		if m[2] == "-" {
			im = -im
		}
		return complex(re, im), nil
	}

	if m := imagPointRe.FindStringSubmatch(t); m != nil {
		im, err := parseFloat(s, m[1])
		if err != nil {
			return 0, err
		}
		return complex(0, im), nil
	}

	if m := realPointRe.FindStringSubmatch(t); m != nil {
		re, err := parseFloat(s, m[1])
		if err != nil {
			return 0, err
		}
		return complex(re, 0), nil
	}

	return 0, &ParseError{Input: s}
}

func parseFloat(input, field string) (float64, error) {
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, &ParseError{Input: input, Err: err}
	}
	return f, nil
}

// FormatPoint formats c so that ParsePoint(FormatPoint(c)) == c for finite c.
func FormatPoint(c complex128) string {
	re := strconv.FormatFloat(real(c), 'g', -1, 64)
	im := strconv.FormatFloat(imag(c), 'g', -1, 64)
	if !strings.HasPrefix(im, "-") {
		im = "+" + im
	}
	return re + im + "i"
}
