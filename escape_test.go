package mandelbrot

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		name        string
		c           complex128
		limit       uint32
		wantCount   uint32
		wantEscaped bool
	}{
		{"origin is bounded", 0, 255, 0, false},
		{"minus one cycles", -1, 255, 0, false},
		{"minus two stays on the boundary", -2, 255, 0, false},
		{"far point escapes at once", 5 + 5i, 255, 0, true},
		{"two escapes on second iteration", 2, 255, 1, true},
		{"one escapes on third iteration", 1, 255, 2, true},
		{"i is bounded", 1i, 255, 0, false},
		{"zero limit never iterates", 5 + 5i, 0, 0, false},
		{"limit reached before escape", 1, 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, escaped := Escape(tt.c, tt.limit, DefaultEscapeRadiusSq)
			if count != tt.wantCount || escaped != tt.wantEscaped {
				t.Errorf("Escape(%v, %d) = (%d, %v), want (%d, %v)",
					tt.c, tt.limit, count, escaped, tt.wantCount, tt.wantEscaped)
			}
		})
	}
}

func TestEscapeCountBelowLimit(t *testing.T) {
	const limit = 50
	for re := -2.5; re <= 1; re += 0.05 {
		for im := -1.25; im <= 1.25; im += 0.05 {
			count, escaped := Escape(complex(re, im), limit, DefaultEscapeRadiusSq)
			if escaped && count >= limit {
				t.Fatalf("Escape(%v+%vi) count %d >= limit %d", re, im, count, limit)
			}
			if !escaped && count != 0 {
				t.Fatalf("Escape(%v+%vi) bounded with count %d", re, im, count)
			}
		}
	}
}

func TestEscapeRadius(t *testing.T) {
	// |z1|² = 4.41: escapes at once under radius² 4, not under 8.
	c := complex(2.1, 0)
	if _, escaped := Escape(c, 1, 4); !escaped {
		t.Error("Escape(2.1, limit 1, r² 4) did not escape")
	}
	if _, escaped := Escape(c, 1, 8); escaped {
		t.Error("Escape(2.1, limit 1, r² 8) escaped")
	}
}

func BenchmarkEscapeBounded(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		Escape(-0.1+0.1i, 1000, DefaultEscapeRadiusSq)
	}
}
