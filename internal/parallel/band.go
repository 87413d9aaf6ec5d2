// Package parallel provides the row-parallel rendering infrastructure for the
// escape-time renderer.
//
// The target pixel buffer is allocated once and cut into horizontal bands of
// whole rows. Every band owns a disjoint, capacity-limited slice of the buffer,
// so concurrent writers never alias and no lock guards the buffer. Bands are
// executed on a WorkerPool whose ExecuteAll call is the single join barrier.
package parallel

import "errors"

// DefaultBandRows is the number of rows per band when the caller passes zero.
// 16 rows of a 4K-wide RGB image is ~180KB, small enough to keep a band
// resident in L2 while it is being written.
const DefaultBandRows = 16

// ErrLayout is returned by SplitRows when the buffer does not match the
// requested geometry.
var ErrLayout = errors.New("parallel: buffer length does not match stride*height")

// Band is a horizontal strip of whole rows.
//
// Data is the band's own window into the shared buffer. Its capacity is
// clipped to the band, so appending to it can never spill into a neighbour.
type Band struct {
	// Y is the index of the first row of the band in the full image.
	Y int

	// Rows is the number of rows in the band (the last band may be shorter).
	Rows int

	// Stride is the number of bytes per row.
	Stride int

	// Data holds Rows*Stride bytes.
	Data []byte
}

// Row returns the bytes of band-local row i.
// Returns nil if i is out of range.
func (b *Band) Row(i int) []byte {
	if i < 0 || i >= b.Rows {
		return nil
	}
	start := i * b.Stride
	return b.Data[start : start+b.Stride : start+b.Stride]
}

// SplitRows cuts data, an image of height rows of stride bytes, into bands of
// bandRows rows. If bandRows is 0 or negative, DefaultBandRows is used.
// A bandRows of 1 yields one band per row.
func SplitRows(data []byte, stride, height, bandRows int) ([]Band, error) {
	if stride <= 0 || height <= 0 || len(data) != stride*height {
		return nil, ErrLayout
	}
	if bandRows <= 0 {
		bandRows = DefaultBandRows
	}

	bands := make([]Band, 0, (height+bandRows-1)/bandRows)
	for y := 0; y < height; y += bandRows {
		rows := min(bandRows, height-y)
		lo := y * stride
		hi := lo + rows*stride
		bands = append(bands, Band{
			Y:      y,
			Rows:   rows,
			Stride: stride,
			Data:   data[lo:hi:hi],
		})
	}
	return bands, nil
}
