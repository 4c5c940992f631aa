package region

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestExtensionResolve(t *testing.T) {
	tests := []struct {
		name string
		ext  Extension
		w, h float64
		want int
	}{
		{"fraction of long side", Fraction(0.1), 20, 60, 7},
		{"whole fraction", Fraction(1.0), 20, 60, 61},
		{"fraction above one is pixels", Fraction(2.5), 20, 60, 2},
		{"pixels", Pixels(5), 20, 60, 5},
		{"long side is width", Fraction(0.5), 40, 10, 21},
		{"fractional side is not truncated", Fraction(0.99), 20, 60.9, 61},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ext.Resolve(tt.w, tt.h))
		})
	}

	assert.True(t, Pixels(-1).Negative())
	assert.False(t, Fraction(0.2).Negative())
}

func TestElongateNegativeExtensionIsNoOp(t *testing.T) {
	b := rect(40, 20, 59, 79)

	res, err := Elongate(b, Dims{Height: 100, Width: 100}, Pixels(-1))
	require.NoError(t, err)

	assert.Equal(t, StatusDegenerate, res.Status)
	assert.Equal(t, b, res.Boundary)
}

func TestElongateThinRegionIsNoOp(t *testing.T) {
	line := Boundary{image.Pt(10, 10), image.Pt(10, 40)}

	res, err := Elongate(line, Dims{Height: 50, Width: 50}, Pixels(10))
	require.NoError(t, err)

	assert.Equal(t, StatusDegenerate, res.Status)
	assert.Equal(t, line, res.Boundary)
}

func TestElongateDegenerateWidth(t *testing.T) {
	dims := Dims{Height: 60, Width: 60}
	tests := []struct {
		name       string
		b          Boundary
		degenerate bool
	}{
		{"one-pixel line", Boundary{image.Pt(10, 10), image.Pt(10, 40)}, true},
		{"unit-wide rectangle", rect(10, 10, 11, 40), true},
		// The rotated rectangle is about 1.41 px wide.
		{"narrow diagonal band", Boundary{image.Pt(10, 10), image.Pt(12, 10), image.Pt(42, 40), image.Pt(40, 40)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Elongate(tt.b, dims, Pixels(5))
			require.NoError(t, err)
			if tt.degenerate {
				assert.Equal(t, StatusDegenerate, res.Status)
				assert.Equal(t, tt.b, res.Boundary)
			} else {
				assert.NotEqual(t, StatusDegenerate, res.Status)
			}
		})
	}
}

func TestElongateExtendsAlongLongAxis(t *testing.T) {
	dims := Dims{Height: 100, Width: 100}
	tests := []struct {
		name string
		b    Boundary
		long func(image.Rectangle) int
	}{
		{"vertical", rect(40, 20, 59, 79), func(r image.Rectangle) int { return r.Dy() }},
		{"horizontal", rect(20, 40, 79, 59), func(r image.Rectangle) int { return r.Dx() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Elongate(tt.b, dims, Pixels(10))
			require.NoError(t, err)
			require.Equal(t, StatusOK, res.Status)

			before := BoundingBox(tt.b)
			after := BoundingBox(res.Boundary)
			assert.GreaterOrEqual(t, tt.long(after), tt.long(before)+15)

			orig, err := Rasterize(tt.b, dims)
			require.NoError(t, err)
			defer orig.Close()
			grown, err := Rasterize(res.Boundary, dims)
			require.NoError(t, err)
			defer grown.Close()

			// Everything in the original must survive.
			covered := gocv.NewMat()
			defer covered.Close()
			gocv.BitwiseOr(orig.GetMat(), grown.GetMat(), &covered)
			assert.Equal(t, Area(grown), gocv.CountNonZero(covered))
			assert.Greater(t, Area(grown), Area(orig))
		})
	}
}

func TestElongateRejectsInvalidInput(t *testing.T) {
	_, err := Elongate(nil, Dims{Height: 10, Width: 10}, Pixels(3))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Elongate(rect(0, 0, 20, 20), Dims{Height: 10, Width: 10}, Pixels(3))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDrawCapsEmptyRaster(t *testing.T) {
	m := maskOf(t, 20, 20, func(x, y int) bool { return false })

	ok, err := drawCaps(m, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, Area(m))
}

func TestDrawCapsSkipsEmptyExtremities(t *testing.T) {
	// A single row leaves both rows next to it empty, so no cap is drawn.
	m := maskOf(t, 20, 20, func(x, y int) bool { return y == 5 && x >= 5 && x <= 15 })
	before, err := m.ToBytes()
	require.NoError(t, err)

	ok, err := drawCaps(m, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := m.ToBytes()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRowSpan(t *testing.T) {
	dims := Dims{Height: 2, Width: 5}
	pix := []byte{0, 255, 0, 255, 0, 0, 0, 0, 0, 0}

	lo, hi, ok := rowSpan(pix, dims, 0)
	assert.True(t, ok)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 3, hi)

	_, _, ok = rowSpan(pix, dims, 1)
	assert.False(t, ok)
	_, _, ok = rowSpan(pix, dims, 2)
	assert.False(t, ok)
}

func TestRoundHalfEven(t *testing.T) {
	assert.Equal(t, 2, roundHalfEven(1, 4))
	assert.Equal(t, 4, roundHalfEven(3, 6))
	assert.Equal(t, 5, roundHalfEven(5, 5))
}
