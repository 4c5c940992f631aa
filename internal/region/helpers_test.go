package region

import (
	"image"
	"testing"

	"cv2x/internal/opencv/safe"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// maskOf builds an h by w raster with Marker wherever on returns true.
func maskOf(t *testing.T, h, w int, on func(x, y int) bool) *safe.Mat {
	t.Helper()
	pix := make([]byte, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if on(x, y) {
				pix[y*w+x] = Marker
			}
		}
	}
	m, err := safe.NewMatFromBytes(h, w, pix)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

// rect returns the corner boundary of the inclusive pixel rectangle.
func rect(x0, y0, x1, y1 int) Boundary {
	return Boundary{
		image.Pt(x0, y0),
		image.Pt(x1, y0),
		image.Pt(x1, y1),
		image.Pt(x0, y1),
	}
}

// diffCount counts pixels that differ between two rasters.
func diffCount(t *testing.T, a, b *safe.Mat) int {
	t.Helper()
	out := gocv.NewMat()
	defer out.Close()
	gocv.BitwiseXor(a.GetMat(), b.GetMat(), &out)
	return gocv.CountNonZero(out)
}

func pixelAt(t *testing.T, m *safe.Mat, x, y int) uint8 {
	t.Helper()
	v, err := m.GetUCharAt(y, x)
	require.NoError(t, err)
	return v
}
