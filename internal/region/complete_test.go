package region

import (
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uShape opens onto the top edge: arms at columns 2-3 and 6-7 over rows 0-6,
// joined by a bar over rows 5-6. Its mouth, columns 4-5 of rows 0-4, is the
// clipped interior.
func uShape(x, y int) bool {
	arm := (x >= 2 && x <= 3) || (x >= 6 && x <= 7)
	return (arm && y <= 6) || (x >= 2 && x <= 7 && y >= 5 && y <= 6)
}

func TestCompleteBorderFillsClippedInterior(t *testing.T) {
	m := maskOf(t, 10, 10, uShape)
	require.Equal(t, 32, Area(m))

	res, err := CompleteBorder(m)
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	require.NotNil(t, res.Raster)
	defer res.Raster.Close()

	assert.Equal(t, 42, Area(res.Raster))
	assert.Equal(t, Marker, pixelAt(t, res.Raster, 4, 0))
	assert.Equal(t, Marker, pixelAt(t, res.Raster, 5, 4))
	assert.Zero(t, pixelAt(t, res.Raster, 8, 0))
	assert.Zero(t, pixelAt(t, res.Raster, 4, 7))

	assert.Equal(t, 32, Area(m), "input must not change")
}

func TestCompleteBorderClosedRegionIsUnchanged(t *testing.T) {
	m := maskOf(t, 10, 10, func(x, y int) bool { return x <= 4 && y <= 4 })

	res, err := CompleteBorder(m)
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	defer res.Raster.Close()

	assert.Zero(t, diffCount(t, m, res.Raster))
	assert.NotEqual(t, m.ID(), res.Raster.ID())
}

func TestCompleteBorderSingleMark(t *testing.T) {
	m := maskOf(t, 10, 10, func(x, y int) bool { return x == 5 && y <= 3 })

	res, err := CompleteBorder(m)
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	defer res.Raster.Close()

	assert.Zero(t, diffCount(t, m, res.Raster))
}

func TestCompleteBorderTieIsAmbiguous(t *testing.T) {
	// Opposite corners sit at positions 0 and 18 of a 36 long perimeter.
	m := maskOf(t, 10, 10, func(x, y int) bool {
		return (x == 0 && y == 0) || (x == 9 && y == 9)
	})

	res, err := CompleteBorder(m)
	require.NoError(t, err)
	assert.Equal(t, StatusAmbiguous, res.Status)
	assert.Nil(t, res.Raster)
}

func TestCompleteBorderRejectsInteriorOnlyRaster(t *testing.T) {
	m := maskOf(t, 10, 10, func(x, y int) bool { return x >= 3 && x <= 6 && y >= 3 && y <= 6 })

	_, err := CompleteBorder(m)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CompleteBorder(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompleteBorderRegion(t *testing.T) {
	res, err := CompleteBorderRegion(rect(0, 0, 4, 4), Dims{Height: 10, Width: 10})
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	defer res.Raster.Close()

	assert.Equal(t, 25, Area(res.Raster))
}

func TestFloodSeed(t *testing.T) {
	p, err := NewPerimeter(Dims{Height: 10, Width: 10})
	require.NoError(t, err)

	tests := []struct {
		name   string
		marks  []int
		seed   int
		status Status
	}{
		{"closed run", []int{0, 1, 2, 3, 4, 32, 33, 34, 35}, 0, StatusDegenerate},
		{"tie", []int{0, 18}, 0, StatusAmbiguous},
		{"walks the run", []int{2, 3, 6, 7}, 4, StatusOK},
		// The largest gap ends at 34; the run 34, 35, 0 wraps past the end.
		{"wraps", []int{0, 10, 11, 34, 35}, 1, StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, status := floodSeed(tt.marks, p)
			assert.Equal(t, tt.status, status)
			if status == StatusOK {
				assert.Equal(t, tt.seed, seed)
			}
		})
	}
}

func TestFloodFill(t *testing.T) {
	dims := Dims{Height: 5, Width: 5}
	// A wall down column 2 splits the raster.
	pix := make([]byte, 25)
	for y := 0; y < 5; y++ {
		pix[y*5+2] = Marker
	}

	n := floodFill(pix, dims, image.Pt(0, 0), Marker)
	assert.Equal(t, 10, n)
	assert.Equal(t, Marker, pix[4*5+1])
	assert.Zero(t, pix[0*5+3])

	assert.Zero(t, floodFill(pix, dims, image.Pt(2, 2), Marker))
	assert.Zero(t, floodFill(pix, dims, image.Pt(7, 7), Marker))
}

func TestCompleteBorderConcurrentCallers(t *testing.T) {
	m := maskOf(t, 10, 10, uShape)

	var wg sync.WaitGroup
	areas := make([]int, 8)
	for i := range areas {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := CompleteBorder(m)
			if err != nil || res.Raster == nil {
				return
			}
			areas[i] = Area(res.Raster)
			res.Raster.Close()
		}(i)
	}
	wg.Wait()

	for _, a := range areas {
		assert.Equal(t, 42, a)
	}
}
