package region

import (
	"testing"

	"cv2x/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnion(t *testing.T) {
	dims := Dims{Height: 20, Width: 20}
	a := rect(2, 2, 9, 9)
	b := rect(6, 6, 14, 12)

	ab, err := Union([]Boundary{a, b}, dims)
	require.NoError(t, err)
	defer ab.Close()

	// 64 + 63 - 16 overlapping
	assert.Equal(t, 111, Area(ab))

	t.Run("order independent", func(t *testing.T) {
		ba, err := Union([]Boundary{b, a}, dims)
		require.NoError(t, err)
		defer ba.Close()
		assert.Zero(t, diffCount(t, ab, ba))
	})

	t.Run("idempotent", func(t *testing.T) {
		aa, err := Union([]Boundary{a, a, a}, dims)
		require.NoError(t, err)
		defer aa.Close()

		single, err := Rasterize(a, dims)
		require.NoError(t, err)
		defer single.Close()

		assert.Zero(t, diffCount(t, aa, single))
	})

	t.Run("empty", func(t *testing.T) {
		empty, err := Union(nil, dims)
		require.NoError(t, err)
		defer empty.Close()
		assert.Zero(t, Area(empty))
	})
}

func TestUnionRasters(t *testing.T) {
	dims := Dims{Height: 8, Width: 8}
	left := maskOf(t, 8, 8, func(x, y int) bool { return x < 3 })
	top := maskOf(t, 8, 8, func(x, y int) bool { return y < 2 })

	out, err := UnionRasters([]*safe.Mat{left, top}, dims)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 24+10, Area(out))

	other := maskOf(t, 4, 8, func(x, y int) bool { return true })
	_, err = UnionRasters([]*safe.Mat{left, other}, dims)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFillHoles(t *testing.T) {
	ring := maskOf(t, 10, 10, func(x, y int) bool {
		inOuter := x >= 2 && x <= 7 && y >= 2 && y <= 7
		inHole := x >= 4 && x <= 5 && y >= 4 && y <= 5
		return inOuter && !inHole
	})
	require.Equal(t, 32, Area(ring))

	filled, err := FillHoles(ring)
	require.NoError(t, err)
	defer filled.Close()

	assert.Equal(t, 36, Area(filled))
	assert.Equal(t, 32, Area(ring), "input must not change")
}
