package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterBySize(t *testing.T) {
	dims := Dims{Height: 100, Width: 100}
	small := rect(20, 20, 29, 29)  // 10x10 = 100
	medium := rect(10, 10, 49, 59) // 40x50 = 2000
	large := rect(0, 0, 79, 79)    // 80x80 = 6400

	t.Run("below minimum", func(t *testing.T) {
		kept := FilterBySize([]Boundary{small}, dims, SizeRange{Min: 1024})
		assert.Empty(t, kept)
	})

	t.Run("default maximum is half the raster", func(t *testing.T) {
		kept := FilterBySize([]Boundary{large, medium, small}, dims, DefaultSizeRange())
		assert.Equal(t, []Boundary{medium}, kept)
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		kept := FilterBySize([]Boundary{small, medium}, dims, SizeRange{Min: 100, Max: 2000})
		assert.Equal(t, []Boundary{small, medium}, kept)
	})
}

func TestSizeRangeResolve(t *testing.T) {
	r := SizeRange{Min: 1}.Resolve(Dims{Height: 100, Width: 100})
	assert.Equal(t, 5000, r.Max)

	r = SizeRange{Min: 1, Max: 42}.Resolve(Dims{Height: 100, Width: 100})
	assert.Equal(t, 42, r.Max)
}
