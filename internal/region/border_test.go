package region

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBorder(t *testing.T) {
	dims := Dims{Height: 10, Width: 10}
	corner := rect(0, 0, 4, 4) // bbox (0,0,5,5)
	inner := rect(3, 3, 4, 4)  // bbox (3,3,2,2)
	right := rect(6, 2, 9, 5)  // touches x = W-1
	bottom := rect(2, 7, 5, 9) // touches y = H-1
	inner2 := rect(2, 2, 7, 7)

	border, interior := ClassifyBorder([]Boundary{corner, inner, right, inner2, bottom}, dims)

	assert.Equal(t, []Boundary{corner, right, bottom}, border)
	assert.Equal(t, []Boundary{inner, inner2}, interior)
}

func TestTouchesBorderUsesMatchingAxis(t *testing.T) {
	dims := Dims{Height: 20, Width: 10}

	// Bottom edge at y = 9 equals W-1 but not H-1.
	assert.False(t, TouchesBorder(image.Rect(2, 2, 5, 10), dims))
	assert.True(t, TouchesBorder(image.Rect(2, 2, 5, 20), dims))
	assert.True(t, TouchesBorder(image.Rect(2, 2, 10, 5), dims))
}
