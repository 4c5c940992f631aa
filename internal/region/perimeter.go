package region

import "image"

// Perimeter unwraps the border pixels of a raster into a cyclic sequence,
// clockwise from (0,0): top row without its last pixel, right column without
// its last pixel, bottom row reversed, left column reversed. Every border pixel
// appears exactly once.
type Perimeter struct {
	dims   Dims
	length int
}

func NewPerimeter(dims Dims) (Perimeter, error) {
	if dims.Height < 2 || dims.Width < 2 {
		return Perimeter{}, invalid("Perimeter", "dimensions", dims, "needs at least 2x2 pixels")
	}
	return Perimeter{
		dims:   dims,
		length: 2*(dims.Height-1) + 2*(dims.Width-1),
	}, nil
}

// Len is the number of positions, 2(H-1) + 2(W-1).
func (p Perimeter) Len() int {
	return p.length
}

// Wrap reduces any index, negative included, into [0, Len).
func (p Perimeter) Wrap(i int) int {
	i %= p.length
	if i < 0 {
		i += p.length
	}
	return i
}

// Coord maps a perimeter position to its pixel.
func (p Perimeter) Coord(i int) image.Point {
	i = p.Wrap(i)
	w, h := p.dims.Width, p.dims.Height

	top := w - 1
	right := top + h - 1
	bottom := right + w - 1

	switch {
	case i < top:
		return image.Pt(i, 0)
	case i < right:
		return image.Pt(w-1, i-top)
	case i < bottom:
		return image.Pt(w-1-(i-right), h-1)
	default:
		return image.Pt(0, h-1-(i-bottom))
	}
}

// Marks returns, in ascending order, the positions whose pixel is non-zero in
// pix, a row-major buffer of the perimeter's dimensions.
func (p Perimeter) Marks(pix []byte) []int {
	var marks []int
	for i := 0; i < p.length; i++ {
		c := p.Coord(i)
		if pix[c.Y*p.dims.Width+c.X] != 0 {
			marks = append(marks, i)
		}
	}
	return marks
}
