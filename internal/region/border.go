package region

// TouchesBorder reports whether box reaches the first or last row or column.
func TouchesBorder(box Box, dims Dims) bool {
	if box.Min.X == 0 || box.Min.Y == 0 {
		return true
	}
	return box.Max.X-1 == dims.Width-1 || box.Max.Y-1 == dims.Height-1
}

// ClassifyBorder splits regions into those touching the raster edge and those
// fully inside it. Both lists keep input order.
func ClassifyBorder(regions []Boundary, dims Dims) (border, interior []Boundary) {
	for _, b := range regions {
		if TouchesBorder(BoundingBox(b), dims) {
			border = append(border, b)
		} else {
			interior = append(interior, b)
		}
	}
	return border, interior
}
