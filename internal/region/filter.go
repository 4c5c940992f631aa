package region

// DefaultMinSize is the smallest bounding-box area kept when no range is configured.
const DefaultMinSize = 1024

// SizeRange bounds the bounding-box area of kept regions, inclusive. Max <= 0
// means half the raster area.
type SizeRange struct {
	Min int
	Max int
}

func DefaultSizeRange() SizeRange {
	return SizeRange{Min: DefaultMinSize}
}

// Resolve fills in the default maximum for dims.
func (r SizeRange) Resolve(dims Dims) SizeRange {
	if r.Max <= 0 {
		r.Max = dims.Area() / 2
	}
	return r
}

func (r SizeRange) Contains(area int) bool {
	return area >= r.Min && area <= r.Max
}

// FilterBySize keeps regions whose bounding-box area lies within r, in input order.
func FilterBySize(regions []Boundary, dims Dims, r SizeRange) []Boundary {
	r = r.Resolve(dims)

	kept := make([]Boundary, 0, len(regions))
	for _, b := range regions {
		box := BoundingBox(b)
		if r.Contains(box.Dx() * box.Dy()) {
			kept = append(kept, b)
		}
	}
	return kept
}
