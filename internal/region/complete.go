package region

import (
	"fmt"

	"cv2x/internal/opencv/safe"
)

// CompleteBorder repairs a region clipped by the raster edge. The perimeter
// positions occupied by the region split the border into gaps; the largest
// gap is the clipped stretch, and the interior is flood filled from the first
// free position after the occupied run that closes it.
//
// When at most one gap is wider than a pixel the region is already closed and
// an unchanged copy comes back. A tie for the largest gap yields
// StatusAmbiguous with no raster. The input is never modified.
func CompleteBorder(raster *safe.Mat) (FillResult, error) {
	if err := validateRaster(raster, "CompleteBorder"); err != nil {
		return FillResult{}, err
	}

	dims := DimsOf(raster)
	perim, err := NewPerimeter(dims)
	if err != nil {
		return FillResult{}, err
	}

	pix, err := raster.ToBytes()
	if err != nil {
		return FillResult{}, fmt.Errorf("CompleteBorder: %w", err)
	}

	marks := perim.Marks(pix)
	if len(marks) == 0 {
		return FillResult{}, invalid("CompleteBorder", "raster", "no border pixels", "region does not touch the raster edge")
	}

	seed, status := floodSeed(marks, perim)
	switch status {
	case StatusAmbiguous:
		return FillResult{Status: StatusAmbiguous}, nil
	case StatusDegenerate:
		out, err := raster.Clone()
		if err != nil {
			return FillResult{}, fmt.Errorf("CompleteBorder: %w", err)
		}
		return FillResult{Status: StatusOK, Raster: out}, nil
	}

	floodFill(pix, dims, perim.Coord(seed), Marker)

	out, err := safe.NewMatFromBytes(dims.Height, dims.Width, pix)
	if err != nil {
		return FillResult{}, fmt.Errorf("CompleteBorder: %w", err)
	}
	return FillResult{Status: StatusOK, Raster: out}, nil
}

// CompleteBorderRegion rasterizes b filled and repairs it.
func CompleteBorderRegion(b Boundary, dims Dims) (FillResult, error) {
	raster, err := Rasterize(b, dims)
	if err != nil {
		return FillResult{}, err
	}
	defer raster.Close()

	return CompleteBorder(raster)
}

// floodSeed picks the fill entry from ascending marked positions. It returns
// StatusDegenerate when nothing needs filling and StatusAmbiguous on a tie.
func floodSeed(marks []int, perim Perimeter) (int, Status) {
	n := len(marks)

	// gaps[i] is the distance from the previous mark to marks[i]; the first
	// one wraps around from the last mark through position 0.
	gaps := make([]int, n)
	gaps[0] = marks[0] - (marks[n-1] - perim.Len())
	for i := 1; i < n; i++ {
		gaps[i] = marks[i] - marks[i-1]
	}

	open := 0
	maxGap, maxAt, ties := 0, -1, 0
	for i, g := range gaps {
		if g > 1 {
			open++
		}
		switch {
		case g > maxGap:
			maxGap, maxAt, ties = g, i, 1
		case g == maxGap:
			ties++
		}
	}

	if open <= 1 {
		return 0, StatusDegenerate
	}
	if ties > 1 {
		return 0, StatusAmbiguous
	}

	marked := make(map[int]bool, n)
	for _, m := range marks {
		marked[m] = true
	}

	pos := marks[maxAt]
	for steps := 0; steps < perim.Len() && marked[perim.Wrap(pos+1)]; steps++ {
		pos++
	}
	return perim.Wrap(pos + 1), StatusOK
}
