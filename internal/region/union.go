package region

import (
	"fmt"

	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Union rasterizes each region on its own and ORs them into one raster. An
// empty list yields an all-zero raster.
func Union(regions []Boundary, dims Dims) (*safe.Mat, error) {
	if err := validateDims(dims, "Union"); err != nil {
		return nil, err
	}

	acc, err := safe.NewMat(dims.Height, dims.Width, gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, fmt.Errorf("Union: %w", err)
	}

	for i, b := range regions {
		r, err := Rasterize(b, dims)
		if err != nil {
			acc.Close()
			return nil, fmt.Errorf("Union: region %d: %w", i, err)
		}
		accMat := acc.GetMat()
		gocv.BitwiseOr(accMat, r.GetMat(), &accMat)
		r.Close()
	}
	return acc, nil
}

// UnionRasters ORs rasters of equal size into a new raster.
func UnionRasters(rasters []*safe.Mat, dims Dims) (*safe.Mat, error) {
	if err := validateDims(dims, "UnionRasters"); err != nil {
		return nil, err
	}

	acc, err := safe.NewMat(dims.Height, dims.Width, gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, fmt.Errorf("UnionRasters: %w", err)
	}

	for i, r := range rasters {
		if err := validateRaster(r, "UnionRasters"); err != nil {
			acc.Close()
			return nil, err
		}
		if DimsOf(r) != dims {
			acc.Close()
			return nil, invalid("UnionRasters", fmt.Sprintf("raster[%d]", i), DimsOf(r), "dimension mismatch with "+dims.String())
		}
		accMat := acc.GetMat()
		gocv.BitwiseOr(accMat, r.GetMat(), &accMat)
	}
	return acc, nil
}
