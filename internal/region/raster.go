package region

import (
	"fmt"
	"image"
	"image/color"

	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Rasterize draws b filled into a new zeroed raster of the given size.
func Rasterize(b Boundary, dims Dims) (*safe.Mat, error) {
	return draw(b, dims, -1, "Rasterize")
}

// RasterizeOutline draws only the one-pixel outline of b.
func RasterizeOutline(b Boundary, dims Dims) (*safe.Mat, error) {
	return draw(b, dims, 1, "RasterizeOutline")
}

func draw(b Boundary, dims Dims, thickness int, context string) (*safe.Mat, error) {
	if err := validateDims(dims, context); err != nil {
		return nil, err
	}
	if err := validateBoundary(b, dims, context); err != nil {
		return nil, err
	}

	raster, err := safe.NewMat(dims.Height, dims.Width, gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", context, err)
	}

	drawInto(raster, []Boundary{b}, thickness)
	return raster, nil
}

// drawInto paints every boundary onto raster in place, each on its own.
func drawInto(raster *safe.Mat, boundaries []Boundary, thickness int) {
	if len(boundaries) == 0 {
		return
	}

	pts := make([][]image.Point, len(boundaries))
	for i, b := range boundaries {
		pts[i] = b
	}

	pv := gocv.NewPointsVectorFromPoints(pts)
	defer pv.Close()

	// One call per contour: a combined fill treats nested contours as holes.
	mat := raster.GetMat()
	for i := range boundaries {
		gocv.DrawContours(&mat, pv, i, white, thickness)
	}
}

// Trace returns the first external boundary of the occupied pixels. Which
// boundary comes first is not defined when the raster holds several components.
func Trace(raster *safe.Mat) (Boundary, error) {
	regions, err := Regions(raster)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, invalid("Trace", "raster", "empty", "no occupied pixels")
	}
	return regions[0], nil
}

// Regions returns every external boundary of the occupied pixels.
func Regions(raster *safe.Mat) ([]Boundary, error) {
	return findContours(raster, gocv.RetrievalExternal, "Regions")
}

func findContours(raster *safe.Mat, mode gocv.RetrievalMode, context string) ([]Boundary, error) {
	if err := validateRaster(raster, context); err != nil {
		return nil, err
	}

	binary, err := binarize(raster)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", context, err)
	}
	defer binary.Close()

	contours := gocv.FindContours(binary.GetMat(), mode, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]Boundary, 0, contours.Size())
	for _, pts := range contours.ToPoints() {
		if len(pts) == 0 {
			continue
		}
		out = append(out, Boundary(pts))
	}
	return out, nil
}

// binarize maps every non-zero pixel to Marker in a new raster.
func binarize(raster *safe.Mat) (*safe.Mat, error) {
	dst, err := safe.NewMat(raster.Rows(), raster.Cols(), gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, err
	}
	dstMat := dst.GetMat()
	gocv.Threshold(raster.GetMat(), &dstMat, 0, float32(Marker), gocv.ThresholdBinary)
	return dst, nil
}

// BoundingBox returns the minimal axis-aligned rectangle covering b.
func BoundingBox(b Boundary) Box {
	if len(b) == 0 {
		return Box{}
	}
	pv := gocv.NewPointVectorFromPoints(b)
	defer pv.Close()
	return gocv.BoundingRect(pv)
}

// Area counts the occupied pixels of raster.
func Area(raster *safe.Mat) int {
	if safe.ValidateMatForOperation(raster, "Area") != nil {
		return 0
	}
	return gocv.CountNonZero(raster.GetMat())
}
