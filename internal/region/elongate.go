package region

import (
	"fmt"
	"image"
	"math"

	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Extension is the cap length added at each end of an elongated region,
// either in pixels or as a fraction of the region's long side.
type Extension struct {
	value    float64
	fraction bool
}

func Pixels(n int) Extension {
	return Extension{value: float64(n)}
}

// Fraction values in (0, 1] scale with the long side; larger values are read
// as whole pixels.
func Fraction(f float64) Extension {
	return Extension{value: f, fraction: true}
}

// Negative reports whether the extension requests no elongation.
func (e Extension) Negative() bool {
	return e.value < 0
}

// Resolve converts the extension to pixels for a w by h rectangle.
func (e Extension) Resolve(w, h float64) int {
	if e.fraction && e.value > 0 && e.value <= 1 {
		return int(math.Floor(e.value*max(w, h))) + 1
	}
	return int(e.value)
}

func (e Extension) String() string {
	if e.fraction {
		return fmt.Sprintf("%gx", e.value)
	}
	return fmt.Sprintf("%dpx", int(e.value))
}

// Elongate extends b along its dominant axis by drawing an elliptical cap at
// each end. The region is rotated so its long side is vertical, caps are
// aimed from the midline centre towards the centre of the rows just inside
// the top and bottom extremes, then the raster is rotated back and traced.
//
// Thin rectangles and negative extensions return a copy of b with
// StatusDegenerate. If the result does not trace to exactly one boundary the
// status is StatusTraceFailure.
func Elongate(b Boundary, dims Dims, ext Extension) (ElongateResult, error) {
	if err := validateDims(dims, "Elongate"); err != nil {
		return ElongateResult{}, err
	}
	if err := validateBoundary(b, dims, "Elongate"); err != nil {
		return ElongateResult{}, err
	}

	pv := gocv.NewPointVectorFromPoints(b)
	rect := gocv.MinAreaRect2f(pv)
	pv.Close()

	w, h := float64(rect.Width), float64(rect.Height)
	if w <= 1 || h <= 1 || ext.Negative() {
		return ElongateResult{Status: StatusDegenerate, Boundary: append(Boundary(nil), b...)}, nil
	}

	length := ext.Resolve(w, h)
	angle := rect.Angle
	if w > h {
		angle -= 90
	}

	center := image.Pt(int(math.Round(float64(rect.Center.X))), int(math.Round(float64(rect.Center.Y))))

	raster, err := Rasterize(b, dims)
	if err != nil {
		return ElongateResult{}, err
	}
	defer raster.Close()

	upright, err := rotate(raster, center, angle)
	if err != nil {
		return ElongateResult{}, fmt.Errorf("Elongate: %w", err)
	}
	defer upright.Close()

	if ok, err := drawCaps(upright, length); err != nil {
		return ElongateResult{}, fmt.Errorf("Elongate: %w", err)
	} else if !ok {
		return ElongateResult{Status: StatusTraceFailure}, nil
	}

	back, err := rotate(upright, center, -angle)
	if err != nil {
		return ElongateResult{}, fmt.Errorf("Elongate: %w", err)
	}
	defer back.Close()

	regions, err := Regions(back)
	if err != nil {
		return ElongateResult{}, err
	}
	if len(regions) != 1 {
		return ElongateResult{Status: StatusTraceFailure}, nil
	}
	return ElongateResult{Status: StatusOK, Boundary: regions[0]}, nil
}

// rotate turns raster about center by angle degrees into a new binary raster
// of the same size.
func rotate(raster *safe.Mat, center image.Point, angle float64) (*safe.Mat, error) {
	dst, err := safe.NewMat(raster.Rows(), raster.Cols(), gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, err
	}

	m := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer m.Close()

	dstMat := dst.GetMat()
	gocv.WarpAffine(raster.GetMat(), &dstMat, m, image.Pt(raster.Cols(), raster.Rows()))
	// Interpolation leaves grey edges.
	gocv.Threshold(dstMat, &dstMat, 0, float32(Marker), gocv.ThresholdBinary)
	return dst, nil
}

// drawCaps adds the end caps to an upright raster in place. It returns false
// when the raster is empty or its midline row has no occupied pixels.
func drawCaps(upright *safe.Mat, length int) (bool, error) {
	pix, err := upright.ToBytes()
	if err != nil {
		return false, err
	}
	dims := DimsOf(upright)

	ymin, ymax := -1, -1
	for y := 0; y < dims.Height; y++ {
		if _, _, ok := rowSpan(pix, dims, y); ok {
			if ymin < 0 {
				ymin = y
			}
			ymax = y
		}
	}
	if ymin < 0 {
		return false, nil
	}

	ymid := roundHalfEven(ymin, ymax)
	midMin, midMax, ok := rowSpan(pix, dims, ymid)
	if !ok {
		return false, nil
	}
	pivot := image.Pt(roundHalfEven(midMin, midMax), ymid)
	axes := image.Pt(length, (midMax-midMin)/4)

	mat := upright.GetMat()
	ends := []struct{ probe, tipY int }{
		{ymin + 1, ymin},
		{ymax - 1, ymax},
	}
	for _, end := range ends {
		lo, hi, ok := rowSpan(pix, dims, end.probe)
		if !ok {
			continue
		}
		tip := image.Pt(roundHalfEven(lo, hi), end.tipY)
		deg := math.Atan2(float64(tip.Y-pivot.Y), float64(tip.X-pivot.X)) * 180 / math.Pi
		gocv.Ellipse(&mat, tip, axes, deg, 0, 360, white, -1)
	}
	return true, nil
}

// rowSpan returns the first and last occupied column of row y.
func rowSpan(pix []byte, dims Dims, y int) (lo, hi int, ok bool) {
	if y < 0 || y >= dims.Height {
		return 0, 0, false
	}
	row := pix[y*dims.Width : (y+1)*dims.Width]
	lo, hi = -1, -1
	for x, v := range row {
		if v != 0 {
			if lo < 0 {
				lo = x
			}
			hi = x
		}
	}
	return lo, hi, lo >= 0
}

func roundHalfEven(a, b int) int {
	return int(math.RoundToEven(float64(a+b) / 2))
}
