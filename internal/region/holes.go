package region

import (
	"fmt"

	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// FillHoles closes every interior hole of the occupied regions. The input is
// not modified.
func FillHoles(raster *safe.Mat) (*safe.Mat, error) {
	contours, err := findContours(raster, gocv.RetrievalCComp, "FillHoles")
	if err != nil {
		return nil, err
	}

	out, err := binarize(raster)
	if err != nil {
		return nil, fmt.Errorf("FillHoles: %w", err)
	}
	drawInto(out, contours, -1)
	return out, nil
}
