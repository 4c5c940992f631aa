package background

import (
	"context"
	"fmt"
	"math"

	"cv2x/internal/opencv/safe"
)

// SegmentParams are passed through to the segmentation routine.
type SegmentParams struct {
	Segments    int
	Compactness float64
	Sigma       float64
}

// Labels is a row-major label grid. Label 0 marks unlabelled pixels.
type Labels struct {
	Rows int
	Cols int
	Data []int32
}

func NewLabels(rows, cols int) *Labels {
	return &Labels{Rows: rows, Cols: cols, Data: make([]int32, rows*cols)}
}

func (l *Labels) At(x, y int) int32 {
	return l.Data[y*l.Cols+x]
}

// Segmenter partitions an image into superpixels.
type Segmenter interface {
	Segment(ctx context.Context, img *safe.Mat, params SegmentParams) (*Labels, error)
}

// GridSegmenter splits the image into square tiles of roughly equal area,
// one label per tile. It ignores pixel content and compactness.
type GridSegmenter struct{}

func (GridSegmenter) Segment(ctx context.Context, img *safe.Mat, params SegmentParams) (*Labels, error) {
	if err := safe.ValidateMatForOperation(img, "GridSegmenter"); err != nil {
		return nil, err
	}
	if params.Segments < 1 {
		return nil, fmt.Errorf("segments must be positive, got %d", params.Segments)
	}

	rows, cols := img.Rows(), img.Cols()
	side := int(math.Round(math.Sqrt(float64(rows*cols) / float64(params.Segments))))
	if side < 1 {
		side = 1
	}
	perRow := (cols + side - 1) / side

	labels := NewLabels(rows, cols)
	for y := 0; y < rows; y++ {
		if y%side == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		for x := 0; x < cols; x++ {
			labels.Data[y*cols+x] = int32((y/side)*perRow+x/side) + 1
		}
	}
	return labels, nil
}
