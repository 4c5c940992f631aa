package region

import (
	"errors"
	"fmt"
	"image"

	"cv2x/internal/opencv/safe"
)

// Marker is the value of occupied raster cells.
const Marker uint8 = 255

// Boundary is an ordered, closed sequence of pixel coordinates.
type Boundary []image.Point

// Box is an axis-aligned bounding rectangle. Min is inclusive, Max exclusive.
type Box = image.Rectangle

// Dims is the raster size shared by every mask derived from one image.
type Dims struct {
	Height int
	Width  int
}

func DimsOf(raster *safe.Mat) Dims {
	return Dims{Height: raster.Rows(), Width: raster.Cols()}
}

func (d Dims) Area() int {
	return d.Height * d.Width
}

func (d Dims) Contains(p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < d.Width && p.Y < d.Height
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

type Status int

const (
	StatusOK Status = iota
	// StatusAmbiguous: two or more perimeter gaps tie for largest.
	StatusAmbiguous
	// StatusDegenerate: the region was returned unmodified.
	StatusDegenerate
	// StatusTraceFailure: the transformed raster did not trace to exactly one boundary.
	StatusTraceFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAmbiguous:
		return "ambiguous"
	case StatusDegenerate:
		return "degenerate"
	case StatusTraceFailure:
		return "trace_failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// FillResult carries a repaired raster. Raster is nil unless Status is StatusOK
// and is owned by the caller.
type FillResult struct {
	Status Status
	Raster *safe.Mat
}

// ElongateResult carries the elongated boundary. On StatusDegenerate it holds a
// copy of the input; on StatusTraceFailure it is nil.
type ElongateResult struct {
	Status   Status
	Boundary Boundary
}

var ErrInvalidInput = errors.New("invalid input")

type InvalidInputError struct {
	Context string
	Field   string
	Value   interface{}
	Reason  string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: invalid %s value %v - %s", e.Context, e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(context, field string, value interface{}, reason string) error {
	return &InvalidInputError{Context: context, Field: field, Value: value, Reason: reason}
}

func validateDims(dims Dims, context string) error {
	if dims.Height <= 0 || dims.Width <= 0 {
		return invalid(context, "dimensions", dims, "width and height must be positive")
	}
	if dims.Height > safe.MaxDimension || dims.Width > safe.MaxDimension {
		return invalid(context, "dimensions", dims, "exceeds maximum size")
	}
	return nil
}

func validateBoundary(b Boundary, dims Dims, context string) error {
	if len(b) == 0 {
		return invalid(context, "boundary", "empty", "boundary has no points")
	}
	for _, p := range b {
		if !dims.Contains(p) {
			return invalid(context, "boundary", p, fmt.Sprintf("point outside %s raster", dims))
		}
	}
	return nil
}

func validateRaster(raster *safe.Mat, context string) error {
	if err := safe.ValidateMask(raster, context); err != nil {
		return &InvalidInputError{Context: context, Field: "raster", Value: "mat", Reason: err.Error()}
	}
	return nil
}
