// Package background proposes background regions of a tissue image: superpixels
// that avoid the known foreground, shrunk away from their neighbours and
// filtered by size.
package background

import (
	"context"
	"fmt"
	"image"
	"sort"

	"cv2x/internal/logger"
	"cv2x/internal/opencv/safe"
	"cv2x/internal/region"

	"gocv.io/x/gocv"
)

type Config struct {
	Segment         SegmentParams
	ErodeKernel     int
	ErodeIterations int
	Size            region.SizeRange
	RemoveBorder    bool
}

func DefaultConfig() Config {
	return Config{
		Segment:         SegmentParams{Segments: 200, Compactness: 100, Sigma: 1},
		ErodeKernel:     3,
		ErodeIterations: 3,
		Size:            region.SizeRange{Min: 64 * 64, Max: 1000 * 1000},
		RemoveBorder:    true,
	}
}

type Generator struct {
	segmenter Segmenter
	config    Config
	logger    logger.Logger
}

func NewGenerator(segmenter Segmenter, config Config, log logger.Logger) *Generator {
	return &Generator{segmenter: segmenter, config: config, logger: log}
}

// Generate returns background region boundaries for img, a BGR or grayscale
// image, given the foreground regions already found in it.
func (g *Generator) Generate(ctx context.Context, img *safe.Mat, foreground []region.Boundary) ([]region.Boundary, error) {
	if err := safe.ValidateMatForOperation(img, "background.Generate"); err != nil {
		return nil, err
	}
	dims := region.DimsOf(img)

	fg, err := region.Union(foreground, dims)
	if err != nil {
		return nil, fmt.Errorf("foreground union failed: %w", err)
	}
	defer fg.Close()

	masked, err := maskOut(img, fg)
	if err != nil {
		return nil, err
	}
	defer masked.Close()

	labels, err := g.segmenter.Segment(ctx, masked, g.config.Segment)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}
	if labels.Rows != dims.Height || labels.Cols != dims.Width {
		return nil, fmt.Errorf("segmenter returned %dx%d labels for %s image", labels.Cols, labels.Rows, dims)
	}

	fgPix, err := fg.ToBytes()
	if err != nil {
		return nil, err
	}
	for i, v := range fgPix {
		if v != 0 {
			labels.Data[i] = 0
		}
	}

	candidates, err := g.erodedSegments(ctx, labels, dims)
	if err != nil {
		return nil, err
	}

	// Redraw and re-trace so touching pieces merge before size filtering.
	all, err := region.Union(candidates, dims)
	if err != nil {
		return nil, err
	}
	defer all.Close()

	traced, err := region.Regions(all)
	if err != nil {
		return nil, err
	}

	kept := region.FilterBySize(traced, dims, g.config.Size)
	var border []region.Boundary
	if g.config.RemoveBorder {
		border, kept = region.ClassifyBorder(kept, dims)
	}

	g.logger.Debug("Background", "background regions generated", map[string]interface{}{
		"segments":   len(candidates),
		"traced":     len(traced),
		"on_border":  len(border),
		"kept":       len(kept),
		"image_size": dims.String(),
	})

	return kept, nil
}

func (g *Generator) erodedSegments(ctx context.Context, labels *Labels, dims region.Dims) ([]region.Boundary, error) {
	seen := make(map[int32]bool)
	for _, l := range labels.Data {
		if l != 0 {
			seen[l] = true
		}
	}
	ids := make([]int32, 0, len(seen))
	for l := range seen {
		ids = append(ids, l)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(g.config.ErodeKernel, g.config.ErodeKernel))
	defer kernel.Close()

	pix := make([]byte, len(labels.Data))
	var out []region.Boundary
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for i, l := range labels.Data {
			if l == id {
				pix[i] = region.Marker
			} else {
				pix[i] = 0
			}
		}

		segment, err := safe.NewMatFromBytes(dims.Height, dims.Width, pix)
		if err != nil {
			return nil, err
		}

		m := segment.GetMat()
		for i := 0; i < g.config.ErodeIterations; i++ {
			gocv.Erode(m, &m, kernel)
		}

		found, err := region.Regions(segment)
		segment.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// maskOut blanks the foreground pixels of img.
func maskOut(img, fg *safe.Mat) (*safe.Mat, error) {
	inverse, err := safe.NewMat(fg.Rows(), fg.Cols(), gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, err
	}
	defer inverse.Close()

	inv := inverse.GetMat()
	gocv.BitwiseNot(fg.GetMat(), &inv)

	dst, err := safe.NewMat(img.Rows(), img.Cols(), img.Type())
	if err != nil {
		return nil, err
	}
	dstMat := dst.GetMat()
	gocv.BitwiseAndWithMask(img.GetMat(), img.GetMat(), &dstMat, inv)
	return dst, nil
}
