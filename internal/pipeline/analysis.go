package pipeline

import (
	"context"
	"fmt"

	"cv2x/internal/histogram"
	"cv2x/internal/opencv/bridge"
	"cv2x/internal/opencv/conversion"
	"cv2x/internal/region"
)

// GenerateBackground proposes background regions of the image at imagePath
// avoiding the foreground mask at maskPath, and writes their union to
// outPath. It returns the number of regions kept.
func (c *Coordinator) GenerateBackground(ctx context.Context, imagePath, maskPath, outPath string) (int, error) {
	img, err := c.loader.LoadImage(imagePath)
	if err != nil {
		return 0, err
	}
	defer img.Close()

	fgMask, err := c.loader.LoadMask(maskPath)
	if err != nil {
		return 0, err
	}
	defer fgMask.Close()

	if img.Width != fgMask.Width || img.Height != fgMask.Height {
		return 0, fmt.Errorf("mask %dx%d does not match image %dx%d",
			fgMask.Width, fgMask.Height, img.Width, img.Height)
	}

	foreground, err := region.Regions(fgMask.Mat)
	if err != nil {
		return 0, err
	}

	regions, err := c.background.Generate(ctx, img.Mat, foreground)
	if err != nil {
		return 0, err
	}

	union, err := region.Union(regions, region.DimsOf(img.Mat))
	if err != nil {
		return 0, err
	}
	defer union.Close()

	out, err := bridge.MatToImage(union)
	if err != nil {
		return 0, err
	}

	if err := c.saver.SaveToPath(outPath, &ImageData{Image: out, Width: img.Width, Height: img.Height, Channels: 1}); err != nil {
		return 0, err
	}

	c.logger.Info("PipelineCoordinator", "background generated", map[string]interface{}{
		"image":      imagePath,
		"foreground": len(foreground),
		"regions":    len(regions),
		"output":     outPath,
	})
	return len(regions), nil
}

// SaturationRange finds the dominant saturation band of the image at
// imagePath. ok is false when the saturation histogram has a single peak.
func (c *Coordinator) SaturationRange(imagePath string) (histogram.Range, bool, error) {
	img, err := c.loader.LoadImage(imagePath)
	if err != nil {
		return histogram.Range{}, false, err
	}
	defer img.Close()

	saturation, err := conversion.SaturationChannel(img.Mat)
	if err != nil {
		return histogram.Range{}, false, err
	}
	defer saturation.Close()

	cfg := histogram.Config{
		Bins:            c.config.Histogram.Bins,
		MinPeakFraction: c.config.Histogram.MinPeakFraction,
		InitialWidth:    c.config.Histogram.InitialWidth,
	}
	r, ok, err := histogram.Mode(saturation, cfg)
	if err != nil {
		return histogram.Range{}, false, err
	}

	c.logger.Info("PipelineCoordinator", "saturation range computed", map[string]interface{}{
		"image": imagePath,
		"found": ok,
		"lower": r.Lower,
		"upper": r.Upper,
	})
	return r, ok, nil
}
