package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"cv2x/internal/algorithms"
	"cv2x/internal/background"
	"cv2x/internal/config"
	"cv2x/internal/logger"
	"cv2x/internal/metrics"
	"cv2x/internal/opencv/memory"
	"cv2x/internal/opencv/safe"
	"cv2x/internal/region"
)

type ImageData struct {
	Image    image.Image
	Mat      *safe.Mat
	Width    int
	Height   int
	Channels int
	Format   string
	Path     string
}

// Close releases the Mat held by d.
func (d *ImageData) Close() {
	if d != nil && d.Mat != nil {
		d.Mat.Close()
	}
}

// FileResult is the outcome of repairing one mask file.
type FileResult struct {
	Input    string
	Output   string
	Steps    []StepReport
	Diff     *metrics.MaskDiff
	Duration time.Duration
	Err      error
}

type Coordinator struct {
	memoryManager    *memory.Manager
	logger           logger.Logger
	algorithmManager *algorithms.Manager
	loader           *imageLoader
	processor        *maskProcessor
	saver            *imageSaver
	background       *background.Generator
	config           *config.Config
}

func NewCoordinator(cfg *config.Config, memMgr *memory.Manager, log logger.Logger) *Coordinator {
	algMgr := algorithms.NewManagerFromConfig(cfg)

	coord := &Coordinator{
		memoryManager:    memMgr,
		logger:           log,
		algorithmManager: algMgr,
		config:           cfg,
	}

	coord.loader = &imageLoader{
		memoryManager: memMgr,
		logger:        log,
	}

	coord.processor = &maskProcessor{
		memoryManager:    memMgr,
		logger:           log,
		algorithmManager: algMgr,
	}

	coord.saver = &imageSaver{
		logger: log,
	}

	coord.background = background.NewGenerator(background.GridSegmenter{}, backgroundConfig(cfg), log)

	log.Info("PipelineCoordinator", "initialized", map[string]interface{}{
		"steps":   strings.Join(cfg.Pipeline.Steps, ","),
		"workers": cfg.Pipeline.Workers,
	})
	return coord
}

// WithSegmenter swaps the superpixel routine used for background regions.
func (c *Coordinator) WithSegmenter(s background.Segmenter) *Coordinator {
	c.background = background.NewGenerator(s, backgroundConfig(c.config), c.logger)
	return c
}

func backgroundConfig(cfg *config.Config) background.Config {
	return background.Config{
		Segment: background.SegmentParams{
			Segments:    cfg.Background.Segments,
			Compactness: cfg.Background.Compactness,
			Sigma:       cfg.Background.Sigma,
		},
		ErodeKernel:     cfg.Background.ErodeKernel,
		ErodeIterations: cfg.Background.ErodeIterations,
		Size:            region.SizeRange{Min: cfg.Background.MinSize, Max: cfg.Background.MaxSize},
		RemoveBorder:    cfg.Background.RemoveBorder,
	}
}

func (c *Coordinator) Algorithms() *algorithms.Manager {
	return c.algorithmManager
}

// RepairMask runs the configured steps over a loaded mask.
func (c *Coordinator) RepairMask(ctx context.Context, mask *ImageData) (*ImageData, []StepReport, error) {
	return c.processor.RunSteps(ctx, mask, c.config.Pipeline.Steps)
}

// RepairFile loads the mask at input, repairs it and writes it to output.
func (c *Coordinator) RepairFile(ctx context.Context, input, output string) FileResult {
	start := time.Now()
	result := FileResult{Input: input, Output: output}

	mask, err := c.loader.LoadMask(input)
	if err != nil {
		result.Err = err
		return c.finish(result, start)
	}
	defer mask.Close()

	repaired, steps, err := c.RepairMask(ctx, mask)
	if err != nil {
		result.Err = err
		return c.finish(result, start)
	}
	defer repaired.Close()
	result.Steps = steps

	if result.Diff, err = metrics.CompareMasks(mask.Mat, repaired.Mat); err != nil {
		result.Err = err
		return c.finish(result, start)
	}

	result.Err = c.saver.SaveToPath(output, repaired)
	return c.finish(result, start)
}

func (c *Coordinator) finish(result FileResult, start time.Time) FileResult {
	result.Duration = time.Since(start)

	if result.Err != nil {
		c.logger.Error("PipelineCoordinator", result.Err, map[string]interface{}{
			"input": result.Input,
		})
		return result
	}

	fields := result.Diff.Fields()
	fields["input"] = result.Input
	fields["output"] = result.Output
	fields["duration"] = result.Duration.String()
	c.logger.Info("PipelineCoordinator", "mask repaired", fields)
	return result
}

// OutputPath names the repaired file for input inside outDir.
func (c *Coordinator) OutputPath(input, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	format := c.config.Pipeline.OutputFormat
	if format == "jpeg" {
		format = "jpg"
	}
	return filepath.Join(outDir, fmt.Sprintf("%s%s.%s", base, c.config.Pipeline.OutputSuffix, format))
}

func (c *Coordinator) Shutdown() {
	c.logger.Info("PipelineCoordinator", "shutdown started", nil)
	c.memoryManager.Shutdown()
	c.logger.Info("PipelineCoordinator", "shutdown completed", nil)
}
