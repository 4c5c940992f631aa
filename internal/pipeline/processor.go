package pipeline

import (
	"context"
	"fmt"
	"time"

	"cv2x/internal/algorithms"
	"cv2x/internal/logger"
	"cv2x/internal/metrics"
	"cv2x/internal/opencv/bridge"
	"cv2x/internal/opencv/memory"
	"cv2x/internal/opencv/safe"
)

type maskProcessor struct {
	memoryManager    *memory.Manager
	logger           logger.Logger
	algorithmManager *algorithms.Manager
}

// StepReport records what one repair step changed.
type StepReport struct {
	Step     string
	Duration time.Duration
	Diff     *metrics.MaskDiff
	Details  map[string]interface{}
}

// RunSteps applies steps in order to a copy of inputData's mask. The input is
// left untouched.
func (p *maskProcessor) RunSteps(ctx context.Context, inputData *ImageData, steps []string) (*ImageData, []StepReport, error) {
	if err := safe.ValidateMask(inputData.Mat, "RunSteps"); err != nil {
		return nil, nil, err
	}

	current, err := inputData.Mat.Clone()
	if err != nil {
		return nil, nil, err
	}

	reports := make([]StepReport, 0, len(steps))
	for _, step := range steps {
		select {
		case <-ctx.Done():
			current.Close()
			return nil, nil, ctx.Err()
		default:
		}

		start := time.Now()
		next, details, err := p.algorithmManager.Run(ctx, step, current)
		if err != nil {
			current.Close()
			return nil, nil, fmt.Errorf("step %s failed: %w", step, err)
		}

		diff, err := metrics.CompareMasks(current, next)
		current.Close()
		current = next
		if err != nil {
			current.Close()
			return nil, nil, fmt.Errorf("step %s: %w", step, err)
		}

		report := StepReport{Step: step, Duration: time.Since(start), Diff: diff, Details: details}
		reports = append(reports, report)

		fields := diff.Fields()
		fields["step"] = step
		fields["duration"] = report.Duration.String()
		for k, v := range details {
			fields[k] = v
		}
		p.logger.Debug("MaskProcessor", "step completed", fields)
	}

	tracked, err := p.memoryManager.Adopt(current, "repaired_mask")
	current.Close()
	if err != nil {
		return nil, nil, err
	}

	img, err := bridge.MatToImage(tracked)
	if err != nil {
		tracked.Close()
		return nil, nil, fmt.Errorf("Mat to image conversion failed: %w", err)
	}

	return &ImageData{
		Image:    img,
		Mat:      tracked,
		Width:    tracked.Cols(),
		Height:   tracked.Rows(),
		Channels: tracked.Channels(),
		Format:   inputData.Format,
		Path:     inputData.Path,
	}, reports, nil
}
