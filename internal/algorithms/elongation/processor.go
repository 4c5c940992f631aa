package elongation

import (
	"context"
	"fmt"

	"cv2x/internal/opencv/safe"
	"cv2x/internal/region"
)

// Processor extends every region of a mask along its long axis. Regions that
// cannot be elongated are kept as they are.
type Processor struct {
	name     string
	elongate func(region.Boundary, region.Dims, region.Extension) (region.ElongateResult, error)
}

func NewProcessor() *Processor {
	return &Processor{
		name:     "elongate",
		elongate: region.Elongate,
	}
}

func (p *Processor) GetName() string {
	return p.name
}

func (p *Processor) GetDefaultParameters() map[string]interface{} {
	return map[string]interface{}{
		"length":   0.1,
		"fraction": true,
	}
}

func (p *Processor) ValidateParameters(params map[string]interface{}) error {
	if length, ok := params["length"].(float64); ok {
		if length > 10000 {
			return fmt.Errorf("length must not exceed 10000, got: %f", length)
		}
	}

	if value, ok := params["fraction"]; ok {
		if _, isBool := value.(bool); !isBool {
			return fmt.Errorf("fraction must be a bool")
		}
	}

	return nil
}

func (p *Processor) Process(input *safe.Mat, params map[string]interface{}) (*safe.Mat, error) {
	return p.ProcessWithContext(context.Background(), input, params)
}

func (p *Processor) ProcessWithContext(ctx context.Context, input *safe.Mat, params map[string]interface{}) (*safe.Mat, error) {
	result, _, err := p.ProcessWithReport(ctx, input, params)
	return result, err
}

func (p *Processor) ProcessWithReport(ctx context.Context, input *safe.Mat, params map[string]interface{}) (*safe.Mat, map[string]interface{}, error) {
	if err := safe.ValidateMask(input, "elongation"); err != nil {
		return nil, nil, err
	}

	if err := p.ValidateParameters(params); err != nil {
		return nil, nil, fmt.Errorf("parameter validation failed: %w", err)
	}

	regions, err := region.Regions(input)
	if err != nil {
		return nil, nil, fmt.Errorf("region tracing failed: %w", err)
	}

	ext := p.extension(params)
	dims := region.DimsOf(input)
	counts := make(map[region.Status]int)

	out := make([]region.Boundary, 0, len(regions))
	for _, b := range regions {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		res, err := p.elongate(b, dims, ext)
		if err != nil {
			return nil, nil, fmt.Errorf("elongation failed: %w", err)
		}
		counts[res.Status]++

		if res.Status == region.StatusTraceFailure {
			out = append(out, b)
			continue
		}
		out = append(out, res.Boundary)
	}

	result, err := region.Union(out, dims)
	if err != nil {
		return nil, nil, err
	}

	report := map[string]interface{}{
		"extension":     ext.String(),
		"elongated":     counts[region.StatusOK],
		"degenerate":    counts[region.StatusDegenerate],
		"trace_failure": counts[region.StatusTraceFailure],
	}
	return result, report, nil
}

func (p *Processor) extension(params map[string]interface{}) region.Extension {
	length := p.getFloatParam(params, "length")
	if p.getBoolParam(params, "fraction") {
		return region.Fraction(length)
	}
	return region.Pixels(int(length))
}

func (p *Processor) getBoolParam(params map[string]interface{}, key string) bool {
	if value, ok := params[key].(bool); ok {
		return value
	}
	return false
}

func (p *Processor) getFloatParam(params map[string]interface{}, key string) float64 {
	switch value := params[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	}
	return 0.0
}
