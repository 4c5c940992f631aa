package sizefilter

import (
	"context"
	"fmt"

	"cv2x/internal/opencv/safe"
	"cv2x/internal/region"
)

type Processor struct {
	name string
}

func NewProcessor() *Processor {
	return &Processor{
		name: "size_filter",
	}
}

func (p *Processor) GetName() string {
	return p.name
}

func (p *Processor) GetDefaultParameters() map[string]interface{} {
	return map[string]interface{}{
		"min_size": region.DefaultMinSize,
		"max_size": 0, // half the image
	}
}

func (p *Processor) ValidateParameters(params map[string]interface{}) error {
	minSize, hasMin := params["min_size"].(int)
	if hasMin && minSize < 0 {
		return fmt.Errorf("min_size must not be negative, got: %d", minSize)
	}

	if maxSize, ok := params["max_size"].(int); ok {
		if maxSize < 0 {
			return fmt.Errorf("max_size must not be negative, got: %d", maxSize)
		}
		if hasMin && maxSize != 0 && maxSize < minSize {
			return fmt.Errorf("max_size %d is below min_size %d", maxSize, minSize)
		}
	}

	return nil
}

func (p *Processor) Process(input *safe.Mat, params map[string]interface{}) (*safe.Mat, error) {
	return p.ProcessWithContext(context.Background(), input, params)
}

func (p *Processor) ProcessWithContext(ctx context.Context, input *safe.Mat, params map[string]interface{}) (*safe.Mat, error) {
	if err := safe.ValidateMask(input, "size filtering"); err != nil {
		return nil, err
	}

	if err := p.ValidateParameters(params); err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	regions, err := region.Regions(input)
	if err != nil {
		return nil, fmt.Errorf("region tracing failed: %w", err)
	}

	dims := region.DimsOf(input)
	sizes := region.SizeRange{
		Min: p.getIntParam(params, "min_size"),
		Max: p.getIntParam(params, "max_size"),
	}

	return region.Union(region.FilterBySize(regions, dims, sizes), dims)
}

func (p *Processor) getIntParam(params map[string]interface{}, key string) int {
	if value, ok := params[key].(int); ok {
		return value
	}
	return 0
}
