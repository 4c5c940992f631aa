package borderremove

import (
	"context"
	"fmt"

	"cv2x/internal/opencv/safe"
	"cv2x/internal/region"
)

// Processor drops every region that touches the image edge.
type Processor struct {
	name string
}

func NewProcessor() *Processor {
	return &Processor{
		name: "remove_border",
	}
}

func (p *Processor) GetName() string {
	return p.name
}

func (p *Processor) GetDefaultParameters() map[string]interface{} {
	return map[string]interface{}{}
}

func (p *Processor) ValidateParameters(params map[string]interface{}) error {
	return nil
}

func (p *Processor) Process(input *safe.Mat, params map[string]interface{}) (*safe.Mat, error) {
	return p.ProcessWithContext(context.Background(), input, params)
}

func (p *Processor) ProcessWithContext(ctx context.Context, input *safe.Mat, params map[string]interface{}) (*safe.Mat, error) {
	if err := safe.ValidateMask(input, "border removal"); err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	regions, err := region.Regions(input)
	if err != nil {
		return nil, fmt.Errorf("region tracing failed: %w", err)
	}

	dims := region.DimsOf(input)
	_, interior := region.ClassifyBorder(regions, dims)
	return region.Union(interior, dims)
}
