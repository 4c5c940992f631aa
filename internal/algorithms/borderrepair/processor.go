package borderrepair

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"cv2x/internal/opencv/safe"
	"cv2x/internal/region"
)

// Processor closes regions clipped by the image edge. Each border-touching
// region is repaired on its own, in parallel, and merged back with the
// interior regions.
type Processor struct {
	name string
}

func NewProcessor() *Processor {
	return &Processor{
		name: "border_repair",
	}
}

func (p *Processor) GetName() string {
	return p.name
}

func (p *Processor) GetDefaultParameters() map[string]interface{} {
	return map[string]interface{}{
		"workers":        runtime.NumCPU(),
		"drop_ambiguous": false,
	}
}

func (p *Processor) ValidateParameters(params map[string]interface{}) error {
	if workers, ok := params["workers"].(int); ok {
		if workers < 1 || workers > 256 {
			return fmt.Errorf("workers must be between 1 and 256, got: %d", workers)
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

// ProcessWithReport also returns per-status region counts for logging.
func (p *Processor) ProcessWithReport(ctx context.Context, input *safe.Mat, params map[string]interface{}) (*safe.Mat, map[string]interface{}, error) {
	if err := safe.ValidateMask(input, "border repair"); err != nil {
		return nil, nil, err
	}

	if err := p.ValidateParameters(params); err != nil {
		return nil, nil, fmt.Errorf("parameter validation failed: %w", err)
	}

	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	// A raster under 2x2 has no perimeter to unwrap; every region is left as is.
	if input.Rows() < 2 || input.Cols() < 2 {
		kept, err := input.Clone()
		if err != nil {
			return nil, nil, err
		}
		return kept, map[string]interface{}{
			"interior":  0,
			"border":    0,
			"repaired":  0,
			"ambiguous": 0,
			"dropped":   false,
			"skipped":   true,
		}, nil
	}

	regions, err := region.Regions(input)
	if err != nil {
		return nil, nil, fmt.Errorf("region tracing failed: %w", err)
	}

	dims := region.DimsOf(input)
	border, interior := region.ClassifyBorder(regions, dims)

	results, err := p.repairAll(ctx, border, dims, p.getIntParam(params, "workers"))
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		for _, r := range results {
			if r.Raster != nil {
				r.Raster.Close()
			}
		}
	}()

	dropAmbiguous := p.getBoolParam(params, "drop_ambiguous")
	keep := append([]region.Boundary(nil), interior...)
	rasters := make([]*safe.Mat, 0, len(results))
	ambiguous := 0
	for i, r := range results {
		switch r.Status {
		case region.StatusOK:
			rasters = append(rasters, r.Raster)
		case region.StatusAmbiguous:
			ambiguous++
			if !dropAmbiguous {
				keep = append(keep, border[i])
			}
		}
	}

	base, err := region.Union(keep, dims)
	if err != nil {
		return nil, nil, err
	}
	defer base.Close()

	merged, err := region.UnionRasters(append(rasters, base), dims)
	if err != nil {
		return nil, nil, err
	}

	report := map[string]interface{}{
		"interior":  len(interior),
		"border":    len(border),
		"repaired":  len(rasters),
		"ambiguous": ambiguous,
		"dropped":   dropAmbiguous && ambiguous > 0,
		"skipped":   false,
	}
	return merged, report, nil
}

type job struct {
	index    int
	boundary region.Boundary
}

// repairAll completes every border region with a bounded worker pool.
// Results line up with the input order.
func (p *Processor) repairAll(ctx context.Context, border []region.Boundary, dims region.Dims, workers int) ([]region.FillResult, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(border) {
		workers = len(border)
	}

	results := make([]region.FillResult, len(border))
	errs := make([]error, len(border))

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index], errs[j.index] = region.CompleteBorderRegion(j.boundary, dims)
			}
		}()
	}

	var ctxErr error
feed:
	for i, b := range border {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		case jobs <- job{index: i, boundary: b}:
		}
	}
	close(jobs)
	wg.Wait()

	err := ctxErr
	if err == nil {
		for i, e := range errs {
			if e != nil {
				err = fmt.Errorf("border region %d: %w", i, e)
				break
			}
		}
	}
	if err != nil {
		for _, r := range results {
			if r.Raster != nil {
				r.Raster.Close()
			}
		}
		return nil, err
	}
	return results, nil
}

func (p *Processor) getBoolParam(params map[string]interface{}, key string) bool {
	if value, ok := params[key].(bool); ok {
		return value
	}
	return false
}

func (p *Processor) getIntParam(params map[string]interface{}, key string) int {
	if value, ok := params[key].(int); ok {
		return value
	}
	return 0
}
