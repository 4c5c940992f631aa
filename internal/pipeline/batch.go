package pipeline

import (
	"context"
	"sync"
)

// ProcessBatch repairs every input into outDir with the configured number of
// workers. Results keep input order; a failed file does not stop the others.
func (c *Coordinator) ProcessBatch(ctx context.Context, inputs []string, outDir string) []FileResult {
	results := make([]FileResult, len(inputs))

	workers := c.config.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = c.RepairFile(ctx, inputs[i], c.OutputPath(inputs[i], outDir))
			}
		}()
	}

	next := 0
feed:
	for ; next < len(inputs); next++ {
		select {
		case <-ctx.Done():
			break feed
		case indices <- next:
		}
	}
	close(indices)
	wg.Wait()

	for i := next; i < len(inputs); i++ {
		results[i] = FileResult{Input: inputs[i], Err: ctx.Err()}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	c.logger.Info("PipelineCoordinator", "batch completed", map[string]interface{}{
		"files":  len(inputs),
		"failed": failed,
	})

	return results
}
