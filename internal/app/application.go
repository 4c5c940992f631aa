// Package app wires configuration, logging and the repair pipeline into the
// maskrepair command.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"cv2x/internal/config"
	"cv2x/internal/logger"
	"cv2x/internal/opencv/memory"
	"cv2x/internal/pipeline"
)

const (
	AppName    = "maskrepair"
	AppVersion = "1.0.0"
)

type shutdownHandler interface {
	Shutdown()
}

type Application struct {
	config        *config.Config
	coordinator   *pipeline.Coordinator
	memoryManager *memory.Manager
	logger        logger.Logger
	out           io.Writer
	shutdownables []shutdownHandler
	ctx           context.Context
	cancel        context.CancelFunc
	shutdown      chan struct{}
}

// NewApplication validates cfg and builds the pipeline. Command results are
// written to out; logs go to log.
func NewApplication(cfg *config.Config, log logger.Logger, out io.Writer) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	memoryManager := memory.NewManagerWithLimit(log, cfg.MemoryLimitBytes(), 30*time.Second)
	coordinator := pipeline.NewCoordinator(cfg, memoryManager, log)

	application := &Application{
		config:        cfg,
		coordinator:   coordinator,
		memoryManager: memoryManager,
		logger:        log,
		out:           out,
		ctx:           ctx,
		cancel:        cancel,
		shutdown:      make(chan struct{}),
		shutdownables: []shutdownHandler{
			coordinator,
		},
	}

	application.setupSignalHandling()

	log.Info("Application", "initialization complete", map[string]interface{}{
		"version":         AppVersion,
		"memory_limit_mb": cfg.Pipeline.MemoryLimitMB,
	})

	return application, nil
}

func (a *Application) Coordinator() *pipeline.Coordinator {
	return a.coordinator
}

// Repair repairs every input into outDir. It reports each failure and returns
// an error when any file failed.
func (a *Application) Repair(inputs []string, outDir string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input masks given")
	}

	results := a.coordinator.ProcessBatch(a.ctx, inputs, outDir)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(a.out, "%s: %v\n", r.Input, r.Err)
			continue
		}
		fmt.Fprintf(a.out, "%s -> %s (+%d -%d)\n", r.Input, r.Output, r.Diff.Added, r.Diff.Removed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d masks failed", failed, len(inputs))
	}
	return nil
}

func (a *Application) Background(imagePath, maskPath, outPath string) error {
	n, err := a.coordinator.GenerateBackground(a.ctx, imagePath, maskPath, outPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %d background regions -> %s\n", imagePath, n, outPath)
	return nil
}

// SaturationRange prints the dominant saturation band of each image, or
// "none" when its histogram has a single peak.
func (a *Application) SaturationRange(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no images given")
	}

	for _, path := range paths {
		if err := a.ctx.Err(); err != nil {
			return err
		}

		r, ok, err := a.coordinator.SaturationRange(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if !ok {
			fmt.Fprintf(a.out, "%s\tnone\n", path)
			continue
		}
		fmt.Fprintf(a.out, "%s\t%d\t%d\n", path, r.Lower, r.Upper)
	}
	return nil
}

func (a *Application) setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			a.logger.Info("Application", "shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			a.cancel()
		case <-a.ctx.Done():
		}
	}()
}

// Shutdown cancels running work and stops every component. Safe to call more
// than once.
func (a *Application) Shutdown() {
	select {
	case <-a.shutdown:
		return
	default:
		close(a.shutdown)
	}

	a.logger.Info("Application", "shutdown sequence initiated", map[string]interface{}{
		"components": len(a.shutdownables),
	})

	a.cancel()

	for i := len(a.shutdownables) - 1; i >= 0; i-- {
		component := a.shutdownables[i]
		done := make(chan struct{})

		go func() {
			defer close(done)
			component.Shutdown()
		}()

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			a.logger.Warning("Application", "component shutdown timeout", map[string]interface{}{
				"component_index": i,
			})
		}
	}

	a.logger.Info("Application", "shutdown sequence completed", nil)
}

// VersionString describes the build for the version command.
func VersionString() string {
	return fmt.Sprintf("%s %s (%s, %s/%s)", AppName, AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
