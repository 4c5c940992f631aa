package main

import (
	"flag"
	"fmt"
	"os"

	"cv2x/internal/app"
	"cv2x/internal/config"
	"cv2x/internal/logger"
)

const usage = `Usage: maskrepair <command> [flags] [args]

Commands:
  repair      -out DIR MASK...           repair masks with the configured steps
  background  -image IMG -mask MASK -out FILE
                                         propose background regions
  satrange    IMAGE...                   print the dominant saturation band
  version                                print version information
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "maskrepair: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")

	var outDir, imagePath, maskPath, outPath *string
	var steps stepList
	switch command {
	case "repair":
		outDir = fs.String("out", ".", "output directory")
		fs.Var(&steps, "step", "repair step, repeatable; overrides pipeline.steps")
	case "background":
		imagePath = fs.String("image", "", "tissue image")
		maskPath = fs.String("mask", "", "foreground mask")
		outPath = fs.String("out", "background.png", "output mask")
	case "satrange":
	case "version":
		fmt.Println(app.VersionString())
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if len(steps) > 0 {
		cfg.Pipeline.Steps = steps
	}

	log := logger.NewConsoleLogger(logger.ParseLevel(cfg.LogLevel))

	application, err := app.NewApplication(cfg, log, os.Stdout)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	switch command {
	case "repair":
		return application.Repair(fs.Args(), *outDir)
	case "background":
		if *imagePath == "" || *maskPath == "" {
			return fmt.Errorf("background requires -image and -mask")
		}
		return application.Background(*imagePath, *maskPath, *outPath)
	default:
		return application.SaturationRange(fs.Args())
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	return cfg, nil
}

type stepList []string

func (s *stepList) String() string {
	return fmt.Sprint([]string(*s))
}

func (s *stepList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
