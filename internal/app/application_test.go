package app

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"cv2x/internal/config"
	"cv2x/internal/logger"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, cfg *config.Config) (*Application, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	a, err := NewApplication(cfg, logger.Nop(), out)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	return a, out
}

func square(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 5; y < 10; y++ {
		for x := 5; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	require.NoError(t, imaging.Save(img, path))
}

func TestNewApplicationRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Steps = []string{"blur"}

	_, err := NewApplication(cfg, logger.Nop(), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRepair(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.png")
	square(t, in)

	cfg := config.Default()
	cfg.Pipeline.Steps = []string{config.StepFillHoles}
	a, out := newApp(t, cfg)

	require.NoError(t, a.Repair([]string{in}, filepath.Join(dir, "out")))
	assert.Contains(t, out.String(), "a_repaired.png")
	assert.FileExists(t, filepath.Join(dir, "out", "a_repaired.png"))
}

func TestRepairReportsFailures(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.png")
	square(t, in)

	a, out := newApp(t, config.Default())

	err := a.Repair([]string{in, filepath.Join(dir, "missing.png")}, dir)
	assert.ErrorContains(t, err, "1 of 2")
	assert.Contains(t, out.String(), "missing.png")

	assert.Error(t, a.Repair(nil, dir))
}

func TestSaturationRangeOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gray.png")
	require.NoError(t, imaging.Save(imaging.New(32, 32, color.NRGBA{R: 80, G: 80, B: 80, A: 255}), path))

	a, out := newApp(t, config.Default())
	require.NoError(t, a.SaturationRange([]string{path}))
	assert.Equal(t, path+"\tnone\n", out.String())
}

func TestShutdownIsIdempotent(t *testing.T) {
	a, _ := newApp(t, config.Default())
	a.Shutdown()
	a.Shutdown()

	assert.Error(t, a.SaturationRange([]string{"x.png"}))
}

func TestVersionString(t *testing.T) {
	assert.True(t, strings.HasPrefix(VersionString(), AppName+" "+AppVersion))
}
