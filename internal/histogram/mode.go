// Package histogram locates the dominant intensity band of an 8-bit channel
// by fitting a two-component Gaussian model to its histogram.
package histogram

import (
	"fmt"
	"math"
	"sort"

	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

type Config struct {
	// Bins over the 0..255 intensity range.
	Bins int
	// MinPeakFraction is the share of all pixels the wider component must
	// exceed in height to be chosen.
	MinPeakFraction float64
	// InitialWidth seeds both component widths.
	InitialWidth float64
}

func DefaultConfig() Config {
	return Config{Bins: 256, MinPeakFraction: 0.01, InitialWidth: 10}
}

// Range is an inclusive intensity band.
type Range struct {
	Lower int
	Upper int
}

// Component is one fitted Gaussian.
type Component struct {
	Height float64
	Center float64
	Width  float64
}

func (c Component) at(x float64) float64 {
	return c.Height * math.Exp(-(x-c.Center)*(x-c.Center)/(2*c.Width*c.Width))
}

// Mode fits the histogram of a single-channel 8-bit Mat. ok is false when the
// histogram has fewer than two peaks.
func Mode(channel *safe.Mat, cfg Config) (r Range, ok bool, err error) {
	if err := safe.ValidateMatForOperation(channel, "histogram.Mode"); err != nil {
		return Range{}, false, err
	}
	if channel.Type() != gocv.MatTypeCV8UC1 {
		return Range{}, false, fmt.Errorf("histogram.Mode: channel must be CV_8UC1")
	}

	pix, err := channel.ToBytes()
	if err != nil {
		return Range{}, false, err
	}

	var raw [256]float64
	for _, v := range pix {
		raw[v]++
	}

	counts, err := Rebin(raw[:], cfg.Bins)
	if err != nil {
		return Range{}, false, err
	}
	return ModeFromCounts(counts, len(pix), cfg)
}

// Rebin folds 256 per-intensity counts into the requested number of equal bins.
func Rebin(raw []float64, bins int) ([]float64, error) {
	if len(raw) != 256 {
		return nil, fmt.Errorf("expected 256 intensity counts, got %d", len(raw))
	}
	if bins < 2 || bins > 256 {
		return nil, fmt.Errorf("bins must be between 2 and 256, got %d", bins)
	}

	values := make([]float64, 256)
	floats.Span(values, 0, 255)
	dividers := make([]float64, bins+1)
	floats.Span(dividers, 0, 256)

	return stat.Histogram(nil, dividers, values, raw), nil
}

// ModeFromCounts fits counts, whose bins evenly split 0..256, and returns the
// band of the chosen component. pixels is the total pixel count.
func ModeFromCounts(counts []float64, pixels int, cfg Config) (Range, bool, error) {
	if len(counts) < 2 {
		return Range{}, false, fmt.Errorf("need at least 2 bins, got %d", len(counts))
	}

	peaks := localMaxima(counts)
	if len(peaks) < 2 {
		return Range{}, false, nil
	}

	binWidth := 256 / float64(len(counts))
	// Lower of the two highest peaks first.
	second, first := peaks[len(peaks)-2], peaks[len(peaks)-1]
	guess := [2]Component{
		{Height: counts[second], Center: float64(second) * binWidth, Width: cfg.InitialWidth},
		{Height: counts[first], Center: float64(first) * binWidth, Width: cfg.InitialWidth},
	}

	fit, err := fitTwoGaussians(counts, binWidth, guess)
	if err != nil {
		return Range{}, false, err
	}

	minHeight := float64(int(float64(pixels) * cfg.MinPeakFraction))
	chosen := fit[1]
	if fit[0].Width >= fit[1].Width && fit[0].Height > minHeight {
		chosen = fit[0]
	}

	return Range{
		Lower: int(chosen.Center - chosen.Width/2),
		Upper: int(chosen.Center + chosen.Width/2),
	}, true, nil
}

// localMaxima returns bins higher than their right neighbour and at least as
// high as their left one, ordered by ascending count.
func localMaxima(counts []float64) []int {
	var peaks []int
	for i := 0; i < len(counts)-1; i++ {
		if counts[i+1] < counts[i] && (i == 0 || counts[i] >= counts[i-1]) {
			peaks = append(peaks, i)
		}
	}
	sort.SliceStable(peaks, func(a, b int) bool {
		return counts[peaks[a]] < counts[peaks[b]]
	})
	return peaks
}

// fitTwoGaussians minimises the squared error of a two-Gaussian sum over the
// bin left edges. Counts are normalised for the search and heights restored
// afterwards. Widths are returned as magnitudes.
func fitTwoGaussians(counts []float64, binWidth float64, guess [2]Component) ([2]Component, error) {
	scale := floats.Max(counts)
	if scale <= 0 {
		return guess, fmt.Errorf("histogram is empty")
	}

	y := make([]float64, len(counts))
	copy(y, counts)
	floats.Scale(1/scale, y)

	x := make([]float64, len(counts))
	for i := range x {
		x[i] = float64(i) * binWidth
	}

	unpack := func(p []float64) [2]Component {
		return [2]Component{
			{Height: p[0], Center: p[1], Width: p[2]},
			{Height: p[3], Center: p[4], Width: p[5]},
		}
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			comps := unpack(p)
			var sum float64
			for i, xi := range x {
				d := comps[0].at(xi) + comps[1].at(xi) - y[i]
				sum += d * d
			}
			return sum
		},
	}

	init := []float64{
		guess[0].Height / scale, guess[0].Center, guess[0].Width,
		guess[1].Height / scale, guess[1].Center, guess[1].Width,
	}

	result, err := optimize.Minimize(problem, init, &optimize.Settings{MajorIterations: 5000}, &optimize.NelderMead{})
	if result == nil {
		return guess, fmt.Errorf("two-gaussian fit failed: %w", err)
	}
	// Hitting the iteration limit still leaves a usable best point.

	fit := unpack(result.X)
	for i := range fit {
		fit[i].Height *= scale
		fit[i].Width = math.Abs(fit[i].Width)
	}
	return fit, nil
}
