package histogram

import (
	"math"
	"testing"

	"cv2x/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bimodal() []float64 {
	counts := make([]float64, 256)
	for i := range counts {
		x := float64(i)
		counts[i] = math.Round(1000*math.Exp(-(x-60)*(x-60)/(2*8*8)) +
			600*math.Exp(-(x-180)*(x-180)/(2*15*15)))
	}
	return counts
}

func TestModeFromCountsFindsAPeakBand(t *testing.T) {
	counts := bimodal()
	var pixels float64
	for _, c := range counts {
		pixels += c
	}

	r, ok, err := ModeFromCounts(counts, int(pixels), DefaultConfig())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Less(t, r.Lower, r.Upper)
	containsPeak := (r.Lower <= 60 && 60 <= r.Upper) || (r.Lower <= 180 && 180 <= r.Upper)
	assert.True(t, containsPeak, "range %+v", r)
}

func TestModeFromCountsNeedsTwoPeaks(t *testing.T) {
	increasing := make([]float64, 256)
	for i := range increasing {
		increasing[i] = float64(i)
	}

	_, ok, err := ModeFromCounts(increasing, 1000, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ModeFromCounts([]float64{1}, 1, DefaultConfig())
	assert.Error(t, err)
}

func TestLocalMaxima(t *testing.T) {
	counts := []float64{0, 5, 1, 1, 9, 2, 3, 3, 1}
	assert.Equal(t, []int{7, 1, 4}, localMaxima(counts))
}

func TestRebin(t *testing.T) {
	raw := make([]float64, 256)
	raw[0] = 3
	raw[127] = 2
	raw[128] = 4
	raw[255] = 1

	two, err := Rebin(raw, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5}, two)

	same, err := Rebin(raw, 256)
	require.NoError(t, err)
	assert.Equal(t, raw, same)

	_, err = Rebin(raw, 1)
	assert.Error(t, err)
}

func TestModeOnMat(t *testing.T) {
	counts := bimodal()
	var pix []byte
	for v, c := range counts {
		for i := 0; i < int(c); i++ {
			pix = append(pix, byte(v))
		}
	}
	// Pad to a rectangle with the most common value.
	cols := 100
	for len(pix)%cols != 0 {
		pix = append(pix, 60)
	}

	m, err := safe.NewMatFromBytes(len(pix)/cols, cols, pix)
	require.NoError(t, err)
	defer m.Close()

	r, ok, err := Mode(m, DefaultConfig())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Less(t, r.Lower, r.Upper)
}
