package safe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type countingTracker struct {
	allocs, deallocs int
	bytes            int64
}

func (c *countingTracker) TrackAllocation(id uint64, size int64, tag string) {
	c.allocs++
	c.bytes += size
}

func (c *countingTracker) TrackDeallocation(id uint64, tag string) {
	c.deallocs++
}

func TestNewMatIsZeroInitialised(t *testing.T) {
	mat, err := NewMat(4, 6, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 4, mat.Rows())
	assert.Equal(t, 6, mat.Cols())
	assert.Zero(t, gocv.CountNonZero(mat.GetMat()))
}

func TestNewMatRejectsBadDimensions(t *testing.T) {
	_, err := NewMat(0, 5, gocv.MatTypeCV8UC1)
	assert.Error(t, err)

	_, err = NewMat(5, MaxDimension+1, gocv.MatTypeCV8UC1)
	assert.Error(t, err)
}

func TestNewMatFromBytesCopies(t *testing.T) {
	data := []byte{0, 255, 0, 255, 255, 0}
	mat, err := NewMatFromBytes(2, 3, data)
	require.NoError(t, err)
	defer mat.Close()

	data[1] = 0
	v, err := mat.GetUCharAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), v)

	out, err := mat.ToBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 255, 0, 255, 255, 0}, out)

	_, err = NewMatFromBytes(2, 3, []byte{1, 2})
	assert.Error(t, err)
}

func TestCloseIsIdempotentAndTracked(t *testing.T) {
	tracker := &countingTracker{}
	mat, err := NewMatWithTracker(10, 10, gocv.MatTypeCV8UC1, tracker, "scratch")
	require.NoError(t, err)
	assert.Equal(t, int64(100), tracker.bytes)

	mat.Close()
	mat.Close()

	assert.Equal(t, 1, tracker.allocs)
	assert.Equal(t, 1, tracker.deallocs)
	assert.False(t, mat.IsValid())
	assert.True(t, mat.Empty())
	assert.Error(t, ValidateMatForOperation(mat, "test"))
}

func TestCoordinateValidation(t *testing.T) {
	mat, err := NewMat(3, 3, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	defer mat.Close()

	require.NoError(t, mat.SetUCharAt(2, 2, 255))
	assert.Error(t, mat.SetUCharAt(3, 0, 255))
	_, err = mat.GetUCharAt(-1, 0)
	assert.Error(t, err)
}

func TestValidateMask(t *testing.T) {
	assert.Error(t, ValidateMask(nil, "nil"))

	color, err := NewMat(3, 3, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	defer color.Close()
	assert.Error(t, ValidateMask(color, "color"))

	gray, err := NewMat(3, 3, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	defer gray.Close()
	assert.NoError(t, ValidateMask(gray, "gray"))
}
