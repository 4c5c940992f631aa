package metrics

import (
	"fmt"

	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MaskDiff compares a mask before and after a repair step, pixel by pixel.
// A pixel is occupied when its value is above 127.
type MaskDiff struct {
	Retained    int
	Added       int
	Removed     int
	Background  int
	TotalPixels int
}

func CompareMasks(before, after *safe.Mat) (*MaskDiff, error) {
	if err := safe.ValidateMask(before, "CompareMasks before"); err != nil {
		return nil, err
	}
	if err := safe.ValidateMask(after, "CompareMasks after"); err != nil {
		return nil, err
	}
	if before.Rows() != after.Rows() || before.Cols() != after.Cols() {
		return nil, fmt.Errorf("CompareMasks: dimension mismatch %dx%d vs %dx%d",
			before.Cols(), before.Rows(), after.Cols(), after.Rows())
	}

	b := binary(before.GetMat())
	defer b.Close()
	a := binary(after.GetMat())
	defer a.Close()

	both := gocv.NewMat()
	defer both.Close()
	gocv.BitwiseAnd(b, a, &both)

	diff := &MaskDiff{TotalPixels: before.Rows() * before.Cols()}
	diff.Retained = gocv.CountNonZero(both)
	diff.Added = gocv.CountNonZero(a) - diff.Retained
	diff.Removed = gocv.CountNonZero(b) - diff.Retained
	diff.Background = diff.TotalPixels - diff.Retained - diff.Added - diff.Removed

	return diff, nil
}

func binary(m gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.Threshold(m, &out, 127, 255, gocv.ThresholdBinary)
	return out
}

// Changed is the number of pixels whose state flipped.
func (d *MaskDiff) Changed() int {
	return d.Added + d.Removed
}

// Jaccard is the intersection over union of the two masks; 1 when both are empty.
func (d *MaskDiff) Jaccard() float64 {
	union := d.Retained + d.Added + d.Removed
	if union == 0 {
		return 1
	}
	return float64(d.Retained) / float64(union)
}

// Dice is the F-measure of the repaired mask against the original, taking
// retained pixels as true positives; 1 when both are empty.
func (d *MaskDiff) Dice() float64 {
	denom := 2*d.Retained + d.Added + d.Removed
	if denom == 0 {
		return 1
	}
	return 2 * float64(d.Retained) / float64(denom)
}

// NRM is the negative rate metric: the mean of the removed and added rates.
func (d *MaskDiff) NRM() float64 {
	var fnr, fpr float64
	if fg := d.Retained + d.Removed; fg > 0 {
		fnr = float64(d.Removed) / float64(fg)
	}
	if bg := d.Background + d.Added; bg > 0 {
		fpr = float64(d.Added) / float64(bg)
	}
	return (fnr + fpr) / 2
}

func (d *MaskDiff) Fields() map[string]interface{} {
	return map[string]interface{}{
		"retained": d.Retained,
		"added":    d.Added,
		"removed":  d.Removed,
		"jaccard":  d.Jaccard(),
		"dice":     d.Dice(),
		"nrm":      d.NRM(),
	}
}
