package conversion

import (
	"fmt"

	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
)

func CvtColorSafe(src *safe.Mat, dst *safe.Mat, code gocv.ColorConversionCode) error {
	if err := safe.ValidateMatForOperation(src, "CvtColor source"); err != nil {
		return fmt.Errorf("color conversion validation failed: %w", err)
	}

	if err := safe.ValidateMatForOperation(dst, "CvtColor destination"); err != nil {
		return fmt.Errorf("destination mat validation failed: %w", err)
	}

	srcMat := src.GetMat()
	dstMat := dst.GetMat()

	gocv.CvtColor(srcMat, &dstMat, code)

	return nil
}

func ConvertToGrayscale(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "ConvertToGrayscale"); err != nil {
		return nil, err
	}

	channels := src.Channels()

	if channels == 1 {
		return src.Clone()
	}

	dst, err := safe.NewMat(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	var conversionCode gocv.ColorConversionCode
	switch channels {
	case 3:
		conversionCode = gocv.ColorBGRToGray
	case 4:
		conversionCode = gocv.ColorBGRAToGray
	default:
		dst.Close()
		return nil, fmt.Errorf("unsupported channel count for grayscale conversion: %d", channels)
	}

	if err := CvtColorSafe(src, dst, conversionCode); err != nil {
		dst.Close()
		return nil, fmt.Errorf("color conversion failed: %w", err)
	}

	return dst, nil
}

// Binarize maps every pixel above thresh to 255 and everything else to 0.
// Multi-channel input is converted to grayscale first.
func Binarize(src *safe.Mat, thresh float32) (*safe.Mat, error) {
	gray, err := ConvertToGrayscale(src)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	dst, err := safe.NewMat(gray.Rows(), gray.Cols(), gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.Threshold(gray.GetMat(), &dstMat, thresh, 255, gocv.ThresholdBinary)

	return dst, nil
}

// SaturationChannel returns the HSV saturation plane of a BGR Mat.
func SaturationChannel(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "SaturationChannel"); err != nil {
		return nil, err
	}
	if src.Channels() != 3 {
		return nil, fmt.Errorf("saturation requires a 3-channel BGR Mat, got %d channels", src.Channels())
	}

	hsv, err := safe.NewMat(src.Rows(), src.Cols(), gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, err
	}
	defer hsv.Close()

	if err := CvtColorSafe(src, hsv, gocv.ColorBGRToHSV); err != nil {
		return nil, err
	}

	planes := gocv.Split(hsv.GetMat())
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()

	return safe.NewMatFromMat(planes[1])
}
