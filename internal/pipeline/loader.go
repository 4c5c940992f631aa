package pipeline

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"cv2x/internal/logger"
	"cv2x/internal/opencv/bridge"
	"cv2x/internal/opencv/conversion"
	"cv2x/internal/opencv/memory"
	"cv2x/internal/opencv/safe"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type imageLoader struct {
	memoryManager *memory.Manager
	logger        logger.Logger
}

// LoadMask reads a mask file; any non-zero pixel counts as occupied.
func (l *imageLoader) LoadMask(path string) (*ImageData, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open mask %s: %w", path, err)
	}

	mask, err := bridge.ImageToMask(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask %s: %w", path, err)
	}
	defer mask.Close()

	return l.track(mask, img, path, "loaded_mask")
}

// LoadImage reads a colour image as BGR.
func (l *imageLoader) LoadImage(path string) (*ImageData, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}

	bgr, err := bridge.ImageToBGR(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image %s: %w", path, err)
	}
	defer bgr.Close()

	return l.track(bgr, img, path, "loaded_image")
}

// LoadMaskFromBytes decodes an encoded mask with OpenCV.
func (l *imageLoader) LoadMaskFromBytes(data []byte, format string) (*ImageData, error) {
	decoded, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mask with OpenCV: %w", err)
	}
	defer decoded.Close()

	if decoded.Empty() {
		return nil, fmt.Errorf("failed to decode mask with OpenCV: empty result")
	}

	gray, err := safe.NewMatFromMat(decoded)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	mask, err := conversion.Binarize(gray, 0)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	img, err := bridge.MatToImage(mask)
	if err != nil {
		return nil, err
	}

	tracked, err := l.track(mask, img, "", "decoded_mask")
	if err != nil {
		return nil, err
	}
	tracked.Format = normaliseFormat(format, "")
	return tracked, nil
}

func (l *imageLoader) track(mat *safe.Mat, img image.Image, path, tag string) (*ImageData, error) {
	tracked, err := l.memoryManager.Adopt(mat, tag)
	if err != nil {
		return nil, err
	}

	data := &ImageData{
		Image:    img,
		Mat:      tracked,
		Width:    tracked.Cols(),
		Height:   tracked.Rows(),
		Channels: tracked.Channels(),
		Format:   normaliseFormat(filepath.Ext(path), ""),
		Path:     path,
	}

	l.logger.Debug("ImageLoader", "image loaded", map[string]interface{}{
		"path":     path,
		"width":    data.Width,
		"height":   data.Height,
		"channels": data.Channels,
		"format":   data.Format,
	})

	return data, nil
}

func normaliseFormat(ext, fallback string) string {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "tiff", "tif":
		return "tiff"
	case "jpg", "jpeg":
		return "jpeg"
	case "png":
		return "png"
	case "bmp":
		return "bmp"
	case "webp":
		return "webp"
	default:
		if fallback != "" {
			return fallback
		}
		return "unknown"
	}
}
