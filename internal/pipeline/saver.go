package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cv2x/internal/logger"

	"github.com/disintegration/imaging"
)

type imageSaver struct {
	logger logger.Logger
}

func (s *imageSaver) SaveToWriter(writer io.Writer, imageData *ImageData, format string) error {
	if imageData == nil || imageData.Image == nil {
		return fmt.Errorf("no image data to save")
	}

	f, err := imagingFormat(format)
	if err != nil {
		return err
	}

	if err := imaging.Encode(writer, imageData.Image, f); err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"format": format,
		})
		return err
	}

	return nil
}

// SaveToPath writes imageData with the format implied by the path extension.
func (s *imageSaver) SaveToPath(path string, imageData *ImageData) error {
	if imageData == nil || imageData.Image == nil {
		return fmt.Errorf("no image data to save")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := imaging.Save(imageData.Image, path); err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"path": path,
		})
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	s.logger.Debug("ImageSaver", "image saved", map[string]interface{}{
		"path": path,
	})

	return nil
}

func imagingFormat(format string) (imaging.Format, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return imaging.PNG, nil
	case "jpg", "jpeg":
		return imaging.JPEG, nil
	case "tif", "tiff":
		return imaging.TIFF, nil
	case "bmp":
		return imaging.BMP, nil
	default:
		return 0, fmt.Errorf("unsupported output format: %s", format)
	}
}
