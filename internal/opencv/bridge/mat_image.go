package bridge

import (
	"fmt"
	"image"

	"cv2x/internal/opencv/safe"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// MatToImage converts a single-channel or BGR Mat into a Go image.
func MatToImage(mat *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(mat, "MatToImage"); err != nil {
		return nil, err
	}

	rows := mat.Rows()
	cols := mat.Cols()

	data, err := mat.ToBytes()
	if err != nil {
		return nil, err
	}

	switch mat.Channels() {
	case 1:
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		copy(img.Pix, data)
		return img, nil
	case 3:
		img := image.NewRGBA(image.Rect(0, 0, cols, rows))
		for i, j := 0, 0; i+2 < len(data); i, j = i+3, j+4 {
			img.Pix[j] = data[i+2]
			img.Pix[j+1] = data[i+1]
			img.Pix[j+2] = data[i]
			img.Pix[j+3] = 255
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported number of channels: %d", mat.Channels())
	}
}

// ImageToGray renders any image into an 8-bit grayscale Mat.
func ImageToGray(img image.Image) (*safe.Mat, error) {
	gray, err := toGray(img)
	if err != nil {
		return nil, err
	}
	b := gray.Bounds()
	return safe.NewMatFromBytes(b.Dy(), b.Dx(), gray.Pix)
}

// ImageToMask renders img as a binary mask: any non-zero luminance becomes 255.
func ImageToMask(img image.Image) (*safe.Mat, error) {
	gray, err := toGray(img)
	if err != nil {
		return nil, err
	}
	for i, v := range gray.Pix {
		if v > 0 {
			gray.Pix[i] = 255
		}
	}
	b := gray.Bounds()
	return safe.NewMatFromBytes(b.Dy(), b.Dx(), gray.Pix)
}

// ImageToBGR renders img into an 8-bit three channel Mat in OpenCV order.
func ImageToBGR(img image.Image) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	data := make([]byte, bounds.Dx()*bounds.Dy()*3)
	for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
		data[i] = rgba.Pix[j+2]
		data[i+1] = rgba.Pix[j+1]
		data[i+2] = rgba.Pix[j]
	}

	return safe.NewMatFromBytesWithType(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC3, data)
}

func toGray(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("input image has zero dimensions")
	}

	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray, nil
}
