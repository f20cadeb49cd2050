// Package imaging wraps the gocv routines shared by the matcher and the UI:
// loading screenshots, grayscale conversion, resizing and region cropping.
package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"

	"hmi-config/pkg/geometry"
)

func init() {
	image.RegisterFormat("tiff", "II*\x00", tiff.Decode, tiff.DecodeConfig)
	image.RegisterFormat("tiff", "MM\x00*", tiff.Decode, tiff.DecodeConfig)
}

// ErrEmptyImage is returned when a file decodes to an empty matrix.
var ErrEmptyImage = errors.New("imaging: empty image")

// ReadMat loads an image file as a BGR matrix. The caller owns the Mat and
// must Close it.
func ReadMat(path string) (gocv.Mat, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrEmptyImage, path)
	}
	return mat, nil
}

// Dimensions returns the pixel size of an image file without decoding the
// full raster.
func Dimensions(path string) (geometry.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return geometry.Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// ToGray converts a matrix to single-channel grayscale. The caller owns the
// returned Mat.
func ToGray(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray
}

// ResizeTo scales a matrix to an exact pixel size. A matrix already at the
// requested size is cloned rather than resampled.
func ResizeTo(src gocv.Mat, size geometry.Size) gocv.Mat {
	if src.Cols() == size.Width && src.Rows() == size.Height {
		return src.Clone()
	}
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(size.Width, size.Height), 0, 0, gocv.InterpolationLinear)
	return dst
}

// CropBox returns the sub-matrix covered by a box. Fractional coordinates
// truncate toward zero and the box is clamped to the matrix bounds. The
// returned Mat shares storage with src and still needs its own Close.
func CropBox(src gocv.Mat, box geometry.Box) (gocv.Mat, error) {
	r := box.Rect()
	r = r.Intersect(image.Rect(0, 0, src.Cols(), src.Rows()))
	if r.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: crop %v outside %dx%d", ErrEmptyImage, box, src.Cols(), src.Rows())
	}
	return src.Region(r), nil
}

// SaveTIFF writes an image to disk in TIFF form.
func SaveTIFF(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := tiff.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// LoadImage decodes an image file into an image.Image for UI display.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
