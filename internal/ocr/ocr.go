// Package ocr extracts parameter values from screenshot regions. A matched
// template tells us where each parameter lives; Tesseract reads the text out
// of those rectangles.
package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"hmi-config/internal/imaging"
	"hmi-config/internal/store"
)

// PanelChars is the character set HMI parameter fields draw from. Lowercase
// is excluded to avoid 0/O and 1/I confusion on low resolution panels.
const PanelChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ.,:-/% "

// Engine wraps a Tesseract client for parameter extraction.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates an OCR engine configured for panel text.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting OCR language: %w", err)
	}

	// Parameter values are codes and numbers, not English words, so keep
	// Tesseract's dictionary from "correcting" them.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetVariable("language_model_penalty_non_dict_word", "0")

	return &Engine{client: client}, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// ReadRegion recognizes the text inside one parameter rectangle of an image
// already scaled to the template's capture size.
func (e *Engine) ReadRegion(img gocv.Mat, item store.Item) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("empty image")
	}
	region, err := imaging.CropBox(img, item.Position)
	if err != nil {
		return "", err
	}
	defer region.Close()

	processed := preprocess(region)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("encoding region: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("setting page mode: %w", err)
	}
	if err := e.client.SetWhitelist(PanelChars); err != nil {
		return "", fmt.Errorf("setting whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	text = strings.Join(strings.Fields(text), " ")
	return strings.ToUpper(text), nil
}

// ReadParameters reads every parameter region of a template from a
// screenshot and returns name to value. The screenshot is scaled to the
// template's capture size first so the stored rectangles line up.
func (e *Engine) ReadParameters(inputPath string, t *store.Template) (map[string]string, error) {
	input, err := imaging.ReadMat(inputPath)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	scaled := imaging.ResizeTo(input, t.Size)
	defer scaled.Close()

	values := make(map[string]string, len(t.Parameters))
	for _, item := range t.Parameters {
		text, err := e.ReadRegion(scaled, item)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", item.Name, err)
		}
		values[item.Name] = text
	}
	return values, nil
}

// preprocess upscales small regions and binarizes them for Tesseract.
func preprocess(region gocv.Mat) gocv.Mat {
	h, w := region.Rows(), region.Cols()

	var scaled gocv.Mat
	if minDim := min(h, w); minDim < 120 {
		scale := 120.0 / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(region, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = region.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)
	scaled.Close()

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gray.Close()

	// Panels often show light text on a dark field; Tesseract wants the
	// opposite.
	whiteCount := gocv.CountNonZero(binary)
	if float64(whiteCount) > 0.5*float64(binary.Rows()*binary.Cols()) {
		gocv.BitwiseNot(binary, &binary)
	}

	result := gocv.NewMat()
	gocv.CvtColor(binary, &result, gocv.ColorGrayToBGR)
	binary.Close()
	return result
}
