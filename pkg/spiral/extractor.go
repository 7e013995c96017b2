// Package spiral decodes an uploaded spiral drawing and derives
// contour-geometry tremor descriptors, then projects them onto the
// vocal biomarker schema through a pinned mapping table so the shared
// classifier can consume either modality.
package spiral

import (
	"bytes"
	"context"
	"image"
	"math"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/neuroscreen-ai/inference/pkg/schema"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const (
	analysisSize  = 256
	minDimension  = 64
	minInkPixels  = 50
	maxInkPortion = 0.6
)

// SupportedFormats lists the accepted upload formats.
var SupportedFormats = []string{"png", "jpg", "jpeg", "bmp", "tiff"}

// Extractor is stateless and safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Result carries the projected biomarkers and the raw contour metrics.
type Result struct {
	Features map[schema.FeatureID]float64
	Metrics  models.SpiralMetrics
}

// Extract decodes the drawing and computes geometry and tremor score.
func (e *Extractor) Extract(ctx context.Context, data []byte, format string) (*Result, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewError(models.ErrUnsupportedFormat, "failed to decode image: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() < minDimension || bounds.Dy() < minDimension {
		return nil, models.NewError(models.ErrImageTooSmall,
			"image %dx%d below the minimum resolution of %dx%d pixels",
			bounds.Dx(), bounds.Dy(), minDimension, minDimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray := image.NewGray(image.Rect(0, 0, analysisSize, analysisSize))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, bounds, draw.Src, nil)

	mask, ok := binarize(gray.Pix)
	if !ok {
		return nil, noContour()
	}

	area, member := largestComponent(mask, analysisSize, analysisSize)
	if area < minInkPixels {
		return nil, noContour()
	}
	contour := traceBoundary(member, analysisSize, analysisSize)
	if len(contour) < 8 {
		return nil, noContour()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics := describeContour(float64(area), contour, gray.Pix)
	return &Result{
		Features: mapTremorToFeatures(metrics.TremorScore),
		Metrics:  metrics,
	}, nil
}

func noContour() error {
	return models.NewError(models.ErrNoContourDetected,
		"could not detect a spiral drawing: ensure the image contains a hand-drawn spiral on a white background")
}

func checkFormat(format string) error {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	for _, f := range SupportedFormats {
		if format == f {
			return nil
		}
	}
	return models.NewError(models.ErrUnsupportedFormat,
		"unsupported image format %q: upload a PNG, JPG, BMP or TIFF image", format)
}

// FormatFromFilename extracts the declared format from an uploaded
// file name.
func FormatFromFilename(name string) (string, error) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return "", models.NewError(models.ErrUnsupportedFormat,
			"cannot determine image format of %q: upload a PNG, JPG, BMP or TIFF image", name)
	}
	ext := strings.ToLower(name[idx+1:])
	if err := checkFormat(ext); err != nil {
		return "", err
	}
	return ext, nil
}

// binarize selects a global Otsu threshold and marks ink (dark) pixels.
// Degenerate images with no two-class structure report failure.
func binarize(pix []uint8) ([]bool, bool) {
	var hist [256]int
	for _, v := range pix {
		hist[v]++
	}

	total := len(pix)
	var sumAll float64
	for v, c := range hist {
		sumAll += float64(v) * float64(c)
	}

	var sumBg, weightBg float64
	bestVar, threshold := 0.0, -1
	for v := 0; v < 256; v++ {
		weightBg += float64(hist[v])
		if weightBg == 0 {
			continue
		}
		weightFg := float64(total) - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(v) * float64(hist[v])
		meanBg := sumBg / weightBg
		meanFg := (sumAll - sumBg) / weightFg
		between := weightBg * weightFg * (meanBg - meanFg) * (meanBg - meanFg)
		if between > bestVar {
			bestVar = between
			threshold = v
		}
	}
	if threshold < 0 || bestVar == 0 {
		return nil, false
	}

	mask := make([]bool, total)
	ink := 0
	for i, v := range pix {
		if int(v) <= threshold {
			mask[i] = true
			ink++
		}
	}
	// A spiral stroke is sparse; a mostly-dark mask means the threshold
	// split noise, not a drawing.
	if ink == 0 || float64(ink) > maxInkPortion*float64(total) {
		return nil, false
	}
	return mask, true
}

// describeContour computes the shape descriptors and composite tremor
// score from the traced contour.
func describeContour(area float64, contour []point, pix []uint8) models.SpiralMetrics {
	perimeter := pathLength(contour)
	hull := convexHull(contour)
	hullArea := polygonArea(hull)
	hullPerimeter := pathLength(hull)

	circularity := 4 * math.Pi * area / (perimeter*perimeter + 1e-6)
	solidity := area / (hullArea + 1e-6)
	convexity := hullPerimeter / (perimeter + 1e-6)
	deviation := radialDispersion(contour)
	roughness := meanGradientMagnitude(pix)

	tremor := 0.8*deviation + 0.2*(1-convexity)
	tremor = math.Min(math.Max(tremor, 0), 1)

	return models.SpiralMetrics{
		Circularity:     round4(circularity),
		Convexity:       round4(convexity),
		Solidity:        round4(solidity),
		SpiralDeviation: round4(deviation),
		Roughness:       round4(roughness),
		TremorScore:     round4(tremor),
	}
}

// meanGradientMagnitude applies a Sobel operator over the grayscale
// image, normalized to [0, 1] by the intensity range.
func meanGradientMagnitude(pix []uint8) float64 {
	at := func(x, y int) float64 {
		return float64(pix[y*analysisSize+x])
	}
	var sum float64
	var count int
	for y := 1; y < analysisSize-1; y++ {
		for x := 1; x < analysisSize-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			sum += math.Hypot(gx, gy)
			count++
		}
	}
	return sum / (float64(count) * 255)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
