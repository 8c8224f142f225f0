package ocr

import (
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
)

// Pre-processing constants tuned for small phone-camera proof scans.
const (
	minOCRDimension  = 1000 // upscale anything smaller; low-res scans are the dominant OCR failure mode
	thresholdSigma   = 2.0  // gaussian sigma approximating an 11px neighborhood
	thresholdOffset  = 2
	contrastPercent  = 20 // linear stretch, roughly gain 1.2
	brightnessOffset = 4  // roughly bias +10 on a 0..255 scale
	denoiseSigma     = 0.8
)

// Preprocess returns a copy of src tuned to maximize OCR yield: grayscale,
// isotropic cubic upscale below minOCRDimension, light denoising, contrast
// stretch and adaptive binarization. It never fails the caller: on any
// internal error the original image is returned unchanged.
func Preprocess(src image.Image, logger *slog.Logger) (out image.Image) {
	if logger == nil {
		logger = slog.Default()
	}
	out = src
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("image pre-processing failed, using original", "panic", r)
			out = src
		}
	}()

	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return src
	}

	gray := imaging.Grayscale(src)

	if w, h := b.Dx(), b.Dy(); w < minOCRDimension || h < minOCRDimension {
		scale := float64(minOCRDimension) / float64(min(w, h))
		newW := int(math.Round(float64(w) * scale))
		newH := int(math.Round(float64(h) * scale))
		gray = imaging.Resize(gray, newW, newH, imaging.CatmullRom)
	}

	gray = imaging.Blur(gray, denoiseSigma)
	gray = imaging.AdjustContrast(gray, contrastPercent)
	gray = imaging.AdjustBrightness(gray, brightnessOffset)

	return adaptiveThreshold(gray, thresholdSigma, thresholdOffset)
}

// adaptiveThreshold binarizes a grayscale image against a gaussian-weighted
// local mean: a pixel becomes white when it exceeds the local mean minus the
// offset. Handles uneven scan lighting that a global threshold cannot.
func adaptiveThreshold(gray *image.NRGBA, sigma float64, offset int) *image.NRGBA {
	mean := imaging.Blur(gray, sigma)
	out := imaging.Clone(gray)

	for i := 0; i < len(out.Pix); i += 4 {
		v := 0
		if int(gray.Pix[i]) > int(mean.Pix[i])-offset {
			v = 255
		}
		out.Pix[i] = uint8(v)
		out.Pix[i+1] = uint8(v)
		out.Pix[i+2] = uint8(v)
		out.Pix[i+3] = 255
	}
	return out
}
