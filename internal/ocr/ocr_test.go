package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f(ctx, name, args...)
}

func newTestExtractor(r Runner) *Extractor {
	e := NewExtractor(Config{}, nil)
	e.runner = r
	return e
}

// writeTestImage saves a small white image with a dark band, enough for the
// pre-processing path to have something to chew on.
func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := imaging.New(120, 60, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	for x := 10; x < 110; x++ {
		for y := 25; y < 35; y++ {
			img.Set(x, y, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
		}
	}
	require.NoError(t, imaging.Save(img, path))
}

func TestExtractPDFNativeText(t *testing.T) {
	e := newTestExtractor(runnerFunc(func(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
		require.Equal(t, "pdftotext", name)
		return []byte("Valor R$ 100,00\fFavorecido Nome: JOAO DA SILVA CPF 1"), nil, nil
	}))

	res := e.Extract(context.Background(), "/tmp/proof.pdf")
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "pdf-text", res.Method)
	assert.InDelta(t, 0.95, float64(res.Confidence), 0.001)
	assert.Contains(t, res.Text, "Valor R$ 100,00")
	assert.Contains(t, res.Text, "JOAO DA SILVA")
}

func TestExtractPDFBlankPageFallsBackToOCR(t *testing.T) {
	var rasterized bool
	e := newTestExtractor(runnerFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		switch name {
		case "pdftotext":
			// page 1 has a text layer, page 2 is image-only
			return []byte("Comprovante PIX R$ 1.234,56\f \f"), nil, nil
		case "pdftoppm":
			rasterized = true
			// pdftoppm writes <prefix>-<n>.png; emulate that
			prefix := args[len(args)-1]
			writeTestImage(t, prefix+"-2.png")
			return nil, nil, nil
		case "tesseract":
			return []byte(strings.Repeat("texto reconhecido ", 10)), nil, nil
		}
		return nil, nil, errors.New("unexpected command")
	}))

	res := e.Extract(context.Background(), "/tmp/scanned.pdf")
	assert.True(t, rasterized)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "texto reconhecido")
	// page 1 contributes 0.95, page 2 contributes its char-count estimate
	assert.Greater(t, float64(res.Confidence), 0.95/2)
	assert.LessOrEqual(t, float64(res.Confidence), 1.0)
}

func TestExtractPDFBackendUnavailable(t *testing.T) {
	e := newTestExtractor(runnerFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, []byte("pdftotext: not found"), errors.New("exec: not found")
	}))

	res := e.Extract(context.Background(), "/tmp/proof.pdf")
	assert.Empty(t, res.Text)
	assert.Zero(t, res.Confidence)
}

func TestExtractImageConfidenceScalesWithText(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "proof.png")
	writeTestImage(t, imgPath)

	ocrText := strings.Repeat("a", 500)
	e := newTestExtractor(runnerFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "tesseract", name)
		// the OCR input must be the pre-processed temp file, not the upload
		assert.NotEqual(t, imgPath, args[0])
		assert.Contains(t, args, "por")
		return []byte(ocrText), nil, nil
	}))

	res := e.Extract(context.Background(), imgPath)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, ocrText, res.Text)
	assert.InDelta(t, 0.5, float64(res.Confidence), 0.001)
}

func TestExtractImageConfidenceCountsRunes(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "proof.png")
	writeTestImage(t, imgPath)

	// 500 accented characters are 1000 bytes of UTF-8; the estimate must see
	// 500 characters, not a byte length
	e := newTestExtractor(runnerFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte(strings.Repeat("ã", 500)), nil, nil
	}))

	res := e.Extract(context.Background(), imgPath)
	assert.InDelta(t, 0.5, float64(res.Confidence), 0.001)
}

func TestExtractImageConfidenceClamped(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "proof.jpg")
	writeTestImage(t, imgPath)

	e := newTestExtractor(runnerFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte(strings.Repeat("b", 5000)), nil, nil
	}))

	res := e.Extract(context.Background(), imgPath)
	assert.InDelta(t, 1.0, float64(res.Confidence), 0.001)
}

func TestExtractImageOCRFailure(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "proof.png")
	writeTestImage(t, imgPath)

	e := newTestExtractor(runnerFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, []byte("tesseract: missing language data"), errors.New("exit status 1")
	}))

	res := e.Extract(context.Background(), imgPath)
	assert.Empty(t, res.Text)
	assert.Zero(t, res.Confidence)
}

func TestExtractImageUndecodableFallsBackToOriginal(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(imgPath, []byte("not a png"), 0o644))

	e := newTestExtractor(runnerFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "tesseract", name)
		assert.Equal(t, imgPath, args[0])
		return []byte("still readable"), nil, nil
	}))

	res := e.Extract(context.Background(), imgPath)
	assert.Equal(t, "still readable", res.Text)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := newTestExtractor(runnerFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		t.Fatal("no external command should run for unsupported extensions")
		return nil, nil, nil
	}))

	res := e.Extract(context.Background(), "/tmp/malware.exe")
	assert.Empty(t, res.Text)
	assert.Zero(t, res.Confidence)
}

func TestPreprocessOutput(t *testing.T) {
	img := imaging.New(120, 60, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	for x := 20; x < 100; x++ {
		img.Set(x, 30, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	}

	out := Preprocess(img, nil)
	b := out.Bounds()
	// smaller dimension upscaled to the OCR floor
	assert.Equal(t, minOCRDimension, b.Dy())
	assert.Equal(t, 2000, b.Dx())

	// binarized output: every pixel is pure black or pure white
	nrgba, ok := out.(*image.NRGBA)
	require.True(t, ok)
	for i := 0; i < len(nrgba.Pix); i += 4 {
		v := nrgba.Pix[i]
		assert.True(t, v == 0 || v == 255, "pixel %d not binary: %d", i/4, v)
	}
}

func TestNormalize(t *testing.T) {
	in := "linha um  \r\n\r\n\r\n\r\nlinha\tdois   com    espaços"
	out := Normalize(in)
	assert.Equal(t, "linha um\n\nlinha dois com espaços", out)
}
