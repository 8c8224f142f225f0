package ocr

import (
	"context"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"proofledger/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) Result {
	txt, conf := e.ocrImageFile(ctx, path)
	return Result{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Confidence: conf,
	}
}

// ocrImageFile pre-processes the image and runs tesseract over the result.
// When pre-processing is impossible (undecodable file, temp dir failure) the
// original file is OCR'd as-is; pre-processing is an accuracy enhancement,
// not a correctness requirement.
func (e *Extractor) ocrImageFile(ctx context.Context, path string) (string, float32) {
	ocrPath := path
	if processed, cleanup, err := e.preprocessToFile(path); err != nil {
		e.logger.Warn("image pre-processing skipped", "path", path, "error", err)
	} else {
		defer cleanup()
		ocrPath = processed
	}

	txt, err := e.tesseractOCR(ctx, ocrPath)
	if err != nil {
		e.logger.Error("image ocr failed", "path", path, "error", err)
		return "", 0
	}
	// confidence reflects what the engine recognized, before whitespace
	// normalization shrinks the text
	conf := charCountConfidence(txt)
	return Normalize(txt), conf
}

// preprocessToFile decodes, pre-processes and re-encodes the image into a
// temp PNG for tesseract. Returns the processed path and a cleanup func.
func (e *Extractor) preprocessToFile(path string) (string, func(), error) {
	src, err := imaging.Open(path)
	if err != nil {
		return "", nil, err
	}

	processed := Preprocess(src, e.logger)

	tmpDir, err := os.MkdirTemp("", "proof-pre-*")
	if err != nil {
		return "", nil, err
	}
	out := filepath.Join(tmpDir, "processed.png")
	if err := imaging.Save(processed, out); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", nil, err
	}
	return out, func() { _ = os.RemoveAll(tmpDir) }, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		e.logger.Error("tesseract failed", "path", path, "stderr", truncate(string(errb), 2<<10))
		return "", err
	}

	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
