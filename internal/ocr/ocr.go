package ocr

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"
	"unicode/utf8"

	"proofledger/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "por"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDF pages, default 300
	MaxPages      int // 0 = no limit
}

// Result is the acquisition outcome. Confidence reflects the acquisition
// path only, not field-level extraction quality: native PDF text weighs
// 0.95 per page, OCR'd text scales with how much was recognized.
type Result struct {
	Text       string
	Pages      int
	SourceType constants.FileFormat
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Confidence float32
	Duration   time.Duration
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks an acquisition strategy based on file extension. It never
// returns an error: corrupt files, missing backends and I/O failures all
// collapse to empty text with zero confidence, logged here. Unsupported
// extensions are the caller's responsibility to reject beforehand.
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text acquisition", "path", path, "ext", ext)

	var res Result
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res = e.extractImage(ctx, path)
	default:
		e.logger.Warn("acquisition called with unsupported extension", "ext", ext)
		res = Result{}
	}
	res.Duration = time.Since(start)
	return res
}

// charCountConfidence is a deliberately crude proxy: more recognized text
// means higher assumed confidence. Counts runes, not bytes — accented
// Portuguese would otherwise count double. Downstream amount validation is
// the real correctness gate.
func charCountConfidence(text string) float32 {
	c := float32(utf8.RuneCountInString(text)) / 1000.0
	if c > 1.0 {
		c = 1.0
	}
	return c
}
