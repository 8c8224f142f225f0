package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"proofledger/constants"
)

// nativeTextWeight is the per-page confidence contribution of a text-layer
// page; OCR'd pages contribute their own estimate instead.
const nativeTextWeight = 0.95

// extractPDF tries the native text layer page by page and falls back to
// rasterize-then-OCR for blank pages only. The final confidence is the
// per-page average clamped to 1.0.
func (e *Extractor) extractPDF(ctx context.Context, path string) Result {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		e.logger.Error("pdf text extraction failed", "path", path, "error", err, "stderr", truncate(string(errb), 2<<10))
		return Result{SourceType: constants.PDF, Method: "pdf-text"}
	}

	// form feed separates pages in pdftotext output
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return Result{SourceType: constants.PDF, Method: "pdf-text"}
	}

	var b strings.Builder
	var confSum float64
	ocrPages := 0
	for i, pageText := range pages {
		if strings.TrimSpace(pageText) != "" {
			b.WriteString(pageText)
			b.WriteString("\n")
			confSum += nativeTextWeight
			continue
		}
		// blank text layer: rasterize this page alone and OCR it
		txt, conf := e.ocrPDFPage(ctx, path, i+1)
		if txt != "" {
			b.WriteString(txt)
			b.WriteString("\n")
			ocrPages++
		}
		confSum += float64(conf)
	}

	conf := float32(confSum / float64(len(pages)))
	if conf > 1.0 {
		conf = 1.0
	}
	method := "pdf-text"
	if ocrPages > 0 {
		method = "pdf-ocr"
	}
	return Result{
		Text:       Normalize(b.String()),
		Pages:      len(pages),
		SourceType: constants.PDF,
		Method:     method,
		Confidence: conf,
	}
}

// ocrPDFPage renders a single PDF page to PNG at the configured DPI and runs
// it through the image OCR path. Failures are absorbed: a page that cannot
// be rendered contributes nothing.
func (e *Extractor) ocrPDFPage(ctx context.Context, path string, page int) (string, float32) {
	tmpDir, err := os.MkdirTemp("", "proof-pp-*")
	if err != nil {
		e.logger.Error("pdf page ocr: temp dir", "error", err)
		return "", 0
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f <n> -l <n> -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", fmt.Sprintf("%d", page), "-l", fmt.Sprintf("%d", page),
		"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		e.logger.Warn("pdf page rasterization failed", "path", path, "page", page, "error", err, "stderr", truncate(string(errb), 2<<10))
		return "", 0
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		e.logger.Warn("pdftoppm produced no images", "path", path, "page", page)
		return "", 0
	}

	txt, conf := e.ocrImageFile(ctx, matches[0])
	return txt, conf
}
