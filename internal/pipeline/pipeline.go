package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"proofledger/constants"
	"proofledger/internal/extract"
	"proofledger/internal/ocr"
)

// rawTextLimit bounds the acquired text kept on the result for storage/audit.
const rawTextLimit = 500

// Failure diagnostics. Acquisition failure and extraction failure are
// distinct states: the former means no usable text, the latter means text
// was read but no plausible amount survived validation.
const (
	errUnsupportedType = "unsupported file type"
	errNoText          = "could not extract text from file"
	errNoAmount        = "could not extract an amount from the proof"
)

// ExtractionResult is the structured outcome of one proof document. Success
// is true iff Value is set; the other fields are best-effort and their
// absence never fails the extraction.
type ExtractionResult struct {
	Value       *float64
	Date        *string
	Beneficiary *string
	EndToEnd    *string
	RawText     string
	Confidence  float32
	Success     bool
	Error       string
}

// TextAcquirer turns a file into raw text plus an acquisition confidence.
type TextAcquirer interface {
	Extract(ctx context.Context, path string) ocr.Result
}

// Pipeline runs text acquisition and all field extractors for one upload.
type Pipeline struct {
	acquirer TextAcquirer
	logger   *slog.Logger
}

func New(acquirer TextAcquirer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{acquirer: acquirer, logger: logger}
}

// ExtractProof acquires text from the file at path and runs the field
// extractors over it. The contract is total: it always returns a result and
// never lets a panic or error escape to the caller.
func (p *Pipeline) ExtractProof(ctx context.Context, path string) (res ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("extraction panicked", "path", path, "panic", r)
			res = ExtractionResult{Error: fmt.Sprintf("internal extraction error: %v", r)}
		}
	}()

	ext := filepath.Ext(path)
	if !constants.IsAllowedExt(ext) {
		p.logger.Warn("unsupported proof file type", "path", path, "ext", ext)
		return ExtractionResult{Error: fmt.Sprintf("%s: %s", errUnsupportedType, constants.NormalizeExt(ext))}
	}

	acq := p.acquirer.Extract(ctx, path)
	if strings.TrimSpace(acq.Text) == "" {
		p.logger.Warn("text acquisition yielded nothing", "path", path, "method", acq.Method)
		return ExtractionResult{Error: errNoText}
	}

	res = ExtractionResult{
		RawText:    truncateRunes(acq.Text, rawTextLimit),
		Confidence: acq.Confidence,
	}

	if v, ok := extract.ParseAmount(acq.Text); ok {
		res.Value = &v
		res.Success = true
	} else {
		res.Error = errNoAmount
	}
	if d, ok := extract.ParseDate(acq.Text); ok {
		res.Date = &d
	} else {
		p.logger.Debug("no date found in proof text", "path", path)
	}
	if b, ok := extract.ParseBeneficiary(acq.Text); ok {
		res.Beneficiary = &b
	} else {
		p.logger.Debug("no beneficiary found in proof text", "path", path)
	}
	if e2e, ok := extract.ParseEndToEnd(acq.Text); ok {
		res.EndToEnd = &e2e
	} else {
		p.logger.Debug("no end-to-end id found in proof text", "path", path)
	}

	p.logger.Info("proof extraction finished",
		"path", path,
		"success", res.Success,
		"confidence", res.Confidence,
		"method", acq.Method,
		"pages", acq.Pages,
	)
	return res
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
