package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Monetary amount grammar. One alternation so a single non-overlapping scan
// produces the candidates: labeled occurrences ("Valor R$ 143.800,00"), bare
// currency markers, US format, bare Brazilian decimals. Keeping the branches
// in one regex matters — independent per-branch scans would let the US branch
// re-match inside text a Brazilian branch already consumed (the "$" of "R$"
// plus the thousands dot read as a decimal point).
var amountRE = regexp.MustCompile(`(?i)` +
	`(?:(?:valor|value|amount|total|quantia)\s*(?:R\$|BRL|USD|US\$)?\s*(\d{1,3}(?:\.\d{3})*,\d{2}))` +
	`|(?:(?:R\$|BRL)\s*(\d{1,3}(?:\.\d{3})*,\d{2}))` +
	`|(?:(?:US\$|\$)\s*(\d{1,3}(?:,\d{3})*\.\d{2}))` +
	`|\b(\d{1,3}(?:\.\d{3})*,\d{2})\b`)

// Candidates outside this open interval are OCR digit-run garbage or
// document/account numbers, never transacted amounts.
const maxAmount = 10_000_000

// ParseAmount extracts the best-guess transacted amount from proof text.
// Returns the maximum valid candidate found across all patterns: OCR noise
// truncates digits far more often than it fabricates them, so a spuriously
// small reading is the likelier error.
func ParseAmount(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}

	var values []float64
	for _, m := range amountRE.FindAllStringSubmatch(text, -1) {
		raw := ""
		for _, g := range m[1:] {
			if g != "" {
				raw = g
				break
			}
		}
		if raw == "" {
			continue
		}
		v, ok := normalizeAmount(raw)
		if !ok {
			continue
		}
		if v > 0 && v < maxAmount {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, false
	}

	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max, true
}

// normalizeAmount converts a matched number to a float. Brazilian formatting
// uses "." for thousands and "," for decimals: when both appear the dots are
// dropped and the comma becomes the decimal point; a lone comma is the
// decimal point.
func normalizeAmount(raw string) (float64, bool) {
	clean := strings.TrimSpace(raw)
	switch {
	case strings.Contains(clean, ",") && strings.Contains(clean, "."):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ",", ".")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
