package extract

import (
	"regexp"
	"strings"
)

var (
	// PIX end-to-end identifier: E + ISPB digits + timestamp/sequence tail
	rePixID = regexp.MustCompile(`\b(E\d{11,20}[a-zA-Z0-9]{10,20})\b`)
	// explicitly labeled transaction id
	reLabeledID = regexp.MustCompile(`(?i)(?:id\s*(?:da\s*)?transa[çc][ãa]o|end\s*to\s*end|endtoend|e2e)\s*[:\-]?\s*([A-Za-z0-9]{15,50})`)
)

const minEndToEndLen = 15

// ParseEndToEnd extracts the PIX end-to-end transaction identifier from proof
// text. Candidates shorter than 15 characters are discarded; among the rest a
// candidate starting with 'E' is preferred (the PIX wire format), otherwise
// the first one wins. The result is upper-cased for canonical storage.
func ParseEndToEnd(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	var candidates []string
	for _, re := range []*regexp.Regexp{rePixID, reLabeledID} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			c := strings.TrimSpace(m[1])
			if len(c) >= minEndToEndLen {
				candidates = append(candidates, c)
			}
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	for _, c := range candidates {
		if strings.HasPrefix(strings.ToUpper(c), "E") {
			return strings.ToUpper(c), true
		}
	}
	return strings.ToUpper(candidates[0]), true
}
