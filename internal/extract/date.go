package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	reDayFirst  = regexp.MustCompile(`\b(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})\b`)
	reYearFirst = regexp.MustCompile(`\b(\d{4}[/\-]\d{1,2}[/\-]\d{1,2})\b`)
)

type dateCandidate struct {
	pos       int
	raw       string
	yearFirst bool
}

// ParseDate extracts the first parseable date from proof text as an ISO
// YYYY-MM-DD string. Numeric day/month/year candidates are tried in document
// order with day-first disambiguation preferred (Brazilian locale), falling
// back to month-first when the day-first reading is impossible.
func ParseDate(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	var cands []dateCandidate
	for _, loc := range reDayFirst.FindAllStringSubmatchIndex(text, -1) {
		cands = append(cands, dateCandidate{pos: loc[0], raw: text[loc[2]:loc[3]]})
	}
	for _, loc := range reYearFirst.FindAllStringSubmatchIndex(text, -1) {
		cands = append(cands, dateCandidate{pos: loc[0], raw: text[loc[2]:loc[3]], yearFirst: true})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].pos < cands[j].pos })

	for _, c := range cands {
		s := strings.ReplaceAll(c.raw, "-", "/")
		var layouts []string
		if c.yearFirst {
			layouts = []string{"2006/1/2"}
		} else {
			layouts = []string{"2/1/2006", "1/2/2006"}
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}
