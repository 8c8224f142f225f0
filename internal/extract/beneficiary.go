package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// "Favorecido Nome: JOAO DA SILVA CPF ..." — the capture stops at the next
	// known field label so identifiers do not leak into the name.
	reFavorecido = regexp.MustCompile(`(?i)Favorecido\s+Nome\s*[:\-]?\s*([A-Z][A-Za-z0-9.\s\-&]+?)\s+(?:CPF|CNPJ|Institui|Chave|Conta|Data)`)
	// generic "Beneficiário: NOME" / "Para: NOME"
	reBeneficiario = regexp.MustCompile(`(?i)(?:Benefici[áa]rio|Para)\s*[:\-]?\s*([A-Z][A-Za-z0-9.\s\-&]{2,80})`)

	reSpaces = regexp.MustCompile(`\s+`)
	// field labels OCR sometimes drags onto the end of the captured name
	reTrailingLabel = regexp.MustCompile(`(?i)\s+(?:CNPJ|CPF|Valor|R\$|Data|Conta|Ag[êe]ncia)\s*$`)
)

// ParseBeneficiary extracts the counterparty name from proof text. Captured
// names are whitespace-collapsed and stripped of trailing field labels;
// anything of 3 runes or fewer after cleaning is discarded as noise.
func ParseBeneficiary(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, re := range []*regexp.Regexp{reFavorecido, reBeneficiario} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if name, ok := cleanName(m[1]); ok {
			return name, true
		}
	}
	return "", false
}

func cleanName(raw string) (string, bool) {
	cleaned := strings.TrimSpace(reSpaces.ReplaceAllString(raw, " "))
	for {
		next := reTrailingLabel.ReplaceAllString(cleaned, "")
		if next == cleaned {
			break
		}
		cleaned = next
	}
	if utf8.RuneCountInString(cleaned) <= 3 {
		return "", false
	}
	return cleaned, true
}
