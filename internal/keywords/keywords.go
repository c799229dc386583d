// Package keywords derives search keywords from company records.
package keywords

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

// minKeywordLength is the minimum rune length of a usable keyword.
const minKeywordLength = 2

// legalForms lists company legal-form suffixes stripped from names to get
// a bare search variant. Multi-word forms come first so they win over
// their embedded shorter forms.
var legalForms = []string{
	"& Co. KGaA",
	"Co. KG",
	"Co.KG",
	"& Co.",
	"& Co",
	"KGaA",
	"GmbH",
	"mbH",
	"e.V.",
	"Ltd.",
	"Ltd",
	"Inc.",
	"Inc",
	"Corp.",
	"Corp",
	"LLC",
	"S.A.",
	"S.L.",
	"B.V.",
	"N.V.",
	"PLC",
	"Pty",
	"OHG",
	"GbR",
	"eG",
	"AG",
	"UG",
	"KG",
	"SE",
}

// Extract returns the ordered unique keywords for a company: the primary
// name, a legal-form-stripped variant, and the official and trading names
// when present and distinct. Entries shorter than two runes and entries
// that are nothing but a legal form are dropped. An empty result means no
// query channel can be built.
func Extract(c domain.Company) []string {
	var raw []string

	name := strings.TrimSpace(c.Name)
	if name != "" {
		raw = append(raw, name)

		if stripped := StripLegalForm(name); stripped != name {
			raw = append(raw, stripped)
		}
	}

	if c.OfficialName != nil {
		raw = append(raw, strings.TrimSpace(*c.OfficialName))
	}
	if c.TradingName != nil {
		raw = append(raw, strings.TrimSpace(*c.TradingName))
	}

	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, len(raw))

	for _, kw := range raw {
		if !usable(kw) {
			continue
		}

		if _, dup := seen[kw]; dup {
			continue
		}

		seen[kw] = struct{}{}
		result = append(result, kw)
	}

	return result
}

// StripLegalForm removes a trailing legal-form suffix from a company name.
// Matching is case-insensitive, anchored at the end of the string, and
// requires a word boundary before the suffix so names like "Montag" keep
// their tail. Returns the input unchanged when no suffix matches.
func StripLegalForm(name string) string {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)

	for _, form := range legalForms {
		suffix := strings.ToLower(form)
		if !strings.HasSuffix(lower, suffix) {
			continue
		}

		idx := len(trimmed) - len(suffix)
		if idx > 0 && !boundaryBefore(trimmed[:idx]) {
			continue
		}

		cut := strings.TrimSpace(trimmed[:idx])
		cut = strings.TrimSuffix(cut, ",")
		return strings.TrimSpace(cut)
	}

	return trimmed
}

// boundaryBefore reports whether the prefix ends in a separator.
func boundaryBefore(prefix string) bool {
	r, _ := utf8.DecodeLastRuneInString(prefix)
	return unicode.IsSpace(r) || r == ','
}

// usable reports whether a keyword is long enough and carries meaning
// beyond a bare legal form.
func usable(kw string) bool {
	if utf8.RuneCountInString(kw) < minKeywordLength {
		return false
	}

	lower := strings.ToLower(kw)
	for _, form := range legalForms {
		if lower == strings.ToLower(form) {
			return false
		}
	}

	return true
}
