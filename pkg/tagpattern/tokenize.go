package tagpattern

import "regexp"

// A version string is tokenized into alternating literal and numeric-dotted
// runs. A numeric-dotted run is two or more dot-separated digit groups
// ("1.2.3", "3.18"); a lone digit group counts only at the very start of the
// version string, where it acts as an anchor with a single component
// ("3-alpine"). Digit groups embedded elsewhere ("alpine3", "-fpm2") remain
// part of their literal run.
type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenNumeric
)

type token struct {
	kind tokenKind
	text string
}

var (
	numericRunPattern  = regexp.MustCompile(`\d+(?:\.\d+)+`)
	leadingDigitsPattern = regexp.MustCompile(`^\d+`)
)

// tokenize splits s into literal and numeric-dotted tokens. atStart reports
// whether s begins at position zero of the full version string; only then
// may a lone leading digit group form a numeric token.
func tokenize(s string, atStart bool) []token {
	if s == "" {
		return nil
	}

	var tokens []token
	pos := 0

	runs := numericRunPattern.FindAllStringIndex(s, -1)

	// Lone leading digit group not covered by a multi-group run.
	if atStart && (len(runs) == 0 || runs[0][0] != 0) {
		if m := leadingDigitsPattern.FindString(s); m != "" {
			tokens = append(tokens, token{kind: tokenNumeric, text: m})
			pos = len(m)
		}
	}

	for _, run := range runs {
		if run[0] < pos {
			continue
		}
		if run[0] > pos {
			tokens = append(tokens, token{kind: tokenLiteral, text: s[pos:run[0]]})
		}
		tokens = append(tokens, token{kind: tokenNumeric, text: s[run[0]:run[1]]})
		pos = run[1]
	}
	if pos < len(s) {
		tokens = append(tokens, token{kind: tokenLiteral, text: s[pos:]})
	}
	return tokens
}
