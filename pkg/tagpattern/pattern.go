// Package tagpattern builds regular expressions from version strings.
//
// Given a pinned version like "1.2.3-alpine3.18" it produces an anchored
// candidate-test pattern that admits registry tags sharing the version's
// anchor (the leading fixed components) while allowing everything after the
// anchor boundary to vary. For Dockerfile versions containing ${name}
// placeholders it additionally produces an update-and-capture pattern whose
// named groups recover which substrings of a winning tag belong to which
// build variable.
package tagpattern

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches ${name} references inside a version string.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Resolver supplies values for ${name} placeholders and the correlation key
// used to name the capture group for each one. Resolution happens against
// the variable declarations visible at the version string's position in the
// manifest.
type Resolver interface {
	// Resolve returns the placeholder's current value and its correlation
	// key. A *UndeclaredPlaceholderError is returned for unknown names.
	Resolve(name string) (value, key string, err error)
}

// Placeholder records one ${name} occurrence, in order of appearance.
type Placeholder struct {
	Name string // variable name as written
	Key  string // capture group name in the update-and-capture pattern
}

// Patterns holds the compiled patterns for one version string.
type Patterns struct {
	// Interpolated is the version with placeholders expanded, used for
	// comparison against registry tags.
	Interpolated string
	// Candidate is the anchored candidate-test pattern.
	Candidate *regexp.Regexp
	// Capture is the update-and-capture pattern; nil when the version
	// contains no placeholders.
	Capture *regexp.Regexp
	// Placeholders are the ${name} occurrences, in order.
	Placeholders []Placeholder
}

// Matches reports whether tag is anchor-compatible with the version this
// pattern set was built from. When a capture pattern exists the tag must
// satisfy it as well, otherwise its placeholder substrings could not be
// recovered.
func (p *Patterns) Matches(tag string) bool {
	if !p.Candidate.MatchString(tag) {
		return false
	}
	if p.Capture != nil && !p.Capture.MatchString(tag) {
		return false
	}
	return true
}

// Build constructs the pattern set for version under the given anchoring
// policy. res may be nil for versions that cannot contain placeholders
// (compose tags); a placeholder encountered with a nil resolver is reported
// as undeclared.
func Build(version string, strict bool, res Resolver) (*Patterns, error) {
	p := &Patterns{}

	var interpolated, candidate, capture strings.Builder
	anchorDone := false
	pos := 0

	appendSegment := func(text string, atStart bool) {
		interpolated.WriteString(text)
		seg := segmentPattern(text, strict, atStart, &anchorDone)
		candidate.WriteString(seg)
		capture.WriteString(seg)
	}

	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(version, -1) {
		if loc[0] > pos {
			appendSegment(version[pos:loc[0]], pos == 0)
		}
		name := version[loc[2]:loc[3]]
		if res == nil {
			return nil, &UndeclaredPlaceholderError{Name: name}
		}
		value, key, err := res.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("resolving version placeholders: %w", err)
		}

		interpolated.WriteString(value)
		seg := segmentPattern(value, strict, loc[0] == 0, &anchorDone)
		candidate.WriteString(seg)
		fmt.Fprintf(&capture, "(?P<%s>%s)", key, seg)
		p.Placeholders = append(p.Placeholders, Placeholder{Name: name, Key: key})
		pos = loc[1]
	}
	if pos < len(version) {
		appendSegment(version[pos:], pos == 0)
	}

	p.Interpolated = interpolated.String()

	var err error
	p.Candidate, err = regexp.Compile("^" + candidate.String() + "$")
	if err != nil {
		return nil, fmt.Errorf("compiling candidate pattern for %q: %w", version, err)
	}
	if len(p.Placeholders) > 0 {
		p.Capture, err = regexp.Compile("^" + capture.String() + "$")
		if err != nil {
			return nil, fmt.Errorf("compiling capture pattern for %q: %w", version, err)
		}
	}
	return p, nil
}

// segmentPattern converts one segment of the interpolated version into its
// regex fragment, advancing the anchor state across segments. The first
// numeric token overall is the anchor: it keeps one fixed component under
// loose anchoring, two under strict. Every later numeric token keeps its
// first component and wildcards the rest.
func segmentPattern(text string, strict bool, atStart bool, anchorDone *bool) string {
	var b strings.Builder
	for _, tok := range tokenize(text, atStart) {
		if tok.kind == tokenLiteral {
			b.WriteString(regexp.QuoteMeta(tok.text))
			continue
		}
		width := 1
		if !*anchorDone && strict {
			width = 2
		}
		*anchorDone = true
		b.WriteString(numericTokenPattern(tok.text, width))
	}
	return b.String()
}

// numericTokenPattern fixes the first width components of a dotted numeric
// run and wildcards the remainder with an open-ended digits-and-dots
// pattern. A run with fewer components than width is fixed entirely.
func numericTokenPattern(run string, width int) string {
	components := strings.Split(run, ".")
	if width > len(components) {
		width = len(components)
	}
	fixed := strings.Join(components[:width], ".")
	return regexp.QuoteMeta(fixed) + `(?:\.[0-9][0-9.]*)?`
}
