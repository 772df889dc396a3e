// Package tagselect ranks registry tags and picks the best newer candidate
// for a pinned version.
//
// Ranking is natural, case-insensitive, descending: digit runs compare
// numerically ("1.10.0" ranks above "1.9.9") and everything else compares
// as folded text. This is a string-order heuristic proxy for "newest", not
// a semantic version comparison.
package tagselect

import (
	"sort"
	"unicode"

	"github.com/updock-dev/updock/pkg/tagpattern"
)

// Compare orders a against b naturally and case-insensitively. It returns
// -1, 0, or 1 in the manner of strings.Compare.
func Compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			ia, na := digitRun(a, i)
			ib, nb := digitRun(b, j)
			if c := compareDigitRuns(na, nb); c != 0 {
				return c
			}
			i, j = ia, ib
			continue
		}
		fa := foldByte(ca)
		fb := foldByte(cb)
		if fa != fb {
			if fa < fb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	default:
		return 0
	}
}

// SortDescending sorts tags in place into natural descending order.
func SortDescending(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool { return Compare(tags[i], tags[j]) > 0 })
}

// Select returns the best newer tag for the current version, or ok=false if
// no candidate remains. Tags are ranked descending, filtered through the
// pattern set, and the first survivor wins; a winner equal to the current
// version means there is nothing to update.
func Select(tags []string, current string, pats *tagpattern.Patterns) (winner string, ok bool) {
	ranked := make([]string, len(tags))
	copy(ranked, tags)
	SortDescending(ranked)

	for _, tag := range ranked {
		if !pats.Matches(tag) {
			continue
		}
		if tag == current {
			return "", false
		}
		return tag, true
	}
	return "", false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func foldByte(c byte) byte {
	return byte(unicode.ToLower(rune(c)))
}

// digitRun returns the index just past the digit run starting at i together
// with the run stripped of leading zeros.
func digitRun(s string, i int) (end int, run string) {
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	run = s[start:i]
	for len(run) > 1 && run[0] == '0' {
		run = run[1:]
	}
	return i, run
}

func compareDigitRuns(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
