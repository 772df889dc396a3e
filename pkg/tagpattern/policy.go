package tagpattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/updock-dev/updock/pkg/image"
)

// Policy anchoring modes. Strict anchors the first two numeric components of
// a version; loose anchors only the first.
const (
	PolicyLoose  = false
	PolicyStrict = true
)

// defaultStrictRepos are repositories whose release lines make the second
// version component significant (an Ubuntu "24.04" must not drift to
// "24.10", an Alpine "3.20" not to "3.21").
var defaultStrictRepos = map[string]bool{
	"library/ubuntu": true,
	"library/alpine": true,
}

// PolicyTable resolves the versioning policy for a qualified repository
// name. Unconfigured repositories fall back to the built-in defaults, then
// to loose.
type PolicyTable struct {
	overrides map[string]bool
}

// NewPolicyTable builds a table from a comma-separated override string of
// the form "repo[:bool],repo2[:bool]". A missing bool means strict.
// Repository names are case-insensitive and qualified before storage.
func NewPolicyTable(overrides string) (*PolicyTable, error) {
	t := &PolicyTable{overrides: make(map[string]bool)}
	for _, entry := range strings.Split(overrides, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		repo := entry
		strict := PolicyStrict
		if idx := strings.LastIndex(entry, ":"); idx >= 0 {
			parsed, err := strconv.ParseBool(entry[idx+1:])
			if err != nil {
				return nil, &PolicyParseError{Entry: entry, Err: fmt.Errorf("bool component: %w", err)}
			}
			repo = entry[:idx]
			strict = parsed
		}
		if repo == "" {
			return nil, &PolicyParseError{Entry: entry, Err: fmt.Errorf("empty repository name")}
		}
		t.overrides[image.QualifyRepoName(repo)] = strict
	}
	return t, nil
}

// Strict reports whether the repository uses strict anchoring. Explicit
// overrides take precedence over built-in defaults; everything else is
// loose.
func (t *PolicyTable) Strict(qualifiedRepo string) bool {
	key := strings.ToLower(qualifiedRepo)
	if t != nil {
		if strict, ok := t.overrides[key]; ok {
			return strict
		}
	}
	return defaultStrictRepos[key]
}
