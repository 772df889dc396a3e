// Package image handles parsing and normalization of container image
// references found in Dockerfiles and compose files.
//
// The qualified repository name ("library/busybox", "grafana/grafana") is the
// key used for registry lookups, skip lists, and versioning policy
// resolution; every code path that touches a repository name goes through
// QualifyRepoName first so all of those agree on spelling.
package image

import (
	"strings"

	distref "github.com/distribution/reference"

	"github.com/updock-dev/updock/pkg/log"
)

const (
	// DefaultRegistry is the registry assumed when none is specified.
	DefaultRegistry = "docker.io"
	// OfficialNamespace is the namespace for official Docker images.
	OfficialNamespace = "library"
	// TagSeparator separates the repository name from the tag.
	TagSeparator = ":"
)

// Reference is one image reference pulled out of a manifest line.
type Reference struct {
	Original   string // the exact text found in the manifest
	Repository string // qualified repository name (namespace/name)
	Tag        string // version tag, possibly containing ${VAR} placeholders
}

// String reassembles the reference in repo:tag form.
func (r *Reference) String() string {
	if r.Tag == "" {
		return r.Repository
	}
	return r.Repository + TagSeparator + r.Tag
}

// QualifyRepoName normalizes a repository name into its qualified form.
// Bare official names gain the "library/" namespace ("busybox" becomes
// "library/busybox"); names already carrying a namespace are returned
// lowercased but otherwise untouched.
//
// Names that the distribution reference grammar rejects are returned
// as-is after lowercasing; the registry will reject them later with a
// recoverable per-image error, which is preferable to aborting the scan.
func QualifyRepoName(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return trimmed
	}

	named, err := distref.ParseNormalizedNamed(trimmed)
	if err != nil {
		log.Debug("repository name failed normalized parse, using raw form", "name", trimmed, "error", err)
		if !strings.Contains(trimmed, "/") {
			return OfficialNamespace + "/" + trimmed
		}
		return trimmed
	}

	// Path strips the registry domain, leaving namespace/name. For
	// docker.io official images the library namespace is already applied.
	return distref.Path(named)
}

// ParseSkipList parses a comma-separated, case-insensitive list of
// repository names into a set keyed by qualified name.
func ParseSkipList(s string) map[string]bool {
	skip := make(map[string]bool)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		skip[QualifyRepoName(entry)] = true
	}
	return skip
}

// SplitRepoTag splits "repo:tag" on the last colon. A reference without a
// tag returns an empty tag; the caller decides whether that is usable.
// A colon that belongs to a registry port ("localhost:5000/app") is not
// treated as a tag separator.
func SplitRepoTag(ref string) (repo, tag string) {
	idx := strings.LastIndex(ref, TagSeparator)
	if idx < 0 || strings.Contains(ref[idx+1:], "/") {
		return ref, ""
	}
	return ref[:idx], ref[idx+1:]
}
