// Package report collects change records and renders the run summary.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Change records one updated image reference.
type Change struct {
	Image string // qualified repository name
	From  string // version before the update
	To    string // version after the update
}

// Section groups the changes of one manifest under a header.
type Section struct {
	Title   string
	Changes []Change
}

// Report is the outcome of one run.
type Report struct {
	Sections []Section
}

// Add appends a section. Sections with no changes are kept so the summary
// still names the manifest that was checked.
func (r *Report) Add(title string, changes []Change) {
	r.Sections = append(r.Sections, Section{Title: title, Changes: changes})
}

// Total returns the number of changes across all sections.
func (r *Report) Total() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Changes)
	}
	return n
}

// Summary renders the human-readable multi-line summary: one header per
// manifest followed by one bullet per change.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, s := range r.Sections {
		if len(s.Changes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s updates:\n", s.Title)
		for _, c := range s.Changes {
			fmt.Fprintf(&b, "  - %s: %s -> %s\n", c.Image, c.From, c.To)
		}
	}
	if b.Len() == 0 {
		return "No updates found.\n"
	}
	return b.String()
}

// EscapeNewlines encodes a multi-line string for single-line transport in
// the GitHub Actions output format. The percent sign must be encoded first.
func EscapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

// WriteGitHubOutput appends the change count and the newline-safe summary
// to the given output file (typically $GITHUB_OUTPUT).
func (r *Report) WriteGitHubOutput(fs afero.Fs, path string) error {
	content := fmt.Sprintf("changes=%d\nsummary=%s\n", r.Total(), EscapeNewlines(r.Summary()))

	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening github output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("writing github output file: %w", err)
	}
	return nil
}
