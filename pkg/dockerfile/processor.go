// Package dockerfile checks and rewrites base image references in a
// Dockerfile.
//
// The processor makes one linear pass over the FROM lines. For each line it
// resolves any ${name} placeholders against the ARG declarations in scope,
// asks the registry for newer anchor-compatible tags, and on a hit rewrites
// the line's version text in place. Placeholder-covered substrings of the
// winning tag are written back to their originating ARG defaults in one
// batched pass at the end, so the FROM line itself keeps its placeholder
// syntax verbatim.
package dockerfile

import (
	"context"
	"errors"
	"regexp"

	"github.com/updock-dev/updock/pkg/image"
	"github.com/updock-dev/updock/pkg/log"
	"github.com/updock-dev/updock/pkg/patch"
	"github.com/updock-dev/updock/pkg/registry"
	"github.com/updock-dev/updock/pkg/report"
	"github.com/updock-dev/updock/pkg/tagpattern"
	"github.com/updock-dev/updock/pkg/tagselect"
)

// fromPattern matches base image declarations: FROM repo[:tag] [AS alias].
// Group 1 is the image reference.
var fromPattern = regexp.MustCompile(`(?m)^[ \t]*FROM[ \t]+(?:--platform=\S+[ \t]+)?(\S+)(?:[ \t]+[Aa][Ss][ \t]+\S+)?[ \t]*$`)

// TagLister lists the available tags of a qualified repository.
type TagLister interface {
	Tags(ctx context.Context, repo string) ([]string, error)
}

// Processor checks a Dockerfile buffer for updatable base image tags.
type Processor struct {
	Registry TagLister
	Policies *tagpattern.PolicyTable
	Skip     map[string]bool // qualified repository names to leave alone
}

// tableResolver resolves placeholders against the ARG declarations visible
// at one FROM line's position.
type tableResolver struct {
	table *ArgTable
	pos   int
}

func (r tableResolver) Resolve(name string) (value, key string, err error) {
	value, err = r.table.Get(name, r.pos)
	if err != nil {
		var notFound *ErrArgNotFound
		if errors.As(err, &notFound) {
			return "", "", &tagpattern.UndeclaredPlaceholderError{Name: name}
		}
		return "", "", err
	}
	key, err = r.table.HashOf(name, r.pos)
	if err != nil {
		return "", "", err
	}
	return value, key, nil
}

// Process scans buf and returns the possibly-modified buffer together with
// one change record per updated reference. Per-image failures (undeclared
// placeholders, malformed registry responses) skip that image only; a
// transport failure aborts the run.
func (p *Processor) Process(ctx context.Context, buf []byte) ([]byte, []report.Change, error) {
	table := ScanArgs(buf)

	out := make([]byte, len(buf))
	copy(out, buf)

	var changes []report.Change
	delta := 0 // cumulative length delta of inline edits applied so far

	for _, m := range fromPattern.FindAllSubmatchIndex(buf, -1) {
		ref := string(buf[m[2]:m[3]])
		repo, tag := image.SplitRepoTag(ref)
		if tag == "" {
			log.Debug("FROM line has no version tag, skipping", "ref", ref)
			continue
		}

		qualified := image.QualifyRepoName(repo)
		if p.Skip[qualified] {
			log.Info("repository is skip-listed", "repo", qualified)
			continue
		}

		pos := m[2] + delta // line position in the current buffer
		pats, err := tagpattern.Build(tag, p.Policies.Strict(qualified), tableResolver{table: table, pos: pos})
		if err != nil {
			var undeclared *tagpattern.UndeclaredPlaceholderError
			if errors.As(err, &undeclared) {
				log.Warn("version references undeclared build arg, leaving unchanged",
					"repo", qualified, "placeholder", undeclared.Name)
				continue
			}
			return nil, nil, err
		}

		tags, err := p.Registry.Tags(ctx, qualified)
		if err != nil {
			var malformed *registry.MalformedResponseError
			if errors.As(err, &malformed) {
				log.Warn("malformed registry response, leaving unchanged", "repo", qualified, "error", err)
				continue
			}
			return nil, nil, err
		}

		winner, ok := tagselect.Select(tags, pats.Interpolated, pats)
		if !ok {
			log.Debug("no newer tag", "repo", qualified, "current", pats.Interpolated)
			continue
		}

		newTag, captures, ok := substituteCaptures(winner, pats)
		if !ok {
			log.Warn("winning tag did not round-trip through capture pattern, leaving unchanged",
				"repo", qualified, "tag", winner)
			continue
		}

		// Inline edit of this line's version text. The tag substring
		// starts one byte past the repo:tag separator.
		tagStart := m[2] + len(ref) - len(tag) + delta
		if newTag != tag {
			var applyErr error
			out, applyErr = patch.Apply(out, []patch.Edit{{Offset: tagStart, Length: len(tag), Replacement: newTag}})
			if applyErr != nil {
				return nil, nil, applyErr
			}
			editDelta := len(newTag) - len(tag)
			table.ShiftOffsetsFrom(tagStart, editDelta)
			delta += editDelta
		}

		for key, captured := range captures {
			if err := table.SetByHash(key, captured); err != nil {
				return nil, nil, err
			}
		}

		changes = append(changes, report.Change{Image: qualified, From: pats.Interpolated, To: winner})
		log.Info("updating base image", "repo", qualified, "from", pats.Interpolated, "to", winner)
	}

	// Flush mutated ARG defaults in one batched pass, ascending by value
	// offset.
	var edits []patch.Edit
	for _, param := range table.DirtyParams() {
		edits = append(edits, patch.Edit{
			Offset:      param.ValueOffset,
			Length:      param.ValueLen,
			Replacement: param.Value,
		})
	}
	out, err := patch.Apply(out, edits)
	if err != nil {
		return nil, nil, err
	}
	return out, changes, nil
}

// substituteCaptures builds the text that replaces the FROM line's version:
// the winning tag with every placeholder-covered span folded back into its
// ${name} syntax. It also returns the captured span per correlation key.
func substituteCaptures(winner string, pats *tagpattern.Patterns) (string, map[string]string, bool) {
	if pats.Capture == nil {
		return winner, nil, true
	}

	m := pats.Capture.FindStringSubmatchIndex(winner)
	if m == nil {
		return "", nil, false
	}

	captures := make(map[string]string, len(pats.Placeholders))
	var text []byte
	pos := 0
	for _, ph := range pats.Placeholders {
		idx := pats.Capture.SubexpIndex(ph.Key)
		if idx < 0 || m[2*idx] < 0 {
			return "", nil, false
		}
		start, end := m[2*idx], m[2*idx+1]
		text = append(text, winner[pos:start]...)
		text = append(text, "${"+ph.Name+"}"...)
		captures[ph.Key] = winner[start:end]
		pos = end
	}
	text = append(text, winner[pos:]...)
	return string(text), captures, true
}
