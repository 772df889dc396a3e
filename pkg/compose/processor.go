// Package compose checks and rewrites service image tags in a
// docker-compose file.
//
// The file is treated as bytes, not as a YAML document tree: only the
// matched tag substrings change and every other byte, including
// indentation and comments, is preserved exactly. The buffer is still
// validated as parseable YAML first so a malformed file is reported
// instead of rewritten.
package compose

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/updock-dev/updock/pkg/image"
	"github.com/updock-dev/updock/pkg/log"
	"github.com/updock-dev/updock/pkg/patch"
	"github.com/updock-dev/updock/pkg/registry"
	"github.com/updock-dev/updock/pkg/report"
	"github.com/updock-dev/updock/pkg/tagpattern"
	"github.com/updock-dev/updock/pkg/tagselect"
)

// imagePattern matches "image: repo:tag" lines at arbitrary indentation,
// with or without quotes. Group 1 is the image reference.
var imagePattern = regexp.MustCompile(`(?m)^[ \t]*image:[ \t]*["']?([^\s"'#]+)["']?[ \t]*$`)

// ErrNotYAML indicates the compose buffer is not parseable YAML and was
// left untouched.
var ErrNotYAML = errors.New("compose file is not valid YAML")

// TagLister lists the available tags of a qualified repository.
type TagLister interface {
	Tags(ctx context.Context, repo string) ([]string, error)
}

// Processor checks a compose buffer for updatable service image tags.
type Processor struct {
	Registry TagLister
	Policies *tagpattern.PolicyTable
	Skip     map[string]bool
}

// Process scans buf and returns the possibly-modified buffer together with
// one change record per updated reference. All replacements use positions
// from the original single-pass match and are applied together at the end.
func (p *Processor) Process(ctx context.Context, buf []byte) ([]byte, []report.Change, error) {
	var doc any
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, nil, ErrNotYAML
	}

	var (
		edits   []patch.Edit
		changes []report.Change
	)

	for _, m := range imagePattern.FindAllSubmatchIndex(buf, -1) {
		ref := string(buf[m[2]:m[3]])
		repo, tag := image.SplitRepoTag(ref)
		if tag == "" {
			log.Debug("image line has no version tag, skipping", "ref", ref)
			continue
		}
		if strings.Contains(tag, "$") {
			// Compose interpolation happens outside this file's bytes;
			// such a reference cannot be parsed with confidence.
			log.Debug("image tag contains interpolation, skipping", "ref", ref)
			continue
		}

		qualified := image.QualifyRepoName(repo)
		if p.Skip[qualified] {
			log.Info("repository is skip-listed", "repo", qualified)
			continue
		}

		pats, err := tagpattern.Build(tag, p.Policies.Strict(qualified), nil)
		if err != nil {
			log.Warn("building tag pattern failed, leaving unchanged", "repo", qualified, "error", err)
			continue
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

		winner, ok := tagselect.Select(tags, tag, pats)
		if !ok {
			log.Debug("no newer tag", "repo", qualified, "current", tag)
			continue
		}

		tagStart := m[2] + len(ref) - len(tag)
		edits = append(edits, patch.Edit{Offset: tagStart, Length: len(tag), Replacement: winner})
		changes = append(changes, report.Change{Image: qualified, From: tag, To: winner})
		log.Info("updating service image", "repo", qualified, "from", tag, "to", winner)
	}

	out, err := patch.Apply(buf, edits)
	if err != nil {
		return nil, nil, err
	}
	return out, changes, nil
}
