package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/updock-dev/updock/pkg/registry"
	"github.com/updock-dev/updock/pkg/tagpattern"
)

type fakeRegistry struct {
	tags map[string][]string
	errs map[string]error
}

func (f *fakeRegistry) Tags(_ context.Context, repo string) ([]string, error) {
	if err, ok := f.errs[repo]; ok {
		return nil, err
	}
	tags, ok := f.tags[repo]
	if !ok {
		return nil, &registry.MalformedResponseError{Repo: repo, Field: "tags"}
	}
	return tags, nil
}

func mustPolicies(t *testing.T, overrides string) *tagpattern.PolicyTable {
	t.Helper()
	policies, err := tagpattern.NewPolicyTable(overrides)
	require.NoError(t, err)
	return policies
}

const composeDoc = `services:
  db:
    image: postgres:14.1
    environment:
      POSTGRES_PASSWORD: secret # not an image
  web:
    image: "nginx:1.25.3"
`

func TestProcessPreservesEveryOtherByte(t *testing.T) {
	reg := &fakeRegistry{tags: map[string][]string{
		"library/postgres": {"14.1", "14.2", "15.0"},
		"library/nginx":    {"1.25.3", "1.25.4", "1.27.0"},
	}}

	p := &Processor{Registry: reg, Policies: mustPolicies(t, "")}
	out, changes, err := p.Process(context.Background(), []byte(composeDoc))
	require.NoError(t, err)

	expected := `services:
  db:
    image: postgres:14.2
    environment:
      POSTGRES_PASSWORD: secret # not an image
  web:
    image: "nginx:1.27.0"
`
	assert.Equal(t, expected, string(out))
	require.Len(t, changes, 2)
	assert.Equal(t, "library/postgres", changes[0].Image)
	assert.Equal(t, "14.1", changes[0].From)
	assert.Equal(t, "14.2", changes[0].To)
	assert.Equal(t, "library/nginx", changes[1].Image)
	assert.Equal(t, "1.27.0", changes[1].To)
}

func TestProcessLeadingWhitespacePreserved(t *testing.T) {
	buf := []byte("    image: postgres:14.1\n")
	reg := &fakeRegistry{tags: map[string][]string{
		"library/postgres": {"14.1", "14.2", "15.0"},
	}}

	p := &Processor{Registry: reg, Policies: mustPolicies(t, "")}
	out, _, err := p.Process(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, "    image: postgres:14.2\n", string(out))
}

func TestProcessSkipListedImage(t *testing.T) {
	buf := []byte("services:\n  db:\n    image: postgres:14.1\n")
	reg := &fakeRegistry{tags: map[string][]string{
		"library/postgres": {"14.1", "14.2", "15.0"},
	}}

	p := &Processor{
		Registry: reg,
		Policies: mustPolicies(t, ""),
		Skip:     map[string]bool{"library/postgres": true},
	}
	out, changes, err := p.Process(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, string(buf), string(out))
	assert.Empty(t, changes)
}

func TestProcessInterpolatedTagSkipped(t *testing.T) {
	buf := []byte("services:\n  db:\n    image: postgres:${PG_TAG}\n")
	reg := &fakeRegistry{}

	p := &Processor{Registry: reg, Policies: mustPolicies(t, "")}
	out, changes, err := p.Process(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, string(buf), string(out))
	assert.Empty(t, changes)
}

func TestProcessMalformedRegistryResponseSkipsImage(t *testing.T) {
	buf := []byte("services:\n  a:\n    image: broken:1.0.0\n  b:\n    image: postgres:14.1\n")
	reg := &fakeRegistry{
		tags: map[string][]string{"library/postgres": {"14.1", "14.2"}},
		errs: map[string]error{"library/broken": &registry.MalformedResponseError{Repo: "library/broken", Field: "tags"}},
	}

	p := &Processor{Registry: reg, Policies: mustPolicies(t, "")}
	out, changes, err := p.Process(context.Background(), buf)
	require.NoError(t, err)

	assert.Contains(t, string(out), "broken:1.0.0")
	assert.Contains(t, string(out), "postgres:14.2")
	require.Len(t, changes, 1)
}

func TestProcessTransportErrorIsFatal(t *testing.T) {
	buf := []byte("services:\n  db:\n    image: postgres:14.1\n")
	reg := &fakeRegistry{errs: map[string]error{
		"library/postgres": &registry.TransportError{Repo: "library/postgres", Op: "authenticate"},
	}}

	p := &Processor{Registry: reg, Policies: mustPolicies(t, "")}
	_, _, err := p.Process(context.Background(), buf)

	var transport *registry.TransportError
	require.ErrorAs(t, err, &transport)
}

func TestProcessInvalidYAML(t *testing.T) {
	buf := []byte("services:\n\t\tbroken: [unclosed\n")
	reg := &fakeRegistry{}

	p := &Processor{Registry: reg, Policies: mustPolicies(t, "")}
	_, _, err := p.Process(context.Background(), buf)

	require.ErrorIs(t, err, ErrNotYAML)
}

func TestProcessIdempotent(t *testing.T) {
	buf := []byte("services:\n  db:\n    image: postgres:14.1\n")
	reg := &fakeRegistry{tags: map[string][]string{
		"library/postgres": {"14.1", "14.2", "15.0"},
	}}

	p := &Processor{Registry: reg, Policies: mustPolicies(t, "")}

	once, changes, err := p.Process(context.Background(), buf)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	twice, changes, err := p.Process(context.Background(), once)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, string(once), string(twice))
}
