package report

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	r := &Report{}
	r.Add("Dockerfile", []Change{
		{Image: "library/busybox", From: "1.2.3", To: "1.2.4"},
	})
	r.Add("docker-compose.yml", []Change{
		{Image: "library/postgres", From: "14.1", To: "14.2"},
		{Image: "grafana/grafana", From: "10.1.0", To: "10.4.2"},
	})

	assert.Equal(t, 3, r.Total())

	summary := r.Summary()
	assert.Contains(t, summary, "Dockerfile updates:\n")
	assert.Contains(t, summary, "  - library/busybox: 1.2.3 -> 1.2.4\n")
	assert.Contains(t, summary, "docker-compose.yml updates:\n")
	assert.Contains(t, summary, "  - grafana/grafana: 10.1.0 -> 10.4.2\n")
}

func TestSummaryEmpty(t *testing.T) {
	r := &Report{}
	r.Add("Dockerfile", nil)

	assert.Equal(t, 0, r.Total())
	assert.Equal(t, "No updates found.\n", r.Summary())
}

func TestEscapeNewlines(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "newlines", input: "a\nb\n", expected: "a%0Ab%0A"},
		{name: "carriage returns", input: "a\r\nb", expected: "a%0D%0Ab"},
		{name: "percent escaped first", input: "50%\n", expected: "50%25%0A"},
		{name: "plain text untouched", input: "nothing here", expected: "nothing here"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EscapeNewlines(tc.input))
		})
	}
}

func TestWriteGitHubOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "output.txt", []byte("existing=1\n"), 0o644))

	r := &Report{}
	r.Add("Dockerfile", []Change{{Image: "library/busybox", From: "1.2.3", To: "1.2.4"}})

	require.NoError(t, r.WriteGitHubOutput(fs, "output.txt"))

	content, err := afero.ReadFile(fs, "output.txt")
	require.NoError(t, err)
	assert.Contains(t, string(content), "existing=1\n")
	assert.Contains(t, string(content), "changes=1\n")
	assert.Contains(t, string(content), "summary=Dockerfile updates:%0A  - library/busybox: 1.2.3 -> 1.2.4%0A\n")
}
