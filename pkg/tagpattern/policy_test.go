package tagpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicyTable(t *testing.T) {
	testCases := []struct {
		name      string
		overrides string
		wantErr   bool
		strict    map[string]bool
	}{
		{
			name:      "empty string keeps defaults",
			overrides: "",
			strict: map[string]bool{
				"library/ubuntu":  true,
				"library/alpine":  true,
				"library/busybox": false,
				"grafana/grafana": false,
			},
		},
		{
			name:      "bool defaults to strict when omitted",
			overrides: "busybox",
			strict: map[string]bool{
				"library/busybox": true,
			},
		},
		{
			name:      "explicit override takes precedence over builtin",
			overrides: "ubuntu:false,postgres:true",
			strict: map[string]bool{
				"library/ubuntu":   false,
				"library/postgres": true,
				"library/alpine":   true,
			},
		},
		{
			name:      "entries are trimmed and case-insensitive",
			overrides: " BusyBox:true , grafana/grafana ",
			strict: map[string]bool{
				"library/busybox": true,
				"grafana/grafana": true,
			},
		},
		{
			name:      "invalid bool rejected",
			overrides: "busybox:maybe",
			wantErr:   true,
		},
		{
			name:      "empty repository rejected",
			overrides: ":true",
			wantErr:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table, err := NewPolicyTable(tc.overrides)
			if tc.wantErr {
				var parseErr *PolicyParseError
				require.ErrorAs(t, err, &parseErr)
				return
			}
			require.NoError(t, err)
			for repo, want := range tc.strict {
				assert.Equal(t, want, table.Strict(repo), "policy for %s", repo)
			}
		})
	}
}

func TestPolicyTableNilReceiverUsesDefaults(t *testing.T) {
	var table *PolicyTable
	assert.True(t, table.Strict("library/ubuntu"))
	assert.False(t, table.Strict("library/postgres"))
}
