package prerequisites

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPath(t *testing.T, found ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		found       []string
		tools       []Tool
		wantErr     string
		wantMissing int
	}{
		{
			name:  "all present",
			found: []string{"ssh", "ansible-playbook"},
			tools: []Tool{SSH(), Playbook("ansible-playbook", true)},
		},
		{
			name:        "required ssh missing",
			found:       []string{"ansible-playbook"},
			tools:       []Tool{SSH(), Playbook("ansible-playbook", true)},
			wantErr:     "missing required tools: ssh (tunnels to the controller)",
			wantMissing: 1,
		},
		{
			name:        "optional playbook missing",
			found:       []string{"ssh"},
			tools:       []Tool{SSH(), Playbook("ansible-playbook", false)},
			wantMissing: 1,
		},
		{
			name:        "both missing",
			tools:       []Tool{SSH(), Playbook("ansible-playbook", true)},
			wantErr:     "missing required tools: ssh (tunnels to the controller), ansible-playbook (remote configuration and file sync)",
			wantMissing: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPath(t, tt.found...)

			res := Check(tt.tools...)
			require.Len(t, res.Results, len(tt.tools))
			assert.Len(t, res.Missing, tt.wantMissing)
			if tt.wantErr == "" {
				assert.False(t, res.HasErrors())
				assert.NoError(t, res.Error())
				return
			}
			assert.True(t, res.HasErrors())
			assert.EqualError(t, res.Error(), tt.wantErr)
		})
	}
}

func TestCheck_RecordsPath(t *testing.T) {
	stubPath(t, "ssh")

	res := Check(SSH())
	require.Len(t, res.Results, 1)
	assert.True(t, res.Results[0].Found)
	assert.Equal(t, "/usr/bin/ssh", res.Results[0].Path)
}
