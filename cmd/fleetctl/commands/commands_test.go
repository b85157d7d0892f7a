package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name    string
		cmd     *cobra.Command
		args    []string
		wantErr bool
	}{
		{"init needs a definition", Init(), nil, true},
		{"init takes one definition", Init(), []string{"fleet.yml"}, false},
		{"workon needs a name", Workon(), nil, true},
		{"workon takes one name", Workon(), []string{"demo"}, false},
		{"destroy takes no args", Destroy(), []string{"demo"}, true},
		{"info without section", Info(), nil, false},
		{"info with section", Info(), []string{"volume"}, false},
		{"info with unknown section", Info(), []string{"pricing"}, true},
		{"ls without path", Ls(), nil, false},
		{"ls with two paths", Ls(), []string{"a", "b"}, true},
		{"rm needs a path", Rm(), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.ValidateArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDestroy_YesFlag(t *testing.T) {
	cmd := Destroy()

	flag := cmd.Flags().Lookup("yes")
	require.NotNil(t, flag)
	assert.Equal(t, "y", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
	assert.Contains(t, cmd.Long, "WARNING")
}

func TestTunnel_Subcommands(t *testing.T) {
	cmd := Tunnel()

	names := make(map[string]*cobra.Command)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = sub
	}
	require.Contains(t, names, "create")
	require.Contains(t, names, "destroy-all")
	require.Contains(t, names, "node")

	create := names["create"]
	remote := create.Flags().Lookup("remote-port")
	require.NotNil(t, remote)
	_, required := remote.Annotations[cobra.BashCompOneRequiredFlag]
	assert.True(t, required, "remote-port should be required")
	assert.Equal(t, "fleetctl", create.Flags().Lookup("prefix").DefValue)

	assert.Equal(t, "fleetctl", names["destroy-all"].Flags().Lookup("prefix").DefValue)
	assert.Error(t, names["node"].ValidateArgs(nil))
}

func TestSync_Subcommands(t *testing.T) {
	cmd := Sync()

	for _, name := range []string{"put", "get"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
		assert.Error(t, sub.ValidateArgs([]string{"only-one"}))
		assert.NoError(t, sub.ValidateArgs([]string{"a", "b"}))
	}
}
