package tunnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpec_Args(t *testing.T) {
	s := Spec{
		Host:       "203.0.113.10",
		User:       "root",
		KeyPath:    "/home/me/.fleetctl/id_rsa",
		Socket:     "/state/session/fleetctl_tunnel_8080.sock",
		LocalPort:  8080,
		RemotePort: 8081,
	}

	assert.Equal(t, []string{
		"-i", "/home/me/.fleetctl/id_rsa",
		"-f", "-N", "-M",
		"-S", "/state/session/fleetctl_tunnel_8080.sock",
		"-o", "ExitOnForwardFailure=yes",
		"-o", "StrictHostKeyChecking=no",
		"root@203.0.113.10",
		"-L", "8080:127.0.0.1:8081",
	}, s.CreateArgs())
	assert.Equal(t, []string{"-S", "/state/session/fleetctl_tunnel_8080.sock", "-O", "exit", "root@203.0.113.10"}, s.ExitArgs())
	assert.Equal(t, []string{"-S", "/state/session/fleetctl_tunnel_8080.sock", "-O", "check", "root@203.0.113.10"}, s.CheckArgs())
}

func TestSpec_CreateArgsWithoutKeyOrUser(t *testing.T) {
	s := Spec{Host: "h", Socket: "s", LocalPort: 1, RemotePort: 2}

	args := s.CreateArgs()
	assert.NotContains(t, args, "-i")
	assert.Equal(t, "h", s.Target())
}

func TestSpec_SocketWithSpacesStaysOneArgument(t *testing.T) {
	s := Spec{Host: "h", Socket: "/tmp/my dir/x.sock", LocalPort: 1, RemotePort: 2}

	assert.Contains(t, s.ExitArgs(), "/tmp/my dir/x.sock")
}

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr string
	}{
		{name: "valid", spec: Spec{Host: "h", Socket: "s", LocalPort: 80, RemotePort: 8080}},
		{name: "missing host", spec: Spec{Socket: "s", LocalPort: 80, RemotePort: 80}, wantErr: "host is required"},
		{name: "missing socket", spec: Spec{Host: "h", LocalPort: 80, RemotePort: 80}, wantErr: "socket path is required"},
		{name: "local port zero", spec: Spec{Host: "h", Socket: "s", RemotePort: 80}, wantErr: "invalid local port 0"},
		{name: "remote port too large", spec: Spec{Host: "h", Socket: "s", LocalPort: 80, RemotePort: 70000}, wantErr: "invalid remote port 70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
