package access

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/clusterinfo"
	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/provisioning"
	fakes "github.com/imamik/fleetctl/internal/testing"
)

type tunnelCall struct {
	controller    string
	remote, local int
	prefix        string
}

type fakeTunnels struct {
	calls []tunnelCall
	err   error
}

func (f *fakeTunnels) CreatePersistent(_ context.Context, controller string, remotePort, localPort int, prefix string) error {
	f.calls = append(f.calls, tunnelCall{controller, remotePort, localPort, prefix})
	return f.err
}

func newContext(tunnel config.TunnelConfig) *provisioning.Context {
	ctx := provisioning.NewContext(context.Background(), &config.Config{Tunnel: tunnel}, &config.Definition{Name: "astro"}, fakes.NewFakeCloud())
	ctx.State.ControllerAddress = "192.0.2.1"
	return ctx
}

func TestProvision_RecordsAndOpensTunnel(t *testing.T) {
	dir := t.TempDir()
	store := clusterinfo.NewStore(filepath.Join(dir, "cluster_info.yml"), filepath.Join(dir, "session"))
	tunnels := &fakeTunnels{}
	ctx := newContext(config.TunnelConfig{Enabled: true, RemotePort: 8080, LocalPort: 8080, Prefix: "marathon"})

	p := NewProvisioner(store, tunnels)
	assert.Equal(t, "access", p.Name())
	require.NoError(t, p.Provision(ctx))

	rec, err := store.Read()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "astro", rec.FleetName)
	assert.Equal(t, "192.0.2.1", rec.Controller.IP)

	assert.Equal(t, []tunnelCall{{"192.0.2.1", 8080, 8080, "marathon"}}, tunnels.calls)
}

func TestProvision_TunnelDisabled(t *testing.T) {
	dir := t.TempDir()
	store := clusterinfo.NewStore(filepath.Join(dir, "cluster_info.yml"), filepath.Join(dir, "session"))
	tunnels := &fakeTunnels{}

	require.NoError(t, NewProvisioner(store, tunnels).Provision(newContext(config.TunnelConfig{})))
	assert.Empty(t, tunnels.calls)
}

func TestProvision_TunnelFailure(t *testing.T) {
	dir := t.TempDir()
	store := clusterinfo.NewStore(filepath.Join(dir, "cluster_info.yml"), filepath.Join(dir, "session"))
	tunnels := &fakeTunnels{err: errors.New("exit status 255")}
	ctx := newContext(config.TunnelConfig{Enabled: true, RemotePort: 8080, LocalPort: 8080, Prefix: "marathon"})

	err := NewProvisioner(store, tunnels).Provision(ctx)
	assert.ErrorContains(t, err, "failed to open marathon tunnel")

	rec, readErr := store.Read()
	require.NoError(t, readErr)
	assert.NotNil(t, rec)
}

func TestProvision_RecordFailure(t *testing.T) {
	dir := t.TempDir()
	store := clusterinfo.NewStore(filepath.Join(dir, "cluster_info.yml"), filepath.Join(dir, "session"))
	tunnels := &fakeTunnels{}
	ctx := newContext(config.TunnelConfig{Enabled: true, RemotePort: 8080, LocalPort: 8080})
	ctx.Fleet.Name = ""

	err := NewProvisioner(store, tunnels).Provision(ctx)
	assert.Error(t, err)
	assert.Empty(t, tunnels.calls)
}
