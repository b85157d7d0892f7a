package compute

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/provisioning"
	fakes "github.com/imamik/fleetctl/internal/testing"
)

func newProvisioningContext(cloud provisioning.Cloud, volumeGB int) *provisioning.Context {
	cfg := &config.Config{
		Provider:     config.ProviderConfig{Location: "nbg1"},
		SSH:          config.SSHConfig{KeyName: "fleetctl"},
		SharedVolume: config.SharedVolumeConfig{SizeGB: volumeGB},
	}
	def := &config.Definition{
		Name:       "astro",
		Controller: config.InstanceConfig{ServerType: "cx32", Image: "ubuntu-24.04"},
		WorkerGroups: []config.WorkerGroup{
			{Label: "cpu", ServerType: "cx22", Image: "ubuntu-24.04", Count: 2},
		},
	}
	ctx := provisioning.NewContext(context.Background(), cfg, def, cloud)
	ctx.Timeouts = fastTimeouts()
	return ctx
}

func TestProvisioner_Name(t *testing.T) {
	assert.Equal(t, "compute", NewProvisioner().Name())
}

func TestProvisioner_Provision(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	sgID := cloud.AddSecurityGroup(fleet.SecurityGroup{Name: "astro-sg"})
	ctx := newProvisioningContext(cloud, 20)
	ctx.State.SecurityGroupID = sgID

	require.NoError(t, NewProvisioner().Provision(ctx))

	assert.NotEmpty(t, ctx.State.ControllerID)
	assert.Equal(t, fakes.AddressFor(ctx.State.ControllerID), ctx.State.ControllerAddress)
	assert.NotEmpty(t, ctx.State.VolumeID)
	assert.Len(t, ctx.State.WorkerAddresses["cpu"], 2)
	assert.Len(t, ctx.State.WorkerIDs, 2)

	vol, ok := cloud.Volume(ctx.State.VolumeID)
	require.True(t, ok)
	assert.Equal(t, ctx.State.ControllerID, vol.AttachedTo)

	require.Len(t, cloud.PeerCalls, 1)
	assert.ElementsMatch(t, ctx.State.Addresses(), cloud.PeerCalls[0].Addresses)
	assert.Len(t, cloud.Peers(sgID), 3)

	for _, spec := range cloud.LaunchCalls {
		assert.Equal(t, "nbg1", spec.Location)
	}
}

func TestProvisioner_NoVolumeNoSecurityGroup(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	ctx := newProvisioningContext(cloud, 0)

	require.NoError(t, NewProvisioner().Provision(ctx))
	assert.Empty(t, ctx.State.VolumeID)
	assert.Empty(t, cloud.PeerCalls)
}

func TestProvisioner_ControllerFailureStopsWorkers(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	cloud.LaunchErr = map[string]error{ControllerLabel: errors.New("placement failed")}
	ctx := newProvisioningContext(cloud, 20)

	err := NewProvisioner().Provision(ctx)
	require.Error(t, err)
	assert.Len(t, cloud.LaunchCalls, 1)
}

func TestProvisioner_AllowPeersFailure(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	sgID := cloud.AddSecurityGroup(fleet.SecurityGroup{Name: "astro-sg"})
	cloud.AllowPeersErr = errors.New("invalid rule")
	ctx := newProvisioningContext(cloud, 0)
	ctx.State.SecurityGroupID = sgID

	err := NewProvisioner().Provision(ctx)
	assert.ErrorContains(t, err, "failed to allow traffic between fleet instances")
}
