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
	"github.com/imamik/fleetctl/internal/util/labels"
)

func TestLaunchController(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	l := newTestLauncher(cloud)

	h, err := l.LaunchController(context.Background(), config.InstanceConfig{ServerType: "cx32", Image: "ubuntu-24.04"})
	require.NoError(t, err)
	assert.Equal(t, fleet.LaunchTagged, h.State)
	assert.Equal(t, fakes.AddressFor(h.ID), h.Address)

	require.Len(t, cloud.LaunchCalls, 1)
	assert.Equal(t, []string{"astro-controller"}, cloud.LaunchCalls[0].Names)
	assert.Equal(t, "cx32", cloud.LaunchCalls[0].InstanceType)

	inst, ok := cloud.Instance(h.ID)
	require.True(t, ok)
	assert.Equal(t, labels.RoleController, inst.Tags[labels.KeyRole])
	assert.Equal(t, "astro", inst.Tags[labels.KeyFleet])
	assert.NotContains(t, inst.Tags, labels.KeyGroup)
}

func TestLaunchWorkerGroups(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	l := newTestLauncher(cloud)

	result, err := l.LaunchWorkerGroups(context.Background(), []config.WorkerGroup{
		{Label: "cpu", ServerType: "cx22", Image: "ubuntu-24.04", Count: 3},
		{Label: "gpu", ServerType: "ccx33", Image: "ubuntu-24.04", Count: 2},
	})
	require.NoError(t, err)

	assert.Len(t, result.Addresses["cpu"], 3)
	assert.Len(t, result.Addresses["gpu"], 2)
	assert.Len(t, result.IDs(), 5)

	require.Len(t, cloud.LaunchCalls, 2)
	byGroup := map[string]provisioning.LaunchSpec{}
	for _, spec := range cloud.LaunchCalls {
		byGroup[spec.Group] = spec
	}
	assert.Equal(t, []string{"astro-node-cpu-1", "astro-node-cpu-2", "astro-node-cpu-3"}, byGroup["cpu"].Names)
	assert.Equal(t, "ccx33", byGroup["gpu"].InstanceType)

	assert.Len(t, cloud.TagCalls, 5)
	for _, h := range result.Instances {
		inst, _ := cloud.Instance(h.ID)
		assert.Equal(t, h.Group, inst.Tags[labels.KeyGroup])
	}
}

func TestLaunchWorkerGroups_RequestFailureSkipsWait(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	cloud.LaunchErr = map[string]error{"gpu": errors.New("server type unavailable")}
	l := newTestLauncher(cloud)

	_, err := l.LaunchWorkerGroups(context.Background(), []config.WorkerGroup{
		{Label: "cpu", Count: 1},
		{Label: "gpu", Count: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group-gpu")
	assert.Empty(t, cloud.DescribeCalls)
	assert.Empty(t, cloud.TagCalls)
}

func TestLaunchWorkerGroups_OneGroupFailsWholeBatch(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	cloud.Script = func(spec provisioning.LaunchSpec, _ int, id string) []fakes.Step {
		if spec.Group == "gpu" {
			return []fakes.Step{{State: fleet.StateStopping}}
		}
		return []fakes.Step{{State: fleet.StateRunning, Address: fakes.AddressFor(id)}}
	}
	l := newTestLauncher(cloud)

	_, err := l.LaunchWorkerGroups(context.Background(), []config.WorkerGroup{
		{Label: "cpu", Count: 2},
		{Label: "gpu", Count: 1},
	})
	assert.ErrorIs(t, err, fleet.ErrProviderTerminal)
	assert.Empty(t, cloud.TagCalls)
}

func TestLaunchWorkerGroups_None(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	l := newTestLauncher(cloud)

	result, err := l.LaunchWorkerGroups(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Instances)
	assert.Empty(t, cloud.LaunchCalls)
}
