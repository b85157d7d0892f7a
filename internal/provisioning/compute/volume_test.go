package compute

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetctl/internal/fleet"
	fakes "github.com/imamik/fleetctl/internal/testing"
	"github.com/imamik/fleetctl/internal/util/labels"
)

func TestProvisionSharedVolume(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	cloud.VolumeCreatingPolls = 2
	cloud.AttachPolls = 2
	controllerID := cloud.AddInstance(fleet.Instance{State: fleet.StateRunning})
	l := newTestLauncher(cloud)

	vol, err := l.ProvisionSharedVolume(context.Background(), controllerID, 50)
	require.NoError(t, err)
	assert.Equal(t, "astro-shared", vol.Name)
	assert.Equal(t, fleet.VolumeAvailable, vol.Status)
	assert.Equal(t, controllerID, vol.AttachedTo)
	assert.Equal(t, "astro", vol.Tags[labels.KeyFleet])

	require.Len(t, cloud.AttachCalls, 1)
	assert.Equal(t, [2]string{vol.ID, controllerID}, cloud.AttachCalls[0])
	// 3 describes until available, then 3 until attached.
	assert.Equal(t, 6, cloud.VolumeDescribes)
}

func TestProvisionSharedVolume_NeverAvailable(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	cloud.VolumeCreatingPolls = 1 << 30
	l := newTestLauncher(cloud)
	l.Timeouts.VolumeAvailable = 10 * l.Timeouts.VolumePoll

	_, err := l.ProvisionSharedVolume(context.Background(), "1", 10)
	assert.ErrorIs(t, err, fleet.ErrTimeout)
	assert.Empty(t, cloud.AttachCalls)
}

func TestProvisionSharedVolume_AttachError(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	cloud.AttachErr = errors.New("server locked")
	l := newTestLauncher(cloud)

	_, err := l.ProvisionSharedVolume(context.Background(), "9", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to instance 9")
}

func TestProvisionSharedVolume_CreateError(t *testing.T) {
	cloud := fakes.NewFakeCloud()
	cloud.CreateVolumeErr = errors.New("quota exceeded")
	l := newTestLauncher(cloud)

	_, err := l.ProvisionSharedVolume(context.Background(), "9", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create volume astro-shared")
	assert.Zero(t, cloud.VolumeDescribes)
}
