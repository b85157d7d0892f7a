package compute

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/util/labels"
	"github.com/imamik/fleetctl/internal/util/naming"
	"github.com/imamik/fleetctl/internal/util/poll"
)

// ProvisionSharedVolume creates the fleet's shared volume and attaches it
// to the controller. Availability and attachment are separate bounded
// waits.
func (l *Launcher) ProvisionSharedVolume(ctx context.Context, controllerID string, sizeGB int) (fleet.Volume, error) {
	name := naming.SharedVolume(l.Fleet)
	l.Log.Info("Creating shared volume", "name", name, "sizeGB", sizeGB)

	vol, err := l.Cloud.CreateVolume(ctx, provisioning.VolumeSpec{
		Name:     name,
		SizeGB:   sizeGB,
		Location: l.Location,
		Tags:     labels.NewLabelBuilder(l.Fleet).WithName(name).Build(),
	})
	if err != nil {
		return fleet.Volume{}, fmt.Errorf("failed to create volume %s: %w", name, err)
	}

	t := l.Timeouts
	interval, timeout := 2*time.Second, 2*time.Minute
	attachInterval, attachTimeout := 3*time.Second, 2*time.Minute
	if t != nil {
		interval, timeout = t.VolumePoll, t.VolumeAvailable
		attachInterval, attachTimeout = t.VolumeAttachPoll, t.VolumeAttach
	}

	err = poll.Expect(ctx, "volume "+vol.ID+" available", interval, timeout,
		tolerateTransient(l.Log, l.maxConsecutiveErrors(), func(ctx context.Context) (bool, error) {
			l.Metrics.PollEvaluated("volume_available")
			v, err := l.Cloud.DescribeVolume(ctx, vol.ID)
			if err != nil {
				return false, err
			}
			vol = v
			return v.Status == fleet.VolumeAvailable, nil
		}))
	if err != nil {
		return fleet.Volume{}, fmt.Errorf("volume %s: %w", vol.ID, err)
	}

	if err := l.Cloud.AttachVolume(ctx, vol.ID, controllerID); err != nil {
		return fleet.Volume{}, fmt.Errorf("failed to attach volume %s to instance %s: %w", vol.ID, controllerID, err)
	}

	err = poll.Expect(ctx, "volume "+vol.ID+" attached", attachInterval, attachTimeout,
		tolerateTransient(l.Log, l.maxConsecutiveErrors(), func(ctx context.Context) (bool, error) {
			l.Metrics.PollEvaluated("volume_attach")
			v, err := l.Cloud.DescribeVolume(ctx, vol.ID)
			if err != nil {
				return false, err
			}
			vol = v
			return v.AttachedTo == controllerID, nil
		}))
	if err != nil {
		return fleet.Volume{}, fmt.Errorf("volume %s: %w", vol.ID, err)
	}

	l.Log.Info("Shared volume attached", "volume", vol.ID, "instance", controllerID)
	return vol, nil
}
