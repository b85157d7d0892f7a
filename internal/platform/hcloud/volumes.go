package hcloud

import (
	"context"
	"fmt"
	"maps"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/provisioning"
)

// volumeFormat is the filesystem Hetzner formats new volumes with.
const volumeFormat = "ext4"

// CreateVolume requests a formatted volume. It returns before the volume is
// available.
func (c *RealClient) CreateVolume(ctx context.Context, spec provisioning.VolumeSpec) (fleet.Volume, error) {
	opts := hcloud.VolumeCreateOpts{
		Name:   spec.Name,
		Size:   spec.SizeGB,
		Labels: maps.Clone(spec.Tags),
		Format: hcloud.Ptr(volumeFormat),
	}
	if spec.Location != "" {
		opts.Location = &hcloud.Location{Name: spec.Location}
	}

	res, _, err := c.client.Volume.Create(ctx, opts)
	if err != nil {
		return fleet.Volume{}, fmt.Errorf("failed to create volume %s: %w", spec.Name, err)
	}
	return toVolume(res.Volume), nil
}

// DescribeVolume reports a volume's status and attachment.
func (c *RealClient) DescribeVolume(ctx context.Context, id string) (fleet.Volume, error) {
	n, err := parseID("volume", id)
	if err != nil {
		return fleet.Volume{}, err
	}
	vol, _, err := c.client.Volume.GetByID(ctx, n)
	if err != nil {
		return fleet.Volume{}, fmt.Errorf("failed to describe volume %s: %w", id, err)
	}
	if vol == nil {
		return fleet.Volume{}, notFound("volume", id)
	}
	return toVolume(vol), nil
}

// AttachVolume requests attachment without waiting for it to complete.
func (c *RealClient) AttachVolume(ctx context.Context, volumeID, instanceID string) error {
	vid, err := parseID("volume", volumeID)
	if err != nil {
		return err
	}
	sid, err := parseID("server", instanceID)
	if err != nil {
		return err
	}
	if _, _, err := c.client.Volume.Attach(ctx, &hcloud.Volume{ID: vid}, &hcloud.Server{ID: sid}); err != nil {
		return fmt.Errorf("failed to attach volume %s to server %s: %w", volumeID, instanceID, err)
	}
	return nil
}

// ListVolumes returns volumes carrying every tag.
func (c *RealClient) ListVolumes(ctx context.Context, tags map[string]string) ([]fleet.Volume, error) {
	vols, err := c.client.Volume.AllWithOpts(ctx, hcloud.VolumeListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector(tags)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}
	out := make([]fleet.Volume, 0, len(vols))
	for _, v := range vols {
		out = append(out, toVolume(v))
	}
	return out, nil
}

// DeleteVolume deletes a volume, retrying while it is still attached to a
// deleting server.
func (c *RealClient) DeleteVolume(ctx context.Context, id string) error {
	n, err := parseID("volume", id)
	if err != nil {
		return err
	}
	return (&DeleteOperation[*hcloud.Volume]{
		ID:           n,
		ResourceType: "volume",
		Get:          c.client.Volume.GetByID,
		Delete: func(ctx context.Context, v *hcloud.Volume) error {
			_, err := c.client.Volume.Delete(ctx, v)
			return err
		},
		Exists: func(v *hcloud.Volume) bool { return v != nil },
	}).Execute(ctx, c)
}

func toVolume(v *hcloud.Volume) fleet.Volume {
	vol := fleet.Volume{
		ID:     formatID(v.ID),
		Name:   v.Name,
		SizeGB: v.Size,
		Status: fleet.VolumeCreating,
		Tags:   maps.Clone(v.Labels),
	}
	if v.Status == hcloud.VolumeStatusAvailable {
		vol.Status = fleet.VolumeAvailable
	}
	if v.Server != nil {
		vol.AttachedTo = formatID(v.Server.ID)
	}
	return vol
}
