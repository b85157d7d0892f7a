package compute

import (
	"fmt"

	"github.com/imamik/fleetctl/internal/provisioning"
)

// Provisioner launches the controller, the shared volume and every worker
// group, then opens the security group to traffic between them.
type Provisioner struct{}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return "compute"
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if ctx.Fleet == nil {
		return fmt.Errorf("no fleet definition")
	}
	l := NewLauncher(ctx)

	controller, err := l.LaunchController(ctx, ctx.Fleet.Controller)
	if err != nil {
		return err
	}
	ctx.State.ControllerID = controller.ID
	ctx.State.ControllerAddress = controller.Address
	ctx.Log.Info("Controller ready", "id", controller.ID, "address", controller.Address)

	if size := ctx.Config.SharedVolume.SizeGB; size > 0 {
		vol, err := l.ProvisionSharedVolume(ctx, controller.ID, size)
		if err != nil {
			return err
		}
		ctx.State.VolumeID = vol.ID
	}

	workers, err := l.LaunchWorkerGroups(ctx, ctx.Fleet.WorkerGroups)
	if err != nil {
		return err
	}
	for group, addrs := range workers.Addresses {
		ctx.State.WorkerAddresses[group] = addrs
	}
	ctx.State.WorkerIDs = workers.IDs()

	if ctx.State.SecurityGroupID == "" {
		return nil
	}
	addrs := ctx.State.Addresses()
	if err := ctx.Cloud.AllowPeers(ctx, ctx.State.SecurityGroupID, addrs); err != nil {
		return fmt.Errorf("failed to allow traffic between fleet instances: %w", err)
	}
	ctx.Log.V(1).Info("Peer traffic allowed", "addresses", len(addrs))
	return nil
}
