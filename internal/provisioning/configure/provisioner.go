package configure

import (
	"github.com/imamik/fleetctl/internal/provisioning"
)

// Provisioner configures the controller and then the workers.
type Provisioner struct{}

// NewProvisioner creates a new configure provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return "configure"
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if ctx.Playbooks == nil {
		ctx.Log.Info("No playbook directory configured, skipping remote configuration")
		return nil
	}

	c := &Configurator{Playbooks: ctx.Playbooks, Config: ctx.Config, Log: ctx.Log}
	if err := c.Controller(ctx, ctx.State.ControllerAddress); err != nil {
		return err
	}
	return c.Nodes(ctx, ctx.State.ControllerAddress, ctx.State.WorkerAddresses)
}
