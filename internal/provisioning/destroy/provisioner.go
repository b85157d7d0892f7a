package destroy

import (
	"github.com/imamik/fleetctl/internal/provisioning"
)

// Provisioner runs a teardown as a pipeline phase.
type Provisioner struct {
	Local          LocalState
	Tunnels        TunnelCloser
	TunnelPrefixes []string
}

// NewProvisioner creates a destroy phase that also clears local.
func NewProvisioner(local LocalState) *Provisioner {
	return &Provisioner{Local: local}
}

// WithTunnels closes persistent tunnels under each prefix before local
// state is removed. The controller address is taken from the context
// state.
func (p *Provisioner) WithTunnels(t TunnelCloser, prefixes ...string) *Provisioner {
	p.Tunnels = t
	p.TunnelPrefixes = prefixes
	return p
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return "destroy"
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	o := &Orchestrator{
		Cloud:          ctx.Cloud,
		Local:          p.Local,
		Timeouts:       ctx.Timeouts,
		Log:            ctx.Log,
		Metrics:        ctx.Metrics,
		Tunnels:        p.Tunnels,
		TunnelPrefixes: p.TunnelPrefixes,
		Controller:     ctx.State.ControllerAddress,
	}
	return o.Teardown(ctx, ctx.FleetName())
}
