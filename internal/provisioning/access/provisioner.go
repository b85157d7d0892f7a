package access

import (
	"context"
	"fmt"

	"github.com/imamik/fleetctl/internal/provisioning"
)

// RecordWriter stores the working-fleet record.
type RecordWriter interface {
	Write(fleetName, controllerAddress string) error
}

// TunnelOpener opens persistent tunnels to the controller.
type TunnelOpener interface {
	CreatePersistent(ctx context.Context, controller string, remotePort, localPort int, prefix string) error
}

// Provisioner writes the fleet record and opens the configured tunnel.
type Provisioner struct {
	Records RecordWriter
	Tunnels TunnelOpener
}

// NewProvisioner creates an access phase. tunnels may be nil.
func NewProvisioner(records RecordWriter, tunnels TunnelOpener) *Provisioner {
	return &Provisioner{Records: records, Tunnels: tunnels}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return "access"
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	address := ctx.State.ControllerAddress
	if err := p.Records.Write(ctx.FleetName(), address); err != nil {
		return fmt.Errorf("failed to record fleet %s: %w", ctx.FleetName(), err)
	}
	ctx.Log.V(1).Info("Fleet recorded", "fleet", ctx.FleetName(), "controller", address)

	tc := ctx.Config.Tunnel
	if !tc.Enabled || p.Tunnels == nil {
		return nil
	}
	if err := p.Tunnels.CreatePersistent(ctx, address, tc.RemotePort, tc.LocalPort, tc.Prefix); err != nil {
		return fmt.Errorf("failed to open %s tunnel: %w", tc.Prefix, err)
	}
	ctx.Log.Info("Tunnel open", "url", fmt.Sprintf("http://localhost:%d", tc.LocalPort))
	return nil
}
