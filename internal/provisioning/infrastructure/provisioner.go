package infrastructure

import (
	"github.com/imamik/fleetctl/internal/provisioning"
)

// Provisioner handles infrastructure provisioning (SSH key, bucket,
// security group).
type Provisioner struct{}

// NewProvisioner creates a new infrastructure provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return "infrastructure"
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	// 1. SSH key
	if err := p.EnsureSSHKey(ctx); err != nil {
		return err
	}

	// 2. Bucket
	if err := p.EnsureBucket(ctx); err != nil {
		return err
	}

	// 3. Security group
	return p.EnsureSecurityGroup(ctx)
}
