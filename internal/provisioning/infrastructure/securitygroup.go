package infrastructure

import (
	"fmt"

	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/util/labels"
	"github.com/imamik/fleetctl/internal/util/naming"
)

var anywhere = []string{"0.0.0.0/0", "::/0"}

// SecurityGroupRules are the public ingress rules of every fleet.
func SecurityGroupRules() []provisioning.IngressRule {
	return []provisioning.IngressRule{
		{Description: "ssh", Protocol: provisioning.ProtocolTCP, Port: "22", Sources: anywhere},
		{Description: "http", Protocol: provisioning.ProtocolTCP, Port: "80", Sources: anywhere},
		{Description: "icmp", Protocol: provisioning.ProtocolICMP, Sources: anywhere},
	}
}

// EnsureSecurityGroup replaces the fleet's security group. Instances
// carrying the fleet tag are members.
func (p *Provisioner) EnsureSecurityGroup(ctx *provisioning.Context) error {
	fleetName := ctx.FleetName()
	name := naming.SecurityGroup(fleetName)

	ctx.Log.Info("Creating security group", "name", name)
	sg, err := ctx.Cloud.CreateSecurityGroup(ctx, provisioning.SecurityGroupSpec{
		Name:     name,
		Rules:    SecurityGroupRules(),
		Selector: labels.FleetSelector(fleetName),
		Tags:     labels.NewLabelBuilder(fleetName).WithName(name).Build(),
	})
	if err != nil {
		return fmt.Errorf("failed to create security group %s: %w", name, err)
	}

	ctx.State.SecurityGroupID = sg.ID
	return nil
}
