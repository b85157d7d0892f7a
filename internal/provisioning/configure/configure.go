package configure

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/platform/ansible"
	"github.com/imamik/fleetctl/internal/provisioning"
)

// Playbook names.
const (
	ControllerPlaybook = "configure_controller.yml"
	NodesPlaybook      = "configure_nodes.yml"
)

// Inventory group of the controller.
const controllerGroup = "controller"

// Registry images are stored under this prefix in the fleet bucket.
const registryPath = "docker-registry"

// Configurator runs configuration playbooks.
type Configurator struct {
	Playbooks provisioning.PlaybookRunner
	Config    *config.Config
	Log       logr.Logger
}

// ControllerVars are the variables passed to the controller playbook.
func (c *Configurator) ControllerVars() map[string]any {
	vars := map[string]any{
		"registry_s3_path":   registryPath,
		"shared_volume_path": c.Config.SharedVolume.MountPath,
	}
	if b := c.Config.Bucket; b.Name != "" {
		vars["s3_bucket"] = b.Name
		vars["s3_endpoint"] = b.Endpoint
		vars["s3_region"] = b.Region
		vars["s3_access_key"] = b.AccessKey
		vars["s3_secret_key"] = b.SecretKey
	}
	return vars
}

// Controller configures the controller at address.
func (c *Configurator) Controller(ctx context.Context, address string) error {
	if address == "" {
		return errors.New("controller address is required")
	}

	var inv ansible.Inventory
	inv.Add(controllerGroup, address)

	c.Log.Info("Configuring controller", "address", address)
	res, err := c.Playbooks.Run(ctx, ansible.Run{
		Playbook:  ControllerPlaybook,
		Inventory: inv,
		Vars:      c.ControllerVars(),
	})
	if err != nil {
		return fmt.Errorf("failed to configure controller %s: %w", address, err)
	}
	c.Log.V(1).Info("Controller configured", "duration", res.Duration)
	return nil
}

// Nodes configures every worker group. The inventory has one section per
// group, named by its label.
func (c *Configurator) Nodes(ctx context.Context, controller string, groups map[string][]string) error {
	var inv ansible.Inventory
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if len(groups[label]) > 0 {
			inv.Add(label, groups[label]...)
		}
	}

	if inv.Hosts() == 0 {
		c.Log.V(1).Info("No workers to configure")
		return nil
	}

	c.Log.Info("Configuring workers", "groups", len(inv.Groups), "hosts", inv.Hosts())
	res, err := c.Playbooks.Run(ctx, ansible.Run{
		Playbook:  NodesPlaybook,
		Inventory: inv,
		Vars:      map[string]any{"controller_ip": controller},
	})
	if err != nil {
		return fmt.Errorf("failed to configure workers: %w", err)
	}
	c.Log.V(1).Info("Workers configured", "duration", res.Duration)
	return nil
}
