package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/util/labels"
)

var liveStates = []fleet.InstanceState{fleet.StateRunning, fleet.StatePending}

// FindController returns the live controller of a fleet. A fleet without
// one does not exist.
func FindController(ctx context.Context, cloud provisioning.Cloud, fleetName string) (fleet.Instance, error) {
	instances, err := cloud.ListInstances(ctx, labels.FleetSelector(fleetName), liveStates...)
	if err != nil {
		return fleet.Instance{}, fmt.Errorf("failed to list instances of %s: %w", fleetName, err)
	}
	for _, inst := range instances {
		if inst.Tags[labels.KeyRole] == labels.RoleController {
			return inst, nil
		}
	}
	return fleet.Instance{}, fmt.Errorf("fleet %s does not exist", fleetName)
}

// Status summarises a running fleet.
type Status struct {
	Fleet      string
	Controller string
	Uptime     time.Duration
}

// FleetStatus reports the controller address and how long it has run.
func FleetStatus(ctx context.Context, cloud provisioning.Cloud, fleetName string, now time.Time) (Status, error) {
	controller, err := FindController(ctx, cloud, fleetName)
	if err != nil {
		return Status{}, err
	}
	st := Status{Fleet: fleetName, Controller: controller.Address}
	if !controller.LaunchedAt.IsZero() {
		st.Uptime = now.Sub(controller.LaunchedAt)
	}
	return st, nil
}

// InstanceCounts returns the number of live instances per instance type.
func InstanceCounts(ctx context.Context, cloud provisioning.Cloud, fleetName string) (map[string]int, error) {
	instances, err := cloud.ListInstances(ctx, labels.FleetSelector(fleetName), liveStates...)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of %s: %w", fleetName, err)
	}
	counts := make(map[string]int)
	for _, inst := range instances {
		counts[inst.InstanceType]++
	}
	return counts, nil
}

// VolumeUsage is the df -h view of the shared volume.
type VolumeUsage struct {
	Total       string
	Used        string
	Free        string
	UsedPercent string
}

// SharedVolumeUsage reads the usage of the filesystem mounted at
// mountPath. A volume that is not mounted reports empty usage.
func SharedVolumeUsage(ctx context.Context, shell Shell, mountPath string) (VolumeUsage, error) {
	res, err := shell.Run(ctx, "df -h")
	if err != nil {
		return VolumeUsage{}, fmt.Errorf("failed to read volume usage: %w", err)
	}
	if res.ExitStatus != 0 {
		return VolumeUsage{}, fmt.Errorf("df exited with status %d: %s", res.ExitStatus, strings.TrimSpace(res.Stderr))
	}
	return ParseDF(res.Stdout, mountPath), nil
}

// ParseDF finds the df -h line for mountPath.
func ParseDF(output, mountPath string) VolumeUsage {
	mount := strings.TrimSuffix(mountPath, "/")
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 || fields[len(fields)-1] != mount {
			continue
		}
		return VolumeUsage{
			Total:       fields[1],
			Used:        fields[2],
			Free:        fields[3],
			UsedPercent: fields[4],
		}
	}
	return VolumeUsage{}
}
