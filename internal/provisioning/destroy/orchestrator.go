package destroy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/metrics"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/util/labels"
	"github.com/imamik/fleetctl/internal/util/poll"
)

// LocalState is the on-disk fleet record and session directory.
type LocalState interface {
	Delete() error
	RemoveSession() error
}

// TunnelCloser closes persistent tunnels before the session directory is
// removed.
type TunnelCloser interface {
	DestroyAllPersistent(ctx context.Context, controller, prefix string) error
}

// Orchestrator removes every resource of a fleet.
type Orchestrator struct {
	Cloud    provisioning.Cloud
	Local    LocalState
	Timeouts *config.Timeouts
	Log      logr.Logger
	Metrics  *metrics.Recorder

	// Tunnels, when set, closes persistent tunnels under each of
	// TunnelPrefixes. It needs the controller address.
	Tunnels        TunnelCloser
	TunnelPrefixes []string
	Controller     string
}

// Teardown runs every step for fleetName. It returns nil only when every
// step succeeded, otherwise a *fleet.PartialTeardownError.
func (o *Orchestrator) Teardown(ctx context.Context, fleetName string) error {
	if fleetName == "" {
		return errors.New("fleet name is required")
	}
	start := time.Now()
	result := &fleet.PartialTeardownError{}

	o.Log.Info("Destroying fleet", "fleet", fleetName)

	ids, terminated, err := o.terminateInstances(ctx, fleetName)
	result.Add(fleet.CategoryInstances, err)

	if terminated {
		result.Add(fleet.CategoryTerminationWait, o.waitTerminated(ctx, ids))
	}

	result.Add(fleet.CategoryVolumes, o.deleteVolumes(ctx, fleetName))
	result.Add(fleet.CategorySecurityGroups, o.deleteSecurityGroups(ctx, fleetName))
	result.Add(fleet.CategoryLocalState, o.removeLocalState(ctx))

	if result.HasErrors() {
		for _, c := range result.Categories() {
			o.Metrics.TeardownFailed(fleetName, string(c))
		}
		o.Log.Info("Fleet teardown incomplete", "fleet", fleetName, "failed", result.Categories())
		return result
	}

	o.Log.Info("Fleet destroyed", "fleet", fleetName, "duration", time.Since(start).Round(time.Second))
	return nil
}

// terminateInstances terminates the fleet's running and pending instances,
// including launched instances that never received the ownership tag. It
// returns the ids it asked the provider to terminate and whether that call
// succeeded. A failed listing is reported without hiding the ids found by
// the other selector.
func (o *Orchestrator) terminateInstances(ctx context.Context, fleetName string) ([]string, bool, error) {
	var errs []error
	var ids []string
	seen := make(map[string]bool)

	for _, selector := range []map[string]string{
		labels.FleetSelector(fleetName),
		labels.ReservationSelector(fleetName),
	} {
		instances, err := o.Cloud.ListInstances(ctx, selector, fleet.StateRunning, fleet.StatePending)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to list instances: %w", err))
			continue
		}
		for _, inst := range instances {
			if !seen[inst.ID] {
				seen[inst.ID] = true
				ids = append(ids, inst.ID)
			}
		}
	}

	if len(ids) == 0 {
		o.Log.V(1).Info("No instances to terminate", "fleet", fleetName)
		return nil, false, errors.Join(errs...)
	}

	o.Log.Info("Terminating instances", "count", len(ids))
	if err := o.Cloud.TerminateInstances(ctx, ids); err != nil {
		errs = append(errs, fmt.Errorf("failed to terminate instances: %w", err))
		return ids, false, errors.Join(errs...)
	}
	return ids, true, errors.Join(errs...)
}

// waitTerminated polls until every id reports terminated. No ids is
// satisfied immediately.
func (o *Orchestrator) waitTerminated(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	interval, timeout := 2*time.Second, 5*time.Minute
	if o.Timeouts != nil {
		interval, timeout = o.Timeouts.TerminatePoll, o.Timeouts.Terminate
	}

	terminated := 0
	err := poll.Expect(ctx, "instance termination", interval, timeout, func(ctx context.Context) (bool, error) {
		o.Metrics.PollEvaluated("terminate")
		instances, err := o.Cloud.DescribeInstances(ctx, ids)
		if err != nil {
			o.Log.V(1).Info("Describe failed, retrying", "error", err.Error())
			return false, nil
		}
		terminated = 0
		for _, inst := range instances {
			if inst.State == fleet.StateTerminated {
				terminated++
			}
		}
		return terminated == len(ids), nil
	})
	if err != nil {
		return fmt.Errorf("%d of %d instances terminated: %w", terminated, len(ids), err)
	}
	return nil
}

func (o *Orchestrator) deleteVolumes(ctx context.Context, fleetName string) error {
	volumes, err := o.Cloud.ListVolumes(ctx, labels.FleetSelector(fleetName))
	if err != nil {
		return fmt.Errorf("failed to list volumes: %w", err)
	}

	var errs []error
	for _, v := range volumes {
		if err := o.Cloud.DeleteVolume(ctx, v.ID); err != nil {
			errs = append(errs, fmt.Errorf("volume %s (%s): %w", v.Name, v.ID, err))
			continue
		}
		o.Log.V(1).Info("Volume deleted", "name", v.Name, "id", v.ID)
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) deleteSecurityGroups(ctx context.Context, fleetName string) error {
	groups, err := o.Cloud.ListSecurityGroups(ctx, labels.FleetSelector(fleetName))
	if err != nil {
		return fmt.Errorf("failed to list security groups: %w", err)
	}

	var errs []error
	for _, g := range groups {
		if err := o.Cloud.DeleteSecurityGroup(ctx, g.ID); err != nil {
			errs = append(errs, fmt.Errorf("security group %s (%s): %w", g.Name, g.ID, err))
			continue
		}
		o.Log.V(1).Info("Security group deleted", "name", g.Name, "id", g.ID)
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) removeLocalState(ctx context.Context) error {
	var errs []error

	if o.Tunnels != nil && o.Controller != "" {
		for _, prefix := range o.TunnelPrefixes {
			if err := o.Tunnels.DestroyAllPersistent(ctx, o.Controller, prefix); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if o.Local != nil {
		if err := o.Local.Delete(); err != nil {
			errs = append(errs, err)
		}
		if err := o.Local.RemoveSession(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
