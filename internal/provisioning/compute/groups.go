package compute

import (
	"context"
	"fmt"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/util/async"
	"github.com/imamik/fleetctl/internal/util/labels"
	"github.com/imamik/fleetctl/internal/util/naming"
)

// LaunchController launches the fleet's single controller and waits for
// it to be tagged.
func (l *Launcher) LaunchController(ctx context.Context, instance config.InstanceConfig) (fleet.InstanceHandle, error) {
	launch, err := l.Request(ctx, GroupRequest{
		Label:        ControllerLabel,
		Role:         labels.RoleController,
		Names:        []string{naming.Controller(l.Fleet)},
		InstanceType: instance.ServerType,
		Image:        instance.Image,
	})
	if err != nil {
		return fleet.InstanceHandle{}, err
	}

	result, err := l.WaitAndTag(ctx, launch)
	if err != nil {
		return fleet.InstanceHandle{}, fmt.Errorf("controller: %w", err)
	}
	if len(result.Instances) != 1 {
		return fleet.InstanceHandle{}, fmt.Errorf("expected one controller, got %d", len(result.Instances))
	}
	return result.Instances[0], nil
}

// WorkerRequest builds the launch request of a worker group.
func (l *Launcher) WorkerRequest(g config.WorkerGroup) GroupRequest {
	names := make([]string, g.Count)
	for i := range names {
		names[i] = naming.Node(l.Fleet, g.Label, i+1)
	}
	return GroupRequest{
		Label:        g.Label,
		Role:         labels.RoleWorker,
		Names:        names,
		InstanceType: g.ServerType,
		Image:        g.Image,
	}
}

// LaunchWorkerGroups requests every group concurrently and waits for all
// of them as one batch.
func (l *Launcher) LaunchWorkerGroups(ctx context.Context, groups []config.WorkerGroup) (*LaunchResult, error) {
	if len(groups) == 0 {
		return &LaunchResult{Addresses: map[string][]string{}}, nil
	}

	launches := make([]Launch, len(groups))
	tasks := make([]async.Task, len(groups))
	for i, g := range groups {
		tasks[i] = async.Task{
			Name: "group-" + g.Label,
			Func: func(ctx context.Context) error {
				launch, err := l.Request(ctx, l.WorkerRequest(g))
				launches[i] = launch
				return err
			},
		}
	}

	if err := async.RunParallel(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to request worker groups: %w", err)
	}

	result, err := l.WaitAndTag(ctx, launches...)
	if err != nil {
		return nil, fmt.Errorf("workers: %w", err)
	}
	return result, nil
}
