package compute

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/metrics"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/util/labels"
	"github.com/imamik/fleetctl/internal/util/poll"
)

// ControllerLabel is the result label of the controller group.
const ControllerLabel = "controller"

// tagConcurrency bounds concurrent tagging calls within a batch.
const tagConcurrency = 10

// GroupRequest asks for one group of identical instances.
type GroupRequest struct {
	// Label keys the group in a LaunchResult.
	Label        string
	Role         string
	Names        []string
	InstanceType string
	Image        string
	// Tags are applied together with the ownership tag.
	Tags map[string]string
}

// Launch is a requested group awaiting WaitAndTag.
type Launch struct {
	Request     GroupRequest
	Reservation provisioning.Reservation
}

// LaunchResult is a fully tagged batch.
type LaunchResult struct {
	// Addresses maps group label to instance addresses in request order.
	Addresses map[string][]string
	Instances []fleet.InstanceHandle
}

// IDs returns the instance ids of the batch.
func (r *LaunchResult) IDs() []string {
	ids := make([]string, 0, len(r.Instances))
	for _, h := range r.Instances {
		ids = append(ids, h.ID)
	}
	return ids
}

// Launcher requests instance groups and drives them to TAGGED.
type Launcher struct {
	Cloud    provisioning.Cloud
	Fleet    string
	Location string
	SSHKeys  []string
	Timeouts *config.Timeouts
	// LaunchTimeout bounds WaitAndTag. Zero leaves the wait to the
	// caller's context.
	LaunchTimeout time.Duration
	Log           logr.Logger
	Metrics       *metrics.Recorder
}

// NewLauncher creates a launcher for the fleet in ctx.
func NewLauncher(ctx *provisioning.Context) *Launcher {
	keyName := ctx.State.SSHKeyName
	if keyName == "" && ctx.Config != nil {
		keyName = ctx.Config.SSH.KeyName
	}
	var keys []string
	if keyName != "" {
		keys = []string{keyName}
	}

	location := ""
	if ctx.Config != nil {
		location = ctx.Config.Provider.Location
	}

	return &Launcher{
		Cloud:    ctx.Cloud,
		Fleet:    ctx.FleetName(),
		Location: location,
		SSHKeys:  keys,
		Timeouts: ctx.Timeouts,
		Log:      ctx.Log,
		Metrics:  ctx.Metrics,
	}
}

// Request issues the single launch call for a group.
func (l *Launcher) Request(ctx context.Context, req GroupRequest) (Launch, error) {
	if len(req.Names) == 0 {
		return Launch{}, fmt.Errorf("group %s: at least one instance is required", req.Label)
	}

	group := ""
	if req.Role == labels.RoleWorker {
		group = req.Label
	}

	spec := provisioning.LaunchSpec{
		Group:        req.Label,
		Names:        req.Names,
		InstanceType: req.InstanceType,
		Image:        req.Image,
		Location:     l.Location,
		SSHKeys:      l.SSHKeys,
		Tags:         labels.NewReservationLabels(l.Fleet, req.Role, group),
	}

	l.Log.Info("Requesting instances", "group", req.Label, "count", spec.Count(), "type", req.InstanceType)
	res, err := l.Cloud.LaunchInstances(ctx, spec)
	launch := Launch{Request: req, Reservation: res}
	if err != nil {
		return launch, fmt.Errorf("failed to launch group %s: %w", req.Label, err)
	}
	if len(res.InstanceIDs) != spec.Count() {
		return launch, fmt.Errorf("group %s: requested %d instances, provider reserved %d", req.Label, spec.Count(), len(res.InstanceIDs))
	}
	return launch, nil
}

// ownershipTags are applied to a member of launch at TAGGED.
func (l *Launcher) ownershipTags(launch Launch) map[string]string {
	lb := labels.NewLabelBuilder(l.Fleet).
		WithRole(launch.Request.Role).
		Merge(launch.Request.Tags)
	if launch.Request.Role == labels.RoleWorker {
		lb.WithGroup(launch.Request.Label)
	}
	return lb.Build()
}

// WaitAndTag polls every instance of the given launches until all are
// addressable, then tags each of them once. The first instance found in a
// terminal state aborts the batch with a *fleet.TerminalStateError and no
// tagging call is made.
func (l *Launcher) WaitAndTag(ctx context.Context, launches ...Launch) (*LaunchResult, error) {
	handles := make([]*fleet.InstanceHandle, 0)
	byID := make(map[string]*fleet.InstanceHandle)
	owner := make(map[string]int)
	for i, launch := range launches {
		for _, id := range launch.Reservation.InstanceIDs {
			if _, dup := byID[id]; dup {
				return nil, fmt.Errorf("instance %s reserved twice", id)
			}
			h := &fleet.InstanceHandle{ID: id, Group: launch.Request.Label, State: fleet.LaunchRequested}
			handles = append(handles, h)
			byID[id] = h
			owner[id] = i
		}
	}

	if len(handles) == 0 {
		return &LaunchResult{Addresses: map[string][]string{}}, nil
	}

	l.Log.Info("Waiting for instances", "fleet", l.Fleet, "count", len(handles))
	start := time.Now()

	pred := func(ctx context.Context) (bool, error) {
		l.Metrics.PollEvaluated("launch")

		var pending []string
		for _, h := range handles {
			if h.State < fleet.LaunchAddressable {
				pending = append(pending, h.ID)
			}
		}
		if len(pending) == 0 {
			return true, nil
		}

		instances, err := l.Cloud.DescribeInstances(ctx, pending)
		if err != nil {
			return false, err
		}

		for _, inst := range instances {
			h, ok := byID[inst.ID]
			if !ok || h.State >= fleet.LaunchAddressable {
				continue
			}
			switch {
			case inst.State.IsTerminal():
				h.State = fleet.LaunchFailed
				return false, &fleet.TerminalStateError{InstanceID: inst.ID, State: inst.State}
			case inst.Addressable():
				h.State = fleet.LaunchAddressable
				h.Address = inst.Address
				l.Log.V(1).Info("Instance addressable", "id", inst.ID, "group", h.Group, "address", inst.Address)
			case inst.State == fleet.StateRunning:
				h.State = fleet.LaunchRunningNoAddr
			}
		}

		for _, h := range handles {
			if h.State < fleet.LaunchAddressable {
				return false, nil
			}
		}
		return true, nil
	}

	err := poll.Expect(ctx, "launch "+l.Fleet, l.pollInterval(), l.LaunchTimeout,
		tolerateTransient(l.Log, l.maxConsecutiveErrors(), pred))
	if err != nil {
		return nil, fmt.Errorf("instances of fleet %s did not become addressable: %w", l.Fleet, err)
	}

	if err := l.tag(ctx, launches, handles, owner); err != nil {
		return nil, err
	}

	result := &LaunchResult{Addresses: make(map[string][]string)}
	counts := make(map[string]int)
	for _, h := range handles {
		result.Addresses[h.Group] = append(result.Addresses[h.Group], h.Address)
		result.Instances = append(result.Instances, *h)
		counts[h.Group]++
	}
	for group, n := range counts {
		l.Metrics.InstancesLaunched(l.Fleet, group, n)
	}

	l.Log.Info("Instances ready", "fleet", l.Fleet, "count", len(handles), "duration", time.Since(start).Round(time.Second))
	return result, nil
}

// tag applies the ownership tags, one call per instance.
func (l *Launcher) tag(ctx context.Context, launches []Launch, handles []*fleet.InstanceHandle, owner map[string]int) error {
	tagsByLaunch := make([]map[string]string, len(launches))
	for i, launch := range launches {
		tagsByLaunch[i] = l.ownershipTags(launch)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tagConcurrency)
	for _, h := range handles {
		tags := maps.Clone(tagsByLaunch[owner[h.ID]])
		g.Go(func() error {
			if err := l.Cloud.TagInstances(gctx, []string{h.ID}, tags); err != nil {
				h.State = fleet.LaunchFailed
				return fmt.Errorf("failed to tag instance %s: %w", h.ID, err)
			}
			h.State = fleet.LaunchTagged
			return nil
		})
	}
	return g.Wait()
}

func (l *Launcher) pollInterval() time.Duration {
	if l.Timeouts == nil || l.Timeouts.LaunchPoll <= 0 {
		return 5 * time.Second
	}
	return l.Timeouts.LaunchPoll
}

func (l *Launcher) maxConsecutiveErrors() int {
	if l.Timeouts == nil || l.Timeouts.RetryMaxAttempts <= 0 {
		return 5
	}
	return l.Timeouts.RetryMaxAttempts
}

// tolerateTransient wraps a predicate so that provider errors read as "not
// yet" until max consecutive calls have failed. Terminal instance states
// are never tolerated.
func tolerateTransient(log logr.Logger, maxErrors int, pred poll.Predicate) poll.Predicate {
	failures := 0
	return func(ctx context.Context) (bool, error) {
		ok, err := pred(ctx)
		if err == nil {
			failures = 0
			return ok, nil
		}
		if errors.Is(err, fleet.ErrProviderTerminal) || ctx.Err() != nil {
			return false, err
		}
		failures++
		if failures >= maxErrors {
			return false, fmt.Errorf("giving up after %d consecutive errors: %w", failures, err)
		}
		log.V(1).Info("Poll check failed, retrying", "attempt", failures, "error", err.Error())
		return false, nil
	}
}
