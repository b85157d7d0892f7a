package hcloud

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"golang.org/x/sync/errgroup"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/util/labels"
	"github.com/imamik/fleetctl/internal/util/retry"
)

// maxConcurrentRequests bounds parallel API calls for one batch.
const maxConcurrentRequests = 5

// LaunchInstances creates one server per requested name. Creation does not
// wait for the servers to boot. Servers created before a failure are still
// reported in the reservation.
func (c *RealClient) LaunchInstances(ctx context.Context, spec provisioning.LaunchSpec) (provisioning.Reservation, error) {
	res := provisioning.Reservation{Group: spec.Group}
	if spec.Count() == 0 {
		return res, nil
	}

	base, err := c.buildServerCreateOpts(ctx, spec)
	if err != nil {
		return res, err
	}

	ids := make([]string, spec.Count())
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRequests)
	for i, name := range spec.Names {
		g.Go(func() error {
			opts := base
			opts.Name = name
			opts.Labels = maps.Clone(base.Labels)
			opts.Labels[labels.KeyName] = name

			server, err := c.createServerWithRetry(gctx, opts)
			if err != nil {
				return fmt.Errorf("server %s: %w", name, err)
			}
			mu.Lock()
			ids[i] = formatID(server.ID)
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()

	res.InstanceIDs = slices.DeleteFunc(ids, func(id string) bool { return id == "" })
	if err != nil {
		return res, fmt.Errorf("failed to launch group %s: %w", spec.Group, err)
	}
	c.log.V(1).Info("servers requested", "group", spec.Group, "count", len(res.InstanceIDs))
	return res, nil
}

// buildServerCreateOpts resolves the server type, image, location and SSH
// keys shared by every server of a batch.
func (c *RealClient) buildServerCreateOpts(ctx context.Context, spec provisioning.LaunchSpec) (hcloud.ServerCreateOpts, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, spec.InstanceType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", spec.InstanceType)
	}

	image, _, err := c.client.Image.GetForArchitecture(ctx, spec.Image, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("image not found: %s", spec.Image)
	}

	var location *hcloud.Location
	if spec.Location != "" {
		location, _, err = c.client.Location.Get(ctx, spec.Location)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get location %s: %w", spec.Location, err)
		}
		if location == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("location not found: %s", spec.Location)
		}
	}

	sshKeys := make([]*hcloud.SSHKey, 0, len(spec.SSHKeys))
	for _, name := range spec.SSHKeys {
		key, _, err := c.client.SSHKey.Get(ctx, name)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get ssh key %s: %w", name, err)
		}
		if key == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("ssh key not found: %s", name)
		}
		sshKeys = append(sshKeys, key)
	}

	tags := maps.Clone(spec.Tags)
	if tags == nil {
		tags = map[string]string{}
	}

	return hcloud.ServerCreateOpts{
		ServerType: serverType,
		Image:      image,
		Location:   location,
		SSHKeys:    sshKeys,
		Labels:     tags,
	}, nil
}

// createServerWithRetry creates a server with exponential backoff retry logic.
func (c *RealClient) createServerWithRetry(ctx context.Context, opts hcloud.ServerCreateOpts) (*hcloud.Server, error) {
	var server *hcloud.Server
	err := retry.Do(ctx, func(ctx context.Context) error {
		res, _, err := c.client.Server.Create(ctx, opts)
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		server = res.Server
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return server, nil
}

// DescribeInstances reports the given servers. Servers that no longer exist
// are reported as terminated.
func (c *RealClient) DescribeInstances(ctx context.Context, ids []string) ([]fleet.Instance, error) {
	out := make([]fleet.Instance, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRequests)
	for i, id := range ids {
		g.Go(func() error {
			n, err := parseID("server", id)
			if err != nil {
				return err
			}
			server, _, err := c.client.Server.GetByID(gctx, n)
			if err != nil {
				return fmt.Errorf("failed to describe server %s: %w", id, err)
			}
			if server == nil {
				out[i] = fleet.Instance{ID: id, State: fleet.StateTerminated}
				return nil
			}
			out[i] = toInstance(server)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListInstances returns servers carrying every tag, optionally restricted
// to the given states.
func (c *RealClient) ListInstances(ctx context.Context, tags map[string]string, states ...fleet.InstanceState) ([]fleet.Instance, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector(tags)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	out := make([]fleet.Instance, 0, len(servers))
	for _, s := range servers {
		inst := toInstance(s)
		if len(states) > 0 && !slices.Contains(states, inst.State) {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

// TagInstances merges tags into each server's labels.
func (c *RealClient) TagInstances(ctx context.Context, ids []string, tags map[string]string) error {
	for _, id := range ids {
		n, err := parseID("server", id)
		if err != nil {
			return err
		}
		server, _, err := c.client.Server.GetByID(ctx, n)
		if err != nil {
			return fmt.Errorf("failed to get server %s: %w", id, err)
		}
		if server == nil {
			return notFound("server", id)
		}

		merged := maps.Clone(server.Labels)
		if merged == nil {
			merged = map[string]string{}
		}
		maps.Copy(merged, tags)

		if _, _, err := c.client.Server.Update(ctx, server, hcloud.ServerUpdateOpts{Labels: merged}); err != nil {
			return fmt.Errorf("failed to tag server %s: %w", id, err)
		}
	}
	return nil
}

// TerminateInstances requests deletion of each server without waiting for
// it to disappear. All servers are attempted; failures are joined.
func (c *RealClient) TerminateInstances(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		n, err := parseID("server", id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		err = (&DeleteOperation[*hcloud.Server]{
			ID:           n,
			ResourceType: "server",
			Get:          c.client.Server.GetByID,
			Delete: func(ctx context.Context, server *hcloud.Server) error {
				_, _, err := c.client.Server.DeleteWithResult(ctx, server)
				return err
			},
			Exists: func(s *hcloud.Server) bool { return s != nil },
		}).Execute(ctx, c)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func toInstance(s *hcloud.Server) fleet.Instance {
	inst := fleet.Instance{
		ID:         formatID(s.ID),
		Name:       s.Name,
		State:      mapServerStatus(s.Status),
		Tags:       maps.Clone(s.Labels),
		LaunchedAt: s.Created,
	}
	if s.ServerType != nil {
		inst.InstanceType = s.ServerType.Name
	}
	if ip := s.PublicNet.IPv4.IP; ip != nil && !ip.IsUnspecified() {
		inst.Address = ip.String()
	}
	if inst.Tags == nil {
		inst.Tags = map[string]string{}
	}
	return inst
}

func mapServerStatus(status hcloud.ServerStatus) fleet.InstanceState {
	switch status {
	case hcloud.ServerStatusRunning:
		return fleet.StateRunning
	case hcloud.ServerStatusStopping, hcloud.ServerStatusDeleting:
		return fleet.StateStopping
	case hcloud.ServerStatusOff:
		return fleet.StateStopped
	default:
		return fleet.StatePending
	}
}
