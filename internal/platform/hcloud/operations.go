package hcloud

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fleetctl/internal/util/retry"
)

// DeleteOperation encapsulates deletion logic for any hcloud resource
// addressed by id. It is idempotent: a resource that no longer exists
// counts as deleted. Locked or in-use resources are retried.
type DeleteOperation[T any] struct {
	ID           int64
	ResourceType string

	// Get retrieves the resource by id. A nil resource means it is gone.
	Get func(ctx context.Context, id int64) (T, *hcloud.Response, error)

	// Delete removes the resource.
	Delete func(ctx context.Context, resource T) error

	// Exists reports whether Get returned a resource.
	Exists func(resource T) bool
}

// Execute performs the delete with retry.
func (op *DeleteOperation[T]) Execute(ctx context.Context, client *RealClient) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		resource, _, err := op.Get(ctx, op.ID)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return retry.Fatal(fmt.Errorf("failed to get %s: %w", op.ResourceType, err))
		}
		if !op.Exists(resource) {
			return nil
		}

		if err := op.Delete(ctx, resource); err != nil {
			if IsNotFound(err) {
				return nil
			}
			if isRetryable(err) {
				return err
			}
			return retry.Fatal(err)
		}
		return nil
	},
		retry.WithMaxRetries(client.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(client.timeouts.RetryInitialDelay),
		retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			client.log.V(1).Info("retrying delete", "resource", op.ResourceType, "id", op.ID, "attempt", attempt, "wait", wait, "error", err.Error())
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", op.ResourceType, op.ID, err)
	}
	return nil
}

// waitForActions waits for one or more actions to complete.
func waitForActions(ctx context.Context, client *hcloud.Client, actions ...*hcloud.Action) error {
	pending := slices.DeleteFunc(slices.Clone(actions), func(a *hcloud.Action) bool { return a == nil })
	if len(pending) == 0 {
		return nil
	}
	return client.Action.WaitFor(ctx, pending...)
}

// labelSelector renders tags as a label selector with sorted keys.
func labelSelector(tags map[string]string) string {
	keys := slices.Sorted(maps.Keys(tags))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+tags[k])
	}
	return strings.Join(parts, ",")
}
