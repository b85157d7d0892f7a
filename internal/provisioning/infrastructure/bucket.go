package infrastructure

import (
	"fmt"

	"github.com/imamik/fleetctl/internal/provisioning"
)

// EnsureBucket creates the profile's bucket unless it already exists.
// Nothing happens when no bucket is configured.
func (p *Provisioner) EnsureBucket(ctx *provisioning.Context) error {
	name := ctx.Config.Bucket.Name
	if name == "" || ctx.Buckets == nil {
		ctx.Log.V(1).Info("No bucket configured, skipping")
		return nil
	}

	exists, err := ctx.Buckets.BucketExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", name, err)
	}
	if exists {
		ctx.Log.V(1).Info("Bucket exists", "bucket", name)
		return nil
	}

	ctx.Log.Info("Creating bucket", "bucket", name)
	if err := ctx.Buckets.CreateBucket(ctx, name); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return nil
}
