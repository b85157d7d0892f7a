package hcloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureSSHKey registers publicKey under name. An existing key of the same
// name is left untouched; a different key under that name is an error.
func (c *RealClient) EnsureSSHKey(ctx context.Context, name string, publicKey []byte, tags map[string]string) error {
	want := strings.TrimSpace(string(publicKey))

	existing, _, err := c.client.SSHKey.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get ssh key %s: %w", name, err)
	}
	if existing != nil {
		if !sameKey(existing.PublicKey, want) {
			return fmt.Errorf("ssh key %s exists with a different public key", name)
		}
		return nil
	}

	_, _, err = c.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: want,
		Labels:    tags,
	})
	if err != nil {
		return fmt.Errorf("failed to create ssh key %s: %w", name, err)
	}
	return nil
}

// sameKey compares the type and key fields, ignoring comments.
func sameKey(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) < 2 || len(fb) < 2 {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return fa[0] == fb[0] && fa[1] == fb[1]
}
