package infrastructure

import (
	"errors"
	"fmt"

	"github.com/imamik/fleetctl/internal/provisioning"
	"github.com/imamik/fleetctl/internal/util/keygen"
	"github.com/imamik/fleetctl/internal/util/labels"
)

// keyBits is the size of generated RSA keys.
var keyBits = 4096

// EnsureSSHKey registers the profile's public key with the provider,
// generating a key pair first when the private key file does not exist.
func (p *Provisioner) EnsureSSHKey(ctx *provisioning.Context) error {
	keyCfg := ctx.Config.SSH
	if keyCfg.KeyName == "" || keyCfg.KeyFile == "" {
		return errors.New("ssh key name and key file are required")
	}

	kp, generated, err := keygen.LoadOrGenerate(keyCfg.KeyFile, keyBits)
	if err != nil {
		return err
	}
	if generated {
		ctx.Log.Info("Generated SSH key pair", "path", keyCfg.KeyFile)
	}

	tags := map[string]string{labels.KeyManagedBy: labels.ManagedBy}
	if err := ctx.Cloud.EnsureSSHKey(ctx, keyCfg.KeyName, kp.PublicKey, tags); err != nil {
		return fmt.Errorf("failed to register SSH key %s: %w", keyCfg.KeyName, err)
	}

	ctx.State.SSHKeyName = keyCfg.KeyName
	return nil
}
