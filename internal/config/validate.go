package config

import (
	"errors"
	"fmt"
)

// ValidLocations contains the Hetzner Cloud locations fleets may use.
var ValidLocations = map[string]bool{
	"nbg1": true,
	"fsn1": true,
	"hel1": true,
	"ash":  true,
	"hil":  true,
	"sin":  true,
}

// Validate reports every problem in the profile.
func (c *Config) Validate() error {
	var errs []error

	if c.Provider.Token == "" {
		errs = append(errs, fmt.Errorf("provider token is required (set %s)", EnvToken))
	}
	if !ValidLocations[c.Provider.Location] {
		errs = append(errs, fmt.Errorf("invalid location %q", c.Provider.Location))
	}
	if c.SSH.KeyFile == "" {
		errs = append(errs, errors.New("ssh.key_file is required"))
	}
	if c.SharedVolume.SizeGB < 10 {
		errs = append(errs, fmt.Errorf("shared_volume.size_gb must be at least 10, got %d", c.SharedVolume.SizeGB))
	}
	if c.Bucket.Name != "" && c.Bucket.Endpoint == "" {
		errs = append(errs, errors.New("bucket.endpoint is required when bucket.name is set"))
	}
	if c.Tunnel.Enabled {
		if !validPort(c.Tunnel.RemotePort) || !validPort(c.Tunnel.LocalPort) {
			errs = append(errs, fmt.Errorf("tunnel ports must be in 1-65535, got %d->%d", c.Tunnel.LocalPort, c.Tunnel.RemotePort))
		}
	}

	return errors.Join(errs...)
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
