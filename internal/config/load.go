package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultProfilePath returns ~/.fleetctl.yml.
func DefaultProfilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ProfileName), nil
}

// LoadFile reads the profile at path, applies environment overrides and
// defaults, and validates the result. A missing file yields a profile built
// from the environment and defaults alone.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	// #nosec G304
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	applyEnv(cfg)
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}
	return cfg, nil
}

// LoadDefinition reads and validates a fleet definition.
func LoadDefinition(path string, profile *Config) (*Definition, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet definition: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse fleet definition %s: %w", path, err)
	}
	if profile != nil {
		def.ApplyDefaults(profile)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("fleet definition %s: %w", path, err)
	}
	return &def, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Provider.Token = v
	}
	if v := os.Getenv(EnvS3AccessKey); v != "" {
		cfg.Bucket.AccessKey = v
	}
	if v := os.Getenv(EnvS3SecretKey); v != "" {
		cfg.Bucket.SecretKey = v
	}
	if v := os.Getenv(EnvStateDir); v != "" {
		cfg.StateDir = v
	}
}

func applyDefaults(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}

	setDefault(&cfg.Provider.Location, DefaultLocation)
	setDefault(&cfg.SSH.User, DefaultSSHUser)
	setDefault(&cfg.SSH.KeyName, DefaultSSHKeyName)
	setDefault(&cfg.SSH.KeyFile, filepath.Join(home, StateDirName, "id_rsa"))
	setDefault(&cfg.Controller.ServerType, DefaultControllerType)
	setDefault(&cfg.Controller.Image, DefaultImage)
	setDefault(&cfg.Worker.ServerType, DefaultWorkerType)
	setDefault(&cfg.Worker.Image, DefaultImage)
	setDefault(&cfg.SharedVolume.MountPath, DefaultSharedVolumePath)
	setDefault(&cfg.Bucket.Region, DefaultBucketRegion)
	setDefault(&cfg.Playbooks.Binary, DefaultPlaybookBinary)
	setDefault(&cfg.Tunnel.Prefix, DefaultTunnelPrefix)
	setDefault(&cfg.StateDir, filepath.Join(home, StateDirName))

	if cfg.SharedVolume.SizeGB == 0 {
		cfg.SharedVolume.SizeGB = DefaultSharedVolumeSizeGB
	}
	if cfg.Tunnel.RemotePort == 0 {
		cfg.Tunnel.RemotePort = DefaultTunnelPort
	}
	if cfg.Tunnel.LocalPort == 0 {
		cfg.Tunnel.LocalPort = cfg.Tunnel.RemotePort
	}
	if !strings.HasSuffix(cfg.SharedVolume.MountPath, "/") {
		cfg.SharedVolume.MountPath += "/"
	}

	cfg.SSH.KeyFile = expandHome(cfg.SSH.KeyFile, home)
	cfg.StateDir = expandHome(cfg.StateDir, home)
	cfg.Playbooks.Dir = expandHome(cfg.Playbooks.Dir, home)
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
