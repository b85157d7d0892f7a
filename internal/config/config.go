package config

import (
	"path/filepath"
)

// Config is the operator profile.
type Config struct {
	Provider     ProviderConfig     `yaml:"provider"`
	SSH          SSHConfig          `yaml:"ssh"`
	Controller   InstanceConfig     `yaml:"controller"`
	Worker       InstanceConfig     `yaml:"worker"`
	SharedVolume SharedVolumeConfig `yaml:"shared_volume"`
	Bucket       BucketConfig       `yaml:"bucket"`
	Playbooks    PlaybookConfig     `yaml:"playbooks"`
	Tunnel       TunnelConfig       `yaml:"tunnel"`

	// StateDir holds the fleet record and the session directory.
	StateDir string `yaml:"state_dir"`
}

// ProviderConfig selects the cloud account and location.
type ProviderConfig struct {
	// Token is normally taken from HCLOUD_TOKEN.
	Token    string `yaml:"token"`
	Location string `yaml:"location"`
}

// SSHConfig describes the key used for every fleet instance.
type SSHConfig struct {
	// KeyName is the name the public key is registered under.
	KeyName string `yaml:"key_name"`
	// KeyFile is the private key path; generated when missing.
	KeyFile string `yaml:"key_file"`
	User    string `yaml:"user"`
}

// InstanceConfig holds defaults for an instance role.
type InstanceConfig struct {
	ServerType string `yaml:"server_type"`
	Image      string `yaml:"image"`
}

// SharedVolumeConfig describes the controller's shared block volume.
type SharedVolumeConfig struct {
	SizeGB    int    `yaml:"size_gb"`
	MountPath string `yaml:"mount_path"`
}

// BucketConfig describes the object-storage bucket used by the fleet.
// An empty Name disables bucket handling.
type BucketConfig struct {
	Name      string `yaml:"name"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// PlaybookConfig locates the remote configuration procedures.
type PlaybookConfig struct {
	Dir    string `yaml:"dir"`
	Binary string `yaml:"binary"`
}

// TunnelConfig describes the persistent tunnel opened after init.
type TunnelConfig struct {
	Enabled    bool   `yaml:"enabled"`
	RemotePort int    `yaml:"remote_port"`
	LocalPort  int    `yaml:"local_port"`
	Prefix     string `yaml:"prefix"`
}

// RecordPath is the location of the working-fleet record.
func (c *Config) RecordPath() string {
	return filepath.Join(c.StateDir, RecordFileName)
}

// SessionDir holds tunnel sockets and generated inventories.
func (c *Config) SessionDir() string {
	return filepath.Join(c.StateDir, SessionDirName)
}
