package config

// Defaults applied to profile fields left empty.
const (
	DefaultLocation           = "fsn1"
	DefaultSSHUser            = "root"
	DefaultSSHKeyName         = "fleetctl"
	DefaultControllerType     = "cx22"
	DefaultWorkerType         = "cx22"
	DefaultImage              = "ubuntu-24.04"
	DefaultSharedVolumeSizeGB = 20
	DefaultSharedVolumePath   = "/home/data/"
	DefaultBucketRegion       = "us-east-1"
	DefaultPlaybookBinary     = "ansible-playbook"
	DefaultTunnelPort         = 8080
	DefaultTunnelPrefix       = "marathon"

	StateDirName   = ".fleetctl"
	ProfileName    = ".fleetctl.yml"
	RecordFileName = "cluster_info.yml"
	SessionDirName = "session"
)

// Environment variables that override profile values.
const (
	EnvToken       = "HCLOUD_TOKEN"
	EnvS3AccessKey = "FLEETCTL_S3_ACCESS_KEY"
	EnvS3SecretKey = "FLEETCTL_S3_SECRET_KEY"
	EnvStateDir    = "FLEETCTL_STATE_DIR"
)
