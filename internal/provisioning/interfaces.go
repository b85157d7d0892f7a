package provisioning

import (
	"context"

	"github.com/imamik/fleetctl/internal/fleet"
	"github.com/imamik/fleetctl/internal/platform/ansible"
)

// Phase is one provisioning step.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the phase.
	Provision(ctx *Context) error
}

// LaunchSpec requests Count identical instances for one group.
type LaunchSpec struct {
	Group        string
	Names        []string
	InstanceType string
	Image        string
	Location     string
	SSHKeys      []string
	// Tags are applied at creation. They must not include the
	// fleet-ownership tag, which is applied once the instance is addressable.
	Tags map[string]string
}

// Count is the number of instances requested.
func (s LaunchSpec) Count() int {
	return len(s.Names)
}

// Reservation is the provider's answer to one LaunchInstances call.
type Reservation struct {
	Group       string
	InstanceIDs []string
}

// VolumeSpec describes a block volume.
type VolumeSpec struct {
	Name     string
	SizeGB   int
	Location string
	Tags     map[string]string
}

// Protocol of a security group rule.
type Protocol string

// Rule protocols.
const (
	ProtocolTCP  Protocol = "tcp"
	ProtocolUDP  Protocol = "udp"
	ProtocolICMP Protocol = "icmp"
)

// IngressRule opens a port (or ICMP) to the given source CIDRs.
type IngressRule struct {
	Description string
	Protocol    Protocol
	Port        string
	Sources     []string
}

// SecurityGroupSpec describes a fleet security group. Instances carrying
// every tag in Selector are members.
type SecurityGroupSpec struct {
	Name     string
	Rules    []IngressRule
	Selector map[string]string
	Tags     map[string]string
}

// Cloud is the provider capability used by provisioning and teardown. All
// calls are synchronous; none waits for instance readiness.
type Cloud interface {
	// LaunchInstances requests all instances of one group in a single call.
	LaunchInstances(ctx context.Context, spec LaunchSpec) (Reservation, error)
	// DescribeInstances reports the given instances. Instances the provider
	// no longer knows are reported as terminated.
	DescribeInstances(ctx context.Context, ids []string) ([]fleet.Instance, error)
	// ListInstances returns instances carrying every tag, restricted to the
	// given states when any are passed.
	ListInstances(ctx context.Context, tags map[string]string, states ...fleet.InstanceState) ([]fleet.Instance, error)
	TagInstances(ctx context.Context, ids []string, tags map[string]string) error
	TerminateInstances(ctx context.Context, ids []string) error

	CreateVolume(ctx context.Context, spec VolumeSpec) (fleet.Volume, error)
	DescribeVolume(ctx context.Context, id string) (fleet.Volume, error)
	AttachVolume(ctx context.Context, volumeID, instanceID string) error
	ListVolumes(ctx context.Context, tags map[string]string) ([]fleet.Volume, error)
	DeleteVolume(ctx context.Context, id string) error

	// CreateSecurityGroup replaces any existing group of the same name.
	CreateSecurityGroup(ctx context.Context, spec SecurityGroupSpec) (fleet.SecurityGroup, error)
	// AllowPeers permits all traffic between the given addresses.
	AllowPeers(ctx context.Context, groupID string, addresses []string) error
	ListSecurityGroups(ctx context.Context, tags map[string]string) ([]fleet.SecurityGroup, error)
	DeleteSecurityGroup(ctx context.Context, id string) error

	// EnsureSSHKey registers publicKey under name unless already present.
	EnsureSSHKey(ctx context.Context, name string, publicKey []byte, tags map[string]string) error
}

// BucketStore checks for and creates object-storage buckets.
type BucketStore interface {
	BucketExists(ctx context.Context, name string) (bool, error)
	CreateBucket(ctx context.Context, name string) error
}

// PlaybookRunner executes a named remote configuration procedure against an
// inventory. Failures are opaque and carry the captured output.
type PlaybookRunner interface {
	Run(ctx context.Context, run ansible.Run) (ansible.Result, error)
}
