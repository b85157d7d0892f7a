package fleet

import (
	"fmt"
	"time"
)

// InstanceState is the provider-reported lifecycle state of an instance.
type InstanceState string

// Provider states understood by the launcher and teardown logic.
const (
	StatePending    InstanceState = "pending"
	StateRunning    InstanceState = "running"
	StateStopping   InstanceState = "stopping"
	StateStopped    InstanceState = "stopped"
	StateTerminated InstanceState = "terminated"
)

// IsTerminal reports whether an instance in this state will never become
// addressable without intervention.
func (s InstanceState) IsTerminal() bool {
	switch s {
	case StateStopping, StateStopped, StateTerminated:
		return true
	default:
		return false
	}
}

// Instance is a point-in-time view of a compute instance.
type Instance struct {
	ID           string
	Name         string
	InstanceType string
	State        InstanceState
	// Address is the public address, empty until the provider assigns one.
	Address    string
	Tags       map[string]string
	LaunchedAt time.Time
}

// Addressable reports whether the instance is running and has an address.
func (i Instance) Addressable() bool {
	return i.State == StateRunning && i.Address != ""
}

// LaunchState tracks one instance through launch and tagging.
type LaunchState int

// Launch states. Transitions are monotonic: Requested -> RunningNoAddr ->
// Addressable -> Tagged, or Failed from any non-final state.
const (
	LaunchRequested LaunchState = iota
	LaunchRunningNoAddr
	LaunchAddressable
	LaunchTagged
	LaunchFailed
)

func (s LaunchState) String() string {
	switch s {
	case LaunchRequested:
		return "REQUESTED"
	case LaunchRunningNoAddr:
		return "RUNNING_NO_ADDR"
	case LaunchAddressable:
		return "ADDRESSABLE"
	case LaunchTagged:
		return "TAGGED"
	case LaunchFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("LaunchState(%d)", int(s))
	}
}

// InstanceHandle is the launcher's record of a requested instance.
type InstanceHandle struct {
	ID      string
	Group   string
	State   LaunchState
	Address string
}

// VolumeStatus is the provider-reported status of a block volume.
type VolumeStatus string

// Volume statuses.
const (
	VolumeCreating  VolumeStatus = "creating"
	VolumeAvailable VolumeStatus = "available"
)

// Volume is a point-in-time view of a block volume.
type Volume struct {
	ID     string
	Name   string
	SizeGB int
	Status VolumeStatus
	// AttachedTo is the instance id the volume is attached to, if any.
	AttachedTo string
	Tags       map[string]string
}

// SecurityGroup is a named set of network access rules owned by a fleet.
type SecurityGroup struct {
	ID   string
	Name string
	Tags map[string]string
}
