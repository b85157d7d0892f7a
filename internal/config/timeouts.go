package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds the configurable waits and polling intervals.
type Timeouts struct {
	LaunchPoll        time.Duration // Interval between instance batch polls
	Terminate         time.Duration // Deadline for instances to reach terminated
	TerminatePoll     time.Duration // Interval between termination checks
	VolumeAvailable   time.Duration // Deadline for a new volume to become available
	VolumePoll        time.Duration // Interval between volume status checks
	VolumeAttach      time.Duration // Deadline for a volume attachment
	VolumeAttachPoll  time.Duration // Interval between attachment checks
	TunnelCheck       time.Duration // Deadline for a tunnel control socket to answer
	TunnelCheckPoll   time.Duration // Interval between tunnel checks
	RetryMaxAttempts  int           // Retries for transient provider errors
	RetryInitialDelay time.Duration // First backoff delay
}

// LoadTimeouts loads timeouts from the environment, falling back to
// defaults for unset, unparsable or non-positive values.
//
// Environment Variables:
//   - FLEETCTL_POLL_INTERVAL_LAUNCH (default: 5s)
//   - FLEETCTL_TIMEOUT_TERMINATE (default: 5m)
//   - FLEETCTL_TIMEOUT_VOLUME (default: 2m)
//   - FLEETCTL_TIMEOUT_TUNNEL_CHECK (default: 10s)
//   - FLEETCTL_RETRY_MAX_ATTEMPTS (default: 5)
//   - FLEETCTL_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	volume := parseDuration("FLEETCTL_TIMEOUT_VOLUME", 2*time.Minute)
	return &Timeouts{
		LaunchPoll:        parseDuration("FLEETCTL_POLL_INTERVAL_LAUNCH", 5*time.Second),
		Terminate:         parseDuration("FLEETCTL_TIMEOUT_TERMINATE", 5*time.Minute),
		TerminatePoll:     2 * time.Second,
		VolumeAvailable:   volume,
		VolumePoll:        2 * time.Second,
		VolumeAttach:      volume,
		VolumeAttachPoll:  3 * time.Second,
		TunnelCheck:       parseDuration("FLEETCTL_TIMEOUT_TUNNEL_CHECK", 10*time.Second),
		TunnelCheckPoll:   500 * time.Millisecond,
		RetryMaxAttempts:  parseInt("FLEETCTL_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("FLEETCTL_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a positive duration from an environment variable.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// parseInt parses an integer from an environment variable.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
