// Package config loads the operator profile and fleet definitions.
//
// The profile (~/.fleetctl.yml) holds provider credentials, SSH key
// locations, instance defaults, bucket and playbook settings. A fleet
// definition names one fleet: its controller and worker groups. Secrets may
// be supplied through the environment instead of the profile.
package config
