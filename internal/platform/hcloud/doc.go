// Package hcloud implements the fleet cloud capability on the Hetzner Cloud
// API.
//
// # Resource Mapping
//
// The provider-neutral vocabulary used by provisioning maps onto Hetzner
// resources as follows:
//
//   - instance: server. Instance ids are decimal server ids.
//   - tags: server, volume and firewall labels.
//   - security group: firewall, applied to every server that carries the
//     fleet-ownership label through a label-selector resource.
//   - volume: volume. Attachment is reported once the volume names a server.
//
// # Instance States
//
// Server statuses collapse onto fleet.InstanceState:
//
//   - initializing, starting, migrating, rebuilding, unknown: pending
//   - running: running
//   - stopping, deleting: stopping
//   - off: stopped
//   - absent: terminated
//
// # Retry Behavior
//
// Calls are synchronous and do not wait for instance readiness. Deletes
// retry with exponential backoff while a resource is locked or still in
// use. Invalid-input errors are never retried.
package hcloud
