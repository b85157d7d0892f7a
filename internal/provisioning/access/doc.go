// Package access publishes a provisioned fleet to the local machine: it
// records the fleet as the working fleet and, when configured, opens a
// persistent tunnel to a controller service.
package access
