// Package fleet defines the provider-neutral fleet model shared by the
// provisioning, tunnel and teardown packages: instance and volume views,
// the per-instance launch state machine and the error taxonomy.
package fleet
