// Package provisioning provides shared types, interfaces, and orchestration
// for fleet provisioning.
//
// # Subpackages
//
//   - infrastructure/ — bucket, security group and SSH key preparation
//   - compute/ — instance group launch, tagging and the shared volume
//   - configure/ — remote configuration of the controller and workers
//   - access/ — fleet record and persistent tunnel publication
//   - destroy/ — best-effort fleet teardown
//
// # Core Types
//
// Context carries configuration, the fleet definition, state, provider
// capabilities and the logger. Phase is one provisioning step; a Pipeline
// runs phases in order and stops at the first failure. State accumulates
// results that later phases depend on.
package provisioning
