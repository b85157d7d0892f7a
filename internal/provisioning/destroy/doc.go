// Package destroy tears a fleet down.
//
// Teardown runs a fixed sequence of steps: terminate instances, wait for
// termination, delete volumes, delete security groups, remove local state.
// Every step is attempted even when an earlier one failed. Failures are
// collected into a *fleet.PartialTeardownError naming each failed
// category.
package destroy
