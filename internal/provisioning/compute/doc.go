// Package compute launches the fleet's instances and its shared volume.
//
// Each group is requested from the provider in a single call. The
// resulting batch is then polled as a whole: every poll cycle describes
// all instances that are not yet addressable in one round trip. An
// instance moves through
//
//	REQUESTED -> RUNNING_NO_ADDR -> ADDRESSABLE -> TAGGED
//
// and the batch completes only when every member is TAGGED. An instance
// reported as stopping, stopped or terminated fails the whole batch before
// any member is tagged. Instances that were already launched are left for
// teardown to remove.
//
// Instances are created with reservation tags only. The fleet-ownership
// tag is applied once per instance at the ADDRESSABLE -> TAGGED transition.
package compute
