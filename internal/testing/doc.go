// Package testing provides fakes and mocks shared by package tests.
//
//   - FakeCloud: in-memory provisioning.Cloud with scripted instance and
//     volume state progressions and a call log
//   - MockPlaybookRunner, MockBucketStore: testify mocks
//   - FakeRunner: recording procexec.Runner with scripted responses
//   - FakeShell: recording remote shell with scripted responses
//
// Import it under an alias, for example:
//
//	import testutil "github.com/imamik/fleetctl/internal/testing"
package testing
