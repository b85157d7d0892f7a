package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/fleetctl/internal/platform/ansible"
)

// MockPlaybookRunner is a testify mock of provisioning.PlaybookRunner.
type MockPlaybookRunner struct {
	mock.Mock
}

// Run records the call and returns the configured result.
func (m *MockPlaybookRunner) Run(ctx context.Context, run ansible.Run) (ansible.Result, error) {
	args := m.Called(ctx, run)
	res, _ := args.Get(0).(ansible.Result)
	return res, args.Error(1)
}

// MockBucketStore is a testify mock of provisioning.BucketStore.
type MockBucketStore struct {
	mock.Mock
}

// BucketExists records the call and returns the configured result.
func (m *MockBucketStore) BucketExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// CreateBucket records the call and returns the configured error.
func (m *MockBucketStore) CreateBucket(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
