package core

import (
	"context"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
	"github.com/stretchr/testify/mock"
)

// MockFetcher is a mock implementation of Fetcher for testing.
type MockFetcher struct {
	mock.Mock
}

var _ contract.Fetcher = &MockFetcher{} // Compile-time check

// Do implements the Fetcher interface.
func (m *MockFetcher) Do(ctx context.Context, desc schema.RequestDescriptor) (*schema.ResponseSnapshot, error) {
	args := m.Called(ctx, desc)
	snap, _ := args.Get(0).(*schema.ResponseSnapshot)
	return snap, args.Error(1)
}

// MockNotifier is a mock implementation of Notifier for testing.
type MockNotifier struct {
	mock.Mock
}

var _ contract.Notifier = &MockNotifier{} // Compile-time check

// Display implements the Notifier interface.
func (m *MockNotifier) Display(n schema.Notification) (string, error) {
	args := m.Called(n)
	return args.String(0), args.Error(1)
}

// Dismiss implements the Notifier interface.
func (m *MockNotifier) Dismiss(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockClaimer is a mock implementation of ClientClaimer for testing.
type MockClaimer struct {
	mock.Mock
}

var _ contract.ClientClaimer = &MockClaimer{} // Compile-time check

// Claim implements the ClientClaimer interface.
func (m *MockClaimer) Claim(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// OpenRoot implements the ClientClaimer interface.
func (m *MockClaimer) OpenRoot(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
