package registry

import (
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
	"github.com/stretchr/testify/mock"
)

// MockRegistry is a mock implementation of Registry for testing.
type MockRegistry struct {
	mock.Mock
}

var _ contract.Registry = &MockRegistry{} // Compile-time check

// Open implements the Registry interface.
func (m *MockRegistry) Open(name string) (contract.Store, error) {
	args := m.Called(name)
	store, _ := args.Get(0).(contract.Store)
	return store, args.Error(1)
}

// Delete implements the Registry interface.
func (m *MockRegistry) Delete(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

// ListNames implements the Registry interface.
func (m *MockRegistry) ListNames() ([]string, error) {
	args := m.Called()
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

// GetStatus implements the Registry interface.
func (m *MockRegistry) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the Registry interface.
func (m *MockRegistry) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockStore is a mock implementation of Store for testing.
type MockStore struct {
	mock.Mock
}

var _ contract.Store = &MockStore{} // Compile-time check

// Name implements the Store interface.
func (m *MockStore) Name() string {
	args := m.Called()
	return args.String(0)
}

// Match implements the Store interface.
func (m *MockStore) Match(key string) (*schema.ResponseSnapshot, error) {
	args := m.Called(key)
	snap, _ := args.Get(0).(*schema.ResponseSnapshot)
	return snap, args.Error(1)
}

// Put implements the Store interface.
func (m *MockStore) Put(key string, snap *schema.ResponseSnapshot) error {
	args := m.Called(key, snap)
	return args.Error(0)
}

// Evict implements the Store interface.
func (m *MockStore) Evict(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// MockOutbox is a mock implementation of Outbox for testing.
type MockOutbox struct {
	mock.Mock
}

var _ contract.Outbox = &MockOutbox{} // Compile-time check

// Enqueue implements the Outbox interface.
func (m *MockOutbox) Enqueue(task schema.SyncTask) error {
	args := m.Called(task)
	return args.Error(0)
}

// ListReady implements the Outbox interface.
func (m *MockOutbox) ListReady(limit int) ([]schema.SyncTask, error) {
	args := m.Called(limit)
	tasks, _ := args.Get(0).([]schema.SyncTask)
	return tasks, args.Error(1)
}

// Ack implements the Outbox interface.
func (m *MockOutbox) Ack(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// Nack implements the Outbox interface.
func (m *MockOutbox) Nack(id string, errMsg string) error {
	args := m.Called(id, errMsg)
	return args.Error(0)
}

// GetStatus implements the Outbox interface.
func (m *MockOutbox) GetStatus() (schema.OutboxStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.OutboxStatus), args.Error(1)
}

// Close implements the Outbox interface.
func (m *MockOutbox) Close() error {
	args := m.Called()
	return args.Error(0)
}
