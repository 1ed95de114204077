package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/pneumoscan/pneumoscan/internal/domain/audit"
	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/tenant"
)

var _ record.Repository = (*MockRecordRepository)(nil)

// MockRecordRepository is a func-per-method fake; unset methods fail loudly.
type MockRecordRepository struct {
	CreateFunc  func(ctx context.Context, owner tenant.Owner, r *record.ScanRecord) error
	GetByIDFunc func(ctx context.Context, owner tenant.Owner, id uuid.UUID) (*record.ScanRecord, error)
	ListFunc    func(ctx context.Context, owner tenant.Owner) ([]*record.ScanRecord, error)
	UpdateFunc  func(ctx context.Context, owner tenant.Owner, id uuid.UUID, cmd *record.UpdateRecordCommand) (*record.ScanRecord, error)
	DeleteFunc  func(ctx context.Context, owner tenant.Owner, id uuid.UUID) error
}

func (m *MockRecordRepository) Create(ctx context.Context, owner tenant.Owner, r *record.ScanRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, owner, r)
	}
	return errors.New("CreateFunc not set")
}

func (m *MockRecordRepository) GetByID(ctx context.Context, owner tenant.Owner, id uuid.UUID) (*record.ScanRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, owner, id)
	}
	return nil, errors.New("GetByIDFunc not set")
}

func (m *MockRecordRepository) List(ctx context.Context, owner tenant.Owner) ([]*record.ScanRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, owner)
	}
	return nil, errors.New("ListFunc not set")
}

func (m *MockRecordRepository) Update(ctx context.Context, owner tenant.Owner, id uuid.UUID, cmd *record.UpdateRecordCommand) (*record.ScanRecord, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, owner, id, cmd)
	}
	return nil, errors.New("UpdateFunc not set")
}

func (m *MockRecordRepository) Delete(ctx context.Context, owner tenant.Owner, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, owner, id)
	}
	return errors.New("DeleteFunc not set")
}

var _ tenant.Store = (*MockTenantStore)(nil)

// MockTenantStore records provisioning calls in memory.
type MockTenantStore struct {
	mu          sync.Mutex
	provisioned map[tenant.Owner]int

	EnsureErr error
}

func NewMockTenantStore() *MockTenantStore {
	return &MockTenantStore{provisioned: map[tenant.Owner]int{}}
}

func (m *MockTenantStore) EnsureProvisioned(_ context.Context, owner tenant.Owner) error {
	if m.EnsureErr != nil {
		return m.EnsureErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provisioned[owner]++
	return nil
}

func (m *MockTenantStore) IsProvisioned(_ context.Context, owner tenant.Owner) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provisioned[owner] > 0, nil
}

func (m *MockTenantStore) ProvisionCalls(owner tenant.Owner) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provisioned[owner]
}

var _ audit.Repository = (*MockAuditRepository)(nil)

// MockAuditRepository collects persisted entries for later assertions.
type MockAuditRepository struct {
	mu      sync.Mutex
	entries []*audit.Log
}

func (m *MockAuditRepository) Create(_ context.Context, entry *audit.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockAuditRepository) Entries() []*audit.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*audit.Log, len(m.entries))
	copy(out, m.entries)
	return out
}
