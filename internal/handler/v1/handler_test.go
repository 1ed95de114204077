package v1

import (
	"context"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pneumoscan/pneumoscan/internal/analytics"
	"github.com/pneumoscan/pneumoscan/internal/domain/audit"
	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/service"
	"github.com/pneumoscan/pneumoscan/internal/tenant"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryRepository is a map-backed stand-in for the database layer, scoped by
// owner the same way the real one is.
type memoryRepository struct {
	mu      sync.Mutex
	records map[tenant.Owner]map[uuid.UUID]*record.ScanRecord
	clock   time.Time
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		records: map[tenant.Owner]map[uuid.UUID]*record.ScanRecord{},
		clock:   time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memoryRepository) Create(_ context.Context, owner tenant.Owner, r *record.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Owner = owner.String()
	m.clock = m.clock.Add(time.Hour)
	r.CreatedAt = m.clock
	if m.records[owner] == nil {
		m.records[owner] = map[uuid.UUID]*record.ScanRecord{}
	}
	cp := *r
	m.records[owner][r.ID] = &cp
	return nil
}

// seed inserts a record as-is, keeping whatever CreatedAt the test chose.
func (m *memoryRepository) seed(owner tenant.Owner, r *record.ScanRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Owner = owner.String()
	if m.records[owner] == nil {
		m.records[owner] = map[uuid.UUID]*record.ScanRecord{}
	}
	m.records[owner][r.ID] = r
}

func (m *memoryRepository) GetByID(_ context.Context, owner tenant.Owner, id uuid.UUID) (*record.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[owner][id]
	if !ok {
		return nil, record.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memoryRepository) List(_ context.Context, owner tenant.Owner) ([]*record.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*record.ScanRecord, 0, len(m.records[owner]))
	for _, r := range m.records[owner] {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepository) Update(_ context.Context, owner tenant.Owner, id uuid.UUID, cmd *record.UpdateRecordCommand) (*record.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[owner][id]
	if !ok {
		return nil, record.ErrRecordNotFound
	}
	if cmd.Name != nil {
		r.Name = *cmd.Name
	}
	if cmd.Surname != nil {
		r.Surname = *cmd.Surname
	}
	if cmd.Age != nil {
		r.Age = *cmd.Age
	}
	if cmd.MobileNumber != nil {
		r.MobileNumber = *cmd.MobileNumber
	}
	cp := *r
	return &cp, nil
}

func (m *memoryRepository) Delete(_ context.Context, owner tenant.Owner, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[owner][id]; !ok {
		return record.ErrRecordNotFound
	}
	delete(m.records[owner], id)
	return nil
}

type memoryTenantStore struct {
	mu     sync.Mutex
	owners map[tenant.Owner]bool
}

func (m *memoryTenantStore) EnsureProvisioned(_ context.Context, owner tenant.Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owners == nil {
		m.owners = map[tenant.Owner]bool{}
	}
	m.owners[owner] = true
	return nil
}

func (m *memoryTenantStore) IsProvisioned(_ context.Context, owner tenant.Owner) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[owner], nil
}

type discardAuditRepository struct{}

func (discardAuditRepository) Create(context.Context, *audit.Log) error { return nil }

type testEnv struct {
	router   *gin.Engine
	repo     *memoryRepository
	auditSvc *service.AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zap.NewNop()
	repo := newMemoryRepository()
	auditSvc := service.NewAuditService(discardAuditRepository{}, nil, log)
	t.Cleanup(auditSvc.Shutdown)

	recordSvc := service.NewRecordService(&memoryTenantStore{}, repo, nil, auditSvc, nil, log)
	historySvc := service.NewHistoryService(recordSvc, analytics.NewEngine(time.UTC), nil, nil, log)

	router := gin.New()
	api := router.Group("/api/v1")
	RegisterRoutes(
		api,
		NewRecordHandler(recordSvc),
		NewHistoryHandler(historySvc),
		NewPredictHandler(historySvc),
		func(c *gin.Context) { c.Next() },
	)

	return &testEnv{router: router, repo: repo, auditSvc: auditSvc}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
