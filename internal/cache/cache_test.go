package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/tenant"
)

type fakeKV struct {
	data   map[string]string
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

const testOwner = tenant.Owner("doctor@clinic.org")

func testRecords() []*record.ScanRecord {
	return []*record.ScanRecord{
		{
			ID:                  uuid.New(),
			Owner:               testOwner.String(),
			Name:                "Asha",
			Surname:             "Verma",
			Age:                 34,
			MobileNumber:        "9876543210",
			PredictionLabel:     record.LabelPneumonia,
			PneumoniaPercentage: 82.45,
			NormalPercentage:    17.55,
			CreatedAt:           time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestHistoryCacheRoundTrip(t *testing.T) {
	kv := newFakeKV()
	c := NewHistoryCache(kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, ok := c.Get(ctx, testOwner)
	assert.False(t, ok)

	want := testRecords()
	c.Set(ctx, testOwner, want)

	got, ok := c.Get(ctx, testOwner)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, want[0].Name, got[0].Name)
	assert.Equal(t, want[0].PneumoniaPercentage, got[0].PneumoniaPercentage)
}

func TestHistoryCacheRestoresOwner(t *testing.T) {
	// Owner never travels in JSON, so the cache has to put it back from the
	// key when a cached list is rehydrated.
	kv := newFakeKV()
	c := NewHistoryCache(kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, testOwner, testRecords())

	got, ok := c.Get(ctx, testOwner)
	require.True(t, ok)
	assert.Equal(t, testOwner.String(), got[0].Owner)
}

func TestHistoryCacheInvalidate(t *testing.T) {
	kv := newFakeKV()
	c := NewHistoryCache(kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, testOwner, testRecords())
	c.Invalidate(ctx, testOwner)

	_, ok := c.Get(ctx, testOwner)
	assert.False(t, ok)
}

func TestHistoryCacheDropsCorruptEntry(t *testing.T) {
	kv := newFakeKV()
	c := NewHistoryCache(kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	kv.data["pneumoscan:history:"+testOwner.String()] = "{not json"

	_, ok := c.Get(ctx, testOwner)
	assert.False(t, ok)
	assert.Empty(t, kv.data)
}

func TestHistoryCacheBackendErrorsAreSoft(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	c := NewHistoryCache(kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, ok := c.Get(ctx, testOwner)
	assert.False(t, ok)

	// Set must not panic or surface the failure.
	c.Set(ctx, testOwner, testRecords())
}

func TestNilHistoryCacheIsDisabled(t *testing.T) {
	var c *HistoryCache
	ctx := context.Background()

	_, ok := c.Get(ctx, testOwner)
	assert.False(t, ok)

	c.Set(ctx, testOwner, testRecords())
	c.Invalidate(ctx, testOwner)
}
