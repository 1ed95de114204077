package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pneumoscan/pneumoscan/internal/tenant"
)

type gormTenantStore struct {
	db *gorm.DB
}

func NewTenantStore(db *gorm.DB) tenant.Store {
	return &gormTenantStore{db: db}
}

// EnsureProvisioned registers the owner on first write. ON CONFLICT DO
// NOTHING makes concurrent first-writers for the same owner converge on a
// single row without double-allocation.
func (s *gormTenantStore) EnsureProvisioned(ctx context.Context, owner tenant.Owner) error {
	reg := &tenant.Registration{Owner: owner.String()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reg).Error
	if err != nil {
		return fmt.Errorf("provisioning owner namespace: %w", err)
	}
	return nil
}

func (s *gormTenantStore) IsProvisioned(ctx context.Context, owner tenant.Owner) (bool, error) {
	var reg tenant.Registration
	err := s.db.WithContext(ctx).First(&reg, "owner = ?", owner.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("looking up owner registration: %w", err)
	}
	return true, nil
}
