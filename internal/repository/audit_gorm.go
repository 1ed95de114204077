package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pneumoscan/pneumoscan/internal/domain/audit"
)

type gormAuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &gormAuditRepository{db: db}
}

func (r *gormAuditRepository) Create(ctx context.Context, entry *audit.Log) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}
