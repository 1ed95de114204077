package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/tenant"
)

// gormRecordRepository stores every owner's records in one shared table.
// Isolation is enforced by the owner predicate stamped onto every query, not
// by structural namespacing.
type gormRecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) record.Repository {
	return &gormRecordRepository{db: db}
}

func (r *gormRecordRepository) scoped(owner tenant.Owner) *gorm.DB {
	return r.db.Where("owner = ?", owner.String())
}

func (r *gormRecordRepository) Create(ctx context.Context, owner tenant.Owner, rec *record.ScanRecord) error {
	rec.Owner = owner.String()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("inserting scan record: %w", err)
	}
	return nil
}

func (r *gormRecordRepository) GetByID(ctx context.Context, owner tenant.Owner, id uuid.UUID) (*record.ScanRecord, error) {
	var rec record.ScanRecord
	err := r.scoped(owner).WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, record.ErrRecordNotFound
		}
		return nil, fmt.Errorf("fetching scan record: %w", err)
	}
	return &rec, nil
}

func (r *gormRecordRepository) List(ctx context.Context, owner tenant.Owner) ([]*record.ScanRecord, error) {
	records := make([]*record.ScanRecord, 0)
	err := r.scoped(owner).WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing scan records: %w", err)
	}
	return records, nil
}

func (r *gormRecordRepository) Update(ctx context.Context, owner tenant.Owner, id uuid.UUID, cmd *record.UpdateRecordCommand) (*record.ScanRecord, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Surname != nil {
		updates["surname"] = *cmd.Surname
	}
	if cmd.Age != nil {
		updates["age"] = *cmd.Age
	}
	if cmd.MobileNumber != nil {
		updates["mobile_no"] = *cmd.MobileNumber
	}

	if len(updates) > 0 {
		res := r.scoped(owner).WithContext(ctx).
			Model(&record.ScanRecord{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("updating scan record: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, record.ErrRecordNotFound
		}
	}

	return r.GetByID(ctx, owner, id)
}

func (r *gormRecordRepository) Delete(ctx context.Context, owner tenant.Owner, id uuid.UUID) error {
	res := r.scoped(owner).WithContext(ctx).Delete(&record.ScanRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting scan record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return record.ErrRecordNotFound
	}
	return nil
}
