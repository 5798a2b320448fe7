package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/northfarm/sales-backend/pkg/db/models"
)

// Repository manages persistence for the bounded audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, record *models.AuditRecord) error
	PruneBeyond(ctx context.Context, cap int) error
	Recent(ctx context.Context, limit int) ([]models.AuditRecord, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, record *models.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// PruneBeyond deletes everything older than the newest cap records.
func (r *repository) PruneBeyond(ctx context.Context, cap int) error {
	if cap <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM audit_records WHERE id NOT IN (
			SELECT id FROM audit_records ORDER BY created_at DESC LIMIT ?
		)`, cap).Error
}

func (r *repository) Recent(ctx context.Context, limit int) ([]models.AuditRecord, error) {
	var rows []models.AuditRecord
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AuditRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
