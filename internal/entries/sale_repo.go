package entries

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/northfarm/sales-backend/pkg/db/models"
)

// SaleRepository manages persistence for sale entries. It is a pure data
// container: validation lives in the ledger service.
type SaleRepository interface {
	WithTx(tx *gorm.DB) SaleRepository
	Create(ctx context.Context, entry *models.SaleEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SaleEntry, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.SaleEntry, error)
	ListByYear(ctx context.Context, year int) ([]models.SaleEntry, error)
	CountByDate(ctx context.Context, date string) (int64, error)
	Years(ctx context.Context) ([]int, error)
}

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository returns a sale repository bound to the provided database.
func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) WithTx(tx *gorm.DB) SaleRepository {
	if tx == nil {
		return r
	}
	return &saleRepository{db: tx}
}

func (r *saleRepository) Create(ctx context.Context, entry *models.SaleEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SaleEntry, error) {
	var entry models.SaleEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SaleEntry{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *saleRepository) List(ctx context.Context) ([]models.SaleEntry, error) {
	var rows []models.SaleEntry
	if err := r.db.WithContext(ctx).
		Order("date DESC").
		Order("location ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *saleRepository) ListByYear(ctx context.Context, year int) ([]models.SaleEntry, error) {
	var rows []models.SaleEntry
	if err := r.db.WithContext(ctx).
		Where("date LIKE ?", fmt.Sprintf("%04d-%%", year)).
		Order("date DESC").
		Order("location ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Years returns the distinct years carrying at least one entry, newest first.
// substr works on both the postgres and sqlite dialects.
func (r *saleRepository) Years(ctx context.Context) ([]int, error) {
	var raw []string
	if err := r.db.WithContext(ctx).
		Model(&models.SaleEntry{}).
		Distinct("substr(date, 1, 4)").
		Order("substr(date, 1, 4) DESC").
		Pluck("substr(date, 1, 4)", &raw).Error; err != nil {
		return nil, err
	}
	years := make([]int, 0, len(raw))
	for _, y := range raw {
		var parsed int
		if _, err := fmt.Sscanf(y, "%d", &parsed); err == nil && parsed > 0 {
			years = append(years, parsed)
		}
	}
	return years, nil
}

func (r *saleRepository) CountByDate(ctx context.Context, date string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleEntry{}).
		Where("date = ?", date).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
