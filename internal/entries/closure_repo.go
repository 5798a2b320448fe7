package entries

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/northfarm/sales-backend/pkg/db/models"
)

// ClosureRepository manages the closed-date marks. Presence of a row means
// the date is locked.
type ClosureRepository interface {
	WithTx(tx *gorm.DB) ClosureRepository
	IsClosed(ctx context.Context, date string) (bool, error)
	Get(ctx context.Context, date string) (*models.ClosedDate, error)
	MarkClosed(ctx context.Context, mark *models.ClosedDate) error
	UnmarkClosed(ctx context.Context, date string) (bool, error)
	List(ctx context.Context) ([]models.ClosedDate, error)
}

type closureRepository struct {
	db *gorm.DB
}

// NewClosureRepository returns a closure repository bound to the provided database.
func NewClosureRepository(db *gorm.DB) ClosureRepository {
	return &closureRepository{db: db}
}

func (r *closureRepository) WithTx(tx *gorm.DB) ClosureRepository {
	if tx == nil {
		return r
	}
	return &closureRepository{db: tx}
}

func (r *closureRepository) IsClosed(ctx context.Context, date string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ClosedDate{}).
		Where("date = ?", date).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *closureRepository) Get(ctx context.Context, date string) (*models.ClosedDate, error) {
	var mark models.ClosedDate
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&mark).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mark, nil
}

func (r *closureRepository) MarkClosed(ctx context.Context, mark *models.ClosedDate) error {
	return r.db.WithContext(ctx).Create(mark).Error
}

func (r *closureRepository) UnmarkClosed(ctx context.Context, date string) (bool, error) {
	result := r.db.WithContext(ctx).Where("date = ?", date).Delete(&models.ClosedDate{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *closureRepository) List(ctx context.Context) ([]models.ClosedDate, error) {
	var rows []models.ClosedDate
	if err := r.db.WithContext(ctx).
		Order("date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
