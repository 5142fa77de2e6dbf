package points

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, point *Point) error
	GetByID(ctx context.Context, busID, pointID uuid.UUID) (*Point, error)
	ListByBus(ctx context.Context, busID uuid.UUID, kind Kind) ([]Point, error)
	Update(ctx context.Context, point *Point) error
	Delete(ctx context.Context, busID, pointID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, point *Point) error {
	return r.db.WithContext(ctx).Create(point).Error
}

func (r *repository) GetByID(ctx context.Context, busID, pointID uuid.UUID) (*Point, error) {
	var point Point
	err := r.db.WithContext(ctx).First(&point, "bus_id = ? AND id = ?", busID, pointID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPointNotFound
		}
		return nil, err
	}
	return &point, nil
}

func (r *repository) ListByBus(ctx context.Context, busID uuid.UUID, kind Kind) ([]Point, error) {
	var list []Point
	err := r.db.WithContext(ctx).
		Where("bus_id = ? AND kind = ?", busID, kind).
		Order("point_time ASC, name ASC").
		Find(&list).Error
	return list, err
}

func (r *repository) Update(ctx context.Context, point *Point) error {
	return r.db.WithContext(ctx).Save(point).Error
}

func (r *repository) Delete(ctx context.Context, busID, pointID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("bus_id = ? AND id = ?", busID, pointID).Delete(&Point{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPointNotFound
	}
	return nil
}
