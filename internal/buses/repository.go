package buses

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, bus *Bus) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bus, error)
	List(ctx context.Context, filter ListFilter) ([]Bus, int64, error)
	Update(ctx context.Context, bus *Bus) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, bus *Bus) error {
	return r.db.WithContext(ctx).Create(bus).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Bus, error) {
	var bus Bus
	if err := r.db.WithContext(ctx).First(&bus, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusNotFound
		}
		return nil, err
	}
	return &bus, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Bus, int64, error) {
	query := r.db.WithContext(ctx).Model(&Bus{})

	if filter.Origin != "" {
		query = query.Where("LOWER(origin) = ?", strings.ToLower(filter.Origin))
	}
	if filter.Destination != "" {
		query = query.Where("LOWER(destination) = ?", strings.ToLower(filter.Destination))
	}
	if filter.Date != nil {
		start := *filter.Date
		query = query.Where("departure_at >= ? AND departure_at < ?", start, start.AddDate(0, 0, 1))
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var buses []Bus
	offset := (filter.Page - 1) * filter.Limit
	err := query.Order("departure_at ASC").Offset(offset).Limit(filter.Limit).Find(&buses).Error
	return buses, total, err
}

func (r *repository) Update(ctx context.Context, bus *Bus) error {
	return r.db.WithContext(ctx).Save(bus).Error
}
