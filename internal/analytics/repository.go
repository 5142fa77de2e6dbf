package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetDeckSummaries(ctx context.Context, busID uuid.UUID) ([]DeckSummary, error)
	GetBookingSummary(ctx context.Context, busID uuid.UUID) (*BookingSummary, error)
	GetPointUsage(ctx context.Context, busID uuid.UUID) (boarding, dropping []PointUsage, err error)
	GetDailyBookingStats(ctx context.Context, busID uuid.UUID, since time.Time) ([]DailyBookingStats, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetDeckSummaries(ctx context.Context, busID uuid.UUID) ([]DeckSummary, error) {
	var decks []DeckSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			deck,
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'sold' THEN 1 ELSE 0 END) AS sold,
			SUM(CASE WHEN NOT sellable THEN 1 ELSE 0 END) AS blocked
		FROM seats
		WHERE bus_id = ?
		GROUP BY deck
		ORDER BY deck
	`, busID).Scan(&decks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get seat summary: %w", err)
	}
	return decks, nil
}

func (r *repository) GetBookingSummary(ctx context.Context, busID uuid.UUID) (*BookingSummary, error) {
	var summary BookingSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			SUM(CASE WHEN status = 'CONFIRMED' THEN 1 ELSE 0 END) AS confirmed,
			SUM(CASE WHEN status = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled,
			COALESCE(SUM(CASE WHEN status = 'CONFIRMED' THEN total_amount ELSE 0 END), 0) AS revenue,
			COALESCE(AVG(CASE WHEN status = 'CONFIRMED' THEN total_amount END), 0) AS average_value
		FROM bookings
		WHERE bus_id = ?
	`, busID).Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get booking summary: %w", err)
	}

	var seatsBooked int64
	err = r.db.WithContext(ctx).Table("booking_seats").
		Where("bus_id = ? AND active", busID).
		Count(&seatsBooked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count booked seats: %w", err)
	}
	summary.SeatsBooked = int(seatsBooked)
	summary.CancellationRate = cancellationRate(summary.Confirmed, summary.Cancelled)
	return &summary, nil
}

func (r *repository) GetPointUsage(ctx context.Context, busID uuid.UUID) ([]PointUsage, []PointUsage, error) {
	usage := func(prefix string) ([]PointUsage, error) {
		var out []PointUsage
		err := r.db.WithContext(ctx).Raw(fmt.Sprintf(`
			SELECT %[1]s_name AS name, %[1]s_time AS time, COUNT(*) AS bookings
			FROM bookings
			WHERE bus_id = ? AND status = 'CONFIRMED'
			GROUP BY %[1]s_name, %[1]s_time
			ORDER BY %[1]s_time ASC
		`, prefix), busID).Scan(&out).Error
		return out, err
	}

	boarding, err := usage("boarding")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get boarding usage: %w", err)
	}
	dropping, err := usage("dropping")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get dropping usage: %w", err)
	}
	return boarding, dropping, nil
}

func (r *repository) GetDailyBookingStats(ctx context.Context, busID uuid.UUID, since time.Time) ([]DailyBookingStats, error) {
	var stats []DailyBookingStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS date,
			COUNT(*) AS total_bookings,
			SUM(CASE WHEN status = 'CONFIRMED' THEN 1 ELSE 0 END) AS confirmed_bookings,
			SUM(CASE WHEN status = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled_bookings,
			COALESCE(SUM(CASE WHEN status = 'CONFIRMED' THEN total_amount ELSE 0 END), 0) AS revenue,
			COALESCE(AVG(CASE WHEN status = 'CONFIRMED' THEN total_amount END), 0) AS average_value
		FROM bookings
		WHERE bus_id = ? AND created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at) DESC
	`, busID, since).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily booking stats: %w", err)
	}
	return stats, nil
}
