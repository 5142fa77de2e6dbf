package database

import (
	"fmt"

	"busline/internal/bookings"
	"busline/internal/buses"
	"busline/internal/points"
	"busline/internal/seats"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	if err := db.AutoMigrate(
		&buses.Bus{},
		&seats.Seat{},
		&points.Point{},
		&bookings.Booking{},
		&bookings.BookingSeat{},
	); err != nil {
		return err
	}

	return MigrateConstraints(db)
}
