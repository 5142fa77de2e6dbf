package database

import (
	"fmt"

	"busline/internal/bookings"

	"gorm.io/gorm"
)

var constraintStatements = []string{
	// a seat can sit in at most one active booking
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + bookings.ConstraintActiveSeat + `
		ON booking_seats (bus_id, seat_id)
		WHERE active`,

	`CREATE UNIQUE INDEX IF NOT EXISTS ` + bookings.ConstraintIdempotencyKey + `
		ON bookings (user_id, idempotency_key)
		WHERE idempotency_key IS NOT NULL`,

	`CREATE INDEX IF NOT EXISTS idx_bookings_bus_status
		ON bookings (bus_id, status)`,

	`CREATE INDEX IF NOT EXISTS idx_bookings_user_created
		ON bookings (user_id, created_at DESC)`,
}

// MigrateConstraints adds the partial indexes AutoMigrate cannot express
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}
	return nil
}
