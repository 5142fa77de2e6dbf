package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"busline/internal/buses"
	"busline/internal/points"
	"busline/internal/seats"
	"busline/internal/shared/config"
	"busline/internal/shared/constants"
	"busline/internal/shared/database"
	"busline/pkg/cache"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const demoOwnerID = "operator-demo"

type Seeder struct {
	db *database.DB
}

func main() {
	_ = godotenv.Load()
	fmt.Println("🌱 Starting Busline Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("\n🌱 Seeding database...")
	busID, err := seeder.SeedAll(context.Background())
	if err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Printf("\n🎉 Seeding completed. Demo bus: %s\n", busID)
	fmt.Printf("   Seat map: GET %s/buses/%s/seats\n", cfg.GetAPIBasePath(), busID)
}

// CleanDatabase truncates the booking tables, dependents first
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"booking_seats",
		"bookings",
		"bus_points",
		"seats",
		"buses",
	}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll creates one overnight bus with two decks, its points, and a few seats already sold
func (s *Seeder) SeedAll(ctx context.Context) (uuid.UUID, error) {
	busID, err := s.SeedBus()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to seed bus: %w", err)
	}
	if err := s.SeedSeats(busID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to seed seats: %w", err)
	}
	if err := s.SeedPoints(busID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to seed points: %w", err)
	}

	// drop cached catalogs, points and holds left from earlier runs
	if s.db.Redis != nil {
		n, err := cache.NewService(s.db.Redis).DeletePattern(ctx, constants.CACHE_PREFIX+":*")
		if err != nil {
			log.Printf("Warning: failed to clear Redis keys: %v", err)
		} else {
			fmt.Printf("  🧽 Cleared %d Redis keys\n", n)
		}
	}
	return busID, nil
}

func (s *Seeder) SeedBus() (uuid.UUID, error) {
	fmt.Println("  🚌 Seeding bus...")

	departure := time.Now().UTC().Add(48 * time.Hour).Truncate(24 * time.Hour).Add(21 * time.Hour)
	bus := buses.Bus{
		ID:           uuid.New(),
		Name:         "Night Rider 402",
		OperatorName: "Busline Travels",
		OwnerID:      demoOwnerID,
		BusType:      "AC Sleeper (2+1)",
		Origin:       "Bengaluru",
		Destination:  "Chennai",
		DepartureAt:  departure,
		ArrivalAt:    departure.Add(8*time.Hour + 30*time.Minute),
	}
	if err := s.db.PostgreSQL.Create(&bus).Error; err != nil {
		return uuid.Nil, err
	}

	fmt.Printf("    ✅ Created bus: %s (%s -> %s)\n", bus.Name, bus.Origin, bus.Destination)
	return bus.ID, nil
}

// SeedSeats lays out a 2+1 sleeper: L1-L15 on the lower deck, U1-U15 on the upper
func (s *Seeder) SeedSeats(busID uuid.UUID) error {
	fmt.Println("  💺 Seeding seats...")

	sold := map[string]bool{"L2": true, "L9": true, "U4": true, "U11": true}
	blocked := map[string]bool{"L15": true}

	var layout []seats.Seat
	for _, deck := range []struct {
		prefix string
		deck   seats.Deck
		base   int64
	}{
		{"L", seats.DeckLower, 449},
		{"U", seats.DeckUpper, 399},
	} {
		for i := 1; i <= 15; i++ {
			row, col := (i-1)/3+1, (i-1)%3+1
			price := deck.base
			if col == 3 {
				// single berths
				price += 371
			}
			id := fmt.Sprintf("%s%d", deck.prefix, i)
			status := seats.StatusAvailable
			if sold[id] {
				status = seats.StatusSold
			}
			layout = append(layout, seats.Seat{
				BusID:    busID,
				ID:       id,
				Deck:     deck.deck,
				Row:      row,
				Col:      col,
				Price:    price,
				Sellable: !blocked[id],
				Status:   status,
				Version:  1,
			})
		}
	}

	if err := seats.ValidateLayout(nil, layout); err != nil {
		return err
	}
	if err := s.db.PostgreSQL.Create(&layout).Error; err != nil {
		return err
	}

	fmt.Printf("    ✅ Created %d seats (%d sold, %d blocked)\n", len(layout), len(sold), len(blocked))
	return nil
}

func (s *Seeder) SeedPoints(busID uuid.UUID) error {
	fmt.Println("  📍 Seeding boarding and dropping points...")

	data := []struct {
		kind    points.Kind
		name    string
		time    string
		address string
	}{
		{points.KindBoarding, "Majestic Bus Stand", "21:00", "Kempegowda Bus Station, Gandhi Nagar"},
		{points.KindBoarding, "Silk Board", "21:40", "Hosur Road junction"},
		{points.KindBoarding, "Electronic City", "22:10", "Infosys Gate 1"},
		{points.KindDropping, "Vellore Bypass", "02:45", "NH48 service road"},
		{points.KindDropping, "Koyambedu", "05:15", "CMBT Platform 3"},
		{points.KindDropping, "Guindy", "05:30", "Kathipara flyover"},
	}

	for _, d := range data {
		point := points.Point{
			ID:      uuid.New(),
			BusID:   busID,
			Kind:    d.kind,
			Code:    points.Slug(d.name, d.time),
			Name:    d.name,
			Time:    d.time,
			Address: d.address,
		}
		if err := s.db.PostgreSQL.Create(&point).Error; err != nil {
			return fmt.Errorf("failed to create point %s: %w", d.name, err)
		}
		fmt.Printf("    ✅ %s point: %s %s\n", d.kind, point.Name, point.Time)
	}
	return nil
}
