package analytics

import (
	"context"
	"time"

	"busline/internal/buses"
	"busline/internal/shared/constants"
	"busline/internal/users"
	"busline/pkg/cache"

	"github.com/google/uuid"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 90
)

// BusDirectory checks that the actor may see a bus's figures
type BusDirectory interface {
	Authorize(ctx context.Context, actor users.Actor, busID uuid.UUID) (*buses.BusResponse, error)
}

type Service interface {
	GetBusReport(ctx context.Context, actor users.Actor, busID uuid.UUID) (*BusReport, error)
	GetDailyStats(ctx context.Context, actor users.Actor, busID uuid.UUID, days int) ([]DailyBookingStats, error)
}

type service struct {
	repo         Repository
	busDirectory BusDirectory
	cacheService cache.Service
	now          func() time.Time
}

// NewService wires the report service. cacheService may be nil.
func NewService(repo Repository, busDirectory BusDirectory, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		busDirectory: busDirectory,
		cacheService: cacheService,
		now:          time.Now,
	}
}

func (s *service) GetBusReport(ctx context.Context, actor users.Actor, busID uuid.UUID) (*BusReport, error) {
	bus, err := s.busDirectory.Authorize(ctx, actor, busID)
	if err != nil {
		return nil, err
	}

	load := func() (interface{}, error) {
		return s.buildReport(ctx, bus, busID)
	}

	if s.cacheService == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.(*BusReport), nil
	}

	var report BusReport
	if err := s.cacheService.GetOrSet(ctx, constants.BuildBusReportKey(busID.String()), constants.TTL_BUS_REPORT, load, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *service) buildReport(ctx context.Context, bus *buses.BusResponse, busID uuid.UUID) (*BusReport, error) {
	decks, err := s.repo.GetDeckSummaries(ctx, busID)
	if err != nil {
		return nil, err
	}
	bookingSummary, err := s.repo.GetBookingSummary(ctx, busID)
	if err != nil {
		return nil, err
	}
	boarding, dropping, err := s.repo.GetPointUsage(ctx, busID)
	if err != nil {
		return nil, err
	}

	report := &BusReport{
		BusID:       busID.String(),
		Seats:       Summarize(decks),
		Decks:       decks,
		Bookings:    *bookingSummary,
		Boarding:    boarding,
		Dropping:    dropping,
		GeneratedAt: s.now().UTC(),
	}
	if bus != nil {
		report.BusName = bus.Name
		report.DepartureAt = bus.DepartureAt
	}
	return report, nil
}

func (s *service) GetDailyStats(ctx context.Context, actor users.Actor, busID uuid.UUID, days int) ([]DailyBookingStats, error) {
	if _, err := s.busDirectory.Authorize(ctx, actor, busID); err != nil {
		return nil, err
	}

	if days <= 0 {
		days = defaultStatsDays
	}
	if days > maxStatsDays {
		days = maxStatsDays
	}

	since := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))
	return s.repo.GetDailyBookingStats(ctx, busID, since)
}
