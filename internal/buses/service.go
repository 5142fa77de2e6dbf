package buses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/shared/constants"
	"busline/internal/shared/utils/response"
	"busline/internal/users"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrBusNotFound     = errors.New("bus not found")
	ErrForbidden       = errors.New("not allowed to manage this bus")
	ErrInvalidBusID    = errors.New("invalid bus id")
	ErrInvalidSchedule = errors.New("arrival must be after departure")
)

type Service interface {
	CreateBus(ctx context.Context, actor users.Actor, req CreateBusRequest) (*BusResponse, error)
	GetBus(ctx context.Context, busID uuid.UUID) (*BusResponse, error)
	ListBuses(ctx context.Context, query ListBusesQuery) (*BusListResponse, error)
	UpdateBus(ctx context.Context, actor users.Actor, busID uuid.UUID, req UpdateBusRequest) (*BusResponse, error)
	// Authorize returns the bus when the actor is an admin or the bus owner
	Authorize(ctx context.Context, actor users.Actor, busID uuid.UUID) (*BusResponse, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// NewServiceWithCache caches bus details in Redis
func NewServiceWithCache(repo Repository, cacheService cache.Service) Service {
	return &service{repo: repo, cacheService: cacheService}
}

// CanManage reports whether the actor may edit the bus, its seats and points, or cancel its bookings
func CanManage(actor users.Actor, ownerID string) bool {
	return actor.IsAdmin() || actor.IsOwnerOf(ownerID)
}

func (s *service) CreateBus(ctx context.Context, actor users.Actor, req CreateBusRequest) (*BusResponse, error) {
	if !req.ArrivalAt.After(req.DepartureAt) {
		return nil, ErrInvalidSchedule
	}

	ownerID := actor.ID
	if actor.IsAdmin() && req.OwnerID != "" {
		ownerID = req.OwnerID
	}

	bus := &Bus{
		Name:         req.Name,
		OperatorName: req.OperatorName,
		OwnerID:      ownerID,
		BusType:      req.BusType,
		Origin:       req.Origin,
		Destination:  req.Destination,
		DepartureAt:  req.DepartureAt.UTC(),
		ArrivalAt:    req.ArrivalAt.UTC(),
	}
	if err := s.repo.Create(ctx, bus); err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}

	logger.GetDefault().InfoContext(ctx, "Bus Created", "bus_id", bus.ID.String(), "owner_id", ownerID)
	resp := bus.ToResponse()
	return &resp, nil
}

func (s *service) GetBus(ctx context.Context, busID uuid.UUID) (*BusResponse, error) {
	load := func() (interface{}, error) {
		bus, err := s.repo.GetByID(ctx, busID)
		if err != nil {
			return nil, err
		}
		return bus.ToResponse(), nil
	}

	var resp BusResponse
	if s.cacheService == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		resp = v.(BusResponse)
		return &resp, nil
	}

	if err := s.cacheService.GetOrSet(ctx, constants.BuildBusDetailKey(busID.String()), constants.TTL_BUS_DETAIL, load, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) ListBuses(ctx context.Context, query ListBusesQuery) (*BusListResponse, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = 20
	}

	filter := ListFilter{
		Origin:      query.Origin,
		Destination: query.Destination,
		Page:        query.Page,
		Limit:       query.Limit,
	}
	if query.Date != "" {
		day, err := time.Parse("2006-01-02", query.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", query.Date, err)
		}
		filter.Date = &day
	}

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}

	out := make([]BusResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToResponse())
	}
	return &BusListResponse{
		Buses:      out,
		Pagination: response.NewPagination(query.Page, query.Limit, total),
	}, nil
}

func (s *service) UpdateBus(ctx context.Context, actor users.Actor, busID uuid.UUID, req UpdateBusRequest) (*BusResponse, error) {
	bus, err := s.repo.GetByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	if !CanManage(actor, bus.OwnerID) {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		bus.Name = *req.Name
	}
	if req.OperatorName != nil {
		bus.OperatorName = *req.OperatorName
	}
	if req.BusType != nil {
		bus.BusType = *req.BusType
	}
	if req.DepartureAt != nil {
		bus.DepartureAt = req.DepartureAt.UTC()
	}
	if req.ArrivalAt != nil {
		bus.ArrivalAt = req.ArrivalAt.UTC()
	}
	if !bus.ArrivalAt.After(bus.DepartureAt) {
		return nil, ErrInvalidSchedule
	}

	if err := s.repo.Update(ctx, bus); err != nil {
		return nil, fmt.Errorf("failed to update bus: %w", err)
	}
	if s.cacheService != nil {
		if err := s.cacheService.Delete(ctx, constants.BuildBusDetailKey(busID.String())); err != nil {
			logger.GetDefault().WarnContext(ctx, "failed to invalidate bus cache", "bus_id", busID.String(), "error", err)
		}
	}

	resp := bus.ToResponse()
	return &resp, nil
}

func (s *service) Authorize(ctx context.Context, actor users.Actor, busID uuid.UUID) (*BusResponse, error) {
	bus, err := s.GetBus(ctx, busID)
	if err != nil {
		return nil, err
	}
	if !CanManage(actor, bus.OwnerID) {
		return nil, ErrForbidden
	}
	return bus, nil
}
