package points

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"busline/internal/buses"
	"busline/internal/shared/constants"
	"busline/internal/users"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrPointNotFound       = errors.New("point not found")
	ErrPointKindMismatch   = errors.New("point is not of the requested kind")
	ErrSelectionIncomplete = errors.New("both a boarding and a dropping point are required")
	ErrInvalidTime         = errors.New("time must be HH:MM")
	ErrInvalidKind         = errors.New("kind must be boarding or dropping")
)

// BusDirectory is the part of the bus registry points need
type BusDirectory interface {
	GetBus(ctx context.Context, busID uuid.UUID) (*buses.BusResponse, error)
	Authorize(ctx context.Context, actor users.Actor, busID uuid.UUID) (*buses.BusResponse, error)
}

type Service interface {
	ListPoints(ctx context.Context, busID uuid.UUID, kind Kind) (*PointListResponse, error)
	ListBoardingPoints(ctx context.Context, busID uuid.UUID) (*PointListResponse, error)
	ListDroppingPoints(ctx context.Context, busID uuid.UUID) (*PointListResponse, error)
	// ResolveChoice turns the two chosen ids into point snapshots for a booking
	ResolveChoice(ctx context.Context, busID uuid.UUID, boardingID, droppingID string) (*Choice, error)

	CreatePoint(ctx context.Context, actor users.Actor, busID uuid.UUID, req CreatePointRequest) (*PointResponse, error)
	UpdatePoint(ctx context.Context, actor users.Actor, busID, pointID uuid.UUID, req UpdatePointRequest) (*PointResponse, error)
	DeletePoint(ctx context.Context, actor users.Actor, busID, pointID uuid.UUID) error
}

type service struct {
	repo         Repository
	busDirectory BusDirectory
	cacheService cache.Service
}

func NewService(repo Repository, busDirectory BusDirectory, cacheService cache.Service) Service {
	return &service{repo: repo, busDirectory: busDirectory, cacheService: cacheService}
}

func (s *service) ListBoardingPoints(ctx context.Context, busID uuid.UUID) (*PointListResponse, error) {
	return s.ListPoints(ctx, busID, KindBoarding)
}

func (s *service) ListDroppingPoints(ctx context.Context, busID uuid.UUID) (*PointListResponse, error) {
	return s.ListPoints(ctx, busID, KindDropping)
}

func (s *service) ListPoints(ctx context.Context, busID uuid.UUID, kind Kind) (*PointListResponse, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if _, err := s.busDirectory.GetBus(ctx, busID); err != nil {
		return nil, err
	}

	key := constants.BuildBusPointsKey(busID.String(), string(kind))
	if s.cacheService != nil {
		var cached PointListResponse
		if err := s.cacheService.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	configured, err := s.repo.ListByBus(ctx, busID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s points: %w", kind, err)
	}

	out := &PointListResponse{BusID: busID.String(), Kind: kind}
	list := configured
	if len(configured) == 0 {
		list = FallbackPoints(busID, kind)
		out.Fallback = true
	}
	for _, p := range list {
		out.Points = append(out.Points, p.ToResponse(out.Fallback))
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, key, out, constants.TTL_BUS_POINTS); err != nil {
			logger.GetDefault().WarnContext(ctx, "failed to cache points", "bus_id", busID.String(), "error", err)
		}
	}
	return out, nil
}

func (s *service) ResolveChoice(ctx context.Context, busID uuid.UUID, boardingID, droppingID string) (*Choice, error) {
	boardingID, droppingID = strings.TrimSpace(boardingID), strings.TrimSpace(droppingID)
	if boardingID == "" || droppingID == "" {
		return nil, ErrSelectionIncomplete
	}

	boarding, err := s.resolve(ctx, busID, KindBoarding, boardingID)
	if err != nil {
		return nil, err
	}
	dropping, err := s.resolve(ctx, busID, KindDropping, droppingID)
	if err != nil {
		return nil, err
	}
	return &Choice{Boarding: *boarding, Dropping: *dropping}, nil
}

func (s *service) resolve(ctx context.Context, busID uuid.UUID, kind Kind, id string) (*PointResponse, error) {
	list, err := s.ListPoints(ctx, busID, kind)
	if err != nil {
		return nil, err
	}
	for _, p := range list.Points {
		if p.ID == id {
			return &p, nil
		}
	}

	other := KindDropping
	if kind == KindDropping {
		other = KindBoarding
	}
	if otherList, err := s.ListPoints(ctx, busID, other); err == nil {
		for _, p := range otherList.Points {
			if p.ID == id {
				return nil, fmt.Errorf("%w: %s is a %s point", ErrPointKindMismatch, id, other)
			}
		}
	}
	return nil, fmt.Errorf("%w: %s point %s", ErrPointNotFound, kind, id)
}

func (s *service) CreatePoint(ctx context.Context, actor users.Actor, busID uuid.UUID, req CreatePointRequest) (*PointResponse, error) {
	if _, err := s.busDirectory.Authorize(ctx, actor, busID); err != nil {
		return nil, err
	}
	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	if !ValidTime(req.Time) {
		return nil, ErrInvalidTime
	}

	point := &Point{
		ID:      uuid.New(),
		BusID:   busID,
		Kind:    req.Kind,
		Code:    Slug(req.Name, req.Time),
		Name:    strings.TrimSpace(req.Name),
		Time:    req.Time,
		Address: req.Address,
	}
	if err := s.repo.Create(ctx, point); err != nil {
		return nil, fmt.Errorf("failed to create point: %w", err)
	}
	s.invalidate(ctx, busID, point.Kind)

	resp := point.ToResponse(false)
	return &resp, nil
}

func (s *service) UpdatePoint(ctx context.Context, actor users.Actor, busID, pointID uuid.UUID, req UpdatePointRequest) (*PointResponse, error) {
	if _, err := s.busDirectory.Authorize(ctx, actor, busID); err != nil {
		return nil, err
	}

	point, err := s.repo.GetByID(ctx, busID, pointID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		point.Name = strings.TrimSpace(*req.Name)
	}
	if req.Time != nil {
		if !ValidTime(*req.Time) {
			return nil, ErrInvalidTime
		}
		point.Time = *req.Time
	}
	if req.Address != nil {
		point.Address = *req.Address
	}
	point.Code = Slug(point.Name, point.Time)

	if err := s.repo.Update(ctx, point); err != nil {
		return nil, fmt.Errorf("failed to update point: %w", err)
	}
	s.invalidate(ctx, busID, point.Kind)

	resp := point.ToResponse(false)
	return &resp, nil
}

func (s *service) DeletePoint(ctx context.Context, actor users.Actor, busID, pointID uuid.UUID) error {
	if _, err := s.busDirectory.Authorize(ctx, actor, busID); err != nil {
		return err
	}
	point, err := s.repo.GetByID(ctx, busID, pointID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, busID, pointID); err != nil {
		return err
	}
	s.invalidate(ctx, busID, point.Kind)
	return nil
}

func (s *service) invalidate(ctx context.Context, busID uuid.UUID, kind Kind) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildBusPointsKey(busID.String(), string(kind))); err != nil {
		logger.GetDefault().WarnContext(ctx, "failed to invalidate points", "bus_id", busID.String(), "error", err)
	}
}
