package seats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"busline/internal/buses"
	"busline/internal/selection"
	"busline/internal/shared/config"
	"busline/internal/shared/constants"
	"busline/internal/users"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrSeatNotFound     = errors.New("seat not found")
	ErrSeatUnavailable  = errors.New("seat unavailable")
	ErrPriceChanged     = errors.New("seat price changed since it was selected")
	ErrVersionConflict  = errors.New("seat was modified by someone else")
	ErrInvalidPrice     = errors.New("price must not be negative")
	ErrInvalidLayout    = errors.New("invalid seat layout")
	ErrNoSeatsSelected  = errors.New("no seats selected")
	ErrTooManySeats     = errors.New("too many seats in one hold")
	ErrHoldNotFound     = errors.New("hold not found or expired")
	ErrHoldForbidden    = errors.New("hold belongs to a different user")
	ErrHoldsUnavailable = errors.New("seat holds are unavailable")
)

// MaxSeatsPerHold caps one selection
const MaxSeatsPerHold = 10

// SeatError names the seats behind a seat-level failure
type SeatError struct {
	Reason  error
	SeatIDs []string
}

func (e *SeatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.SeatIDs, ", "))
}

func (e *SeatError) Unwrap() error {
	return e.Reason
}

// BusDirectory is the part of the bus registry the catalog needs
type BusDirectory interface {
	GetBus(ctx context.Context, busID uuid.UUID) (*buses.BusResponse, error)
	Authorize(ctx context.Context, actor users.Actor, busID uuid.UUID) (*buses.BusResponse, error)
}

type Service interface {
	// Catalog
	ListSeats(ctx context.Context, busID uuid.UUID) (*SeatMapResponse, error)
	CreateSeats(ctx context.Context, actor users.Actor, busID uuid.UUID, req CreateSeatsRequest) ([]SeatResponse, error)
	UpdateSeat(ctx context.Context, actor users.Actor, busID uuid.UUID, seatID string, req UpdateSeatRequest) (*SeatResponse, error)
	InvalidateCatalog(ctx context.Context, busID uuid.UUID)

	// Holds
	HoldSeats(ctx context.Context, busID uuid.UUID, userID string, req SeatHoldRequest) (*SeatHoldResponse, error)
	ReleaseHold(ctx context.Context, holdID, userID string) error
	ValidateHold(ctx context.Context, holdID, userID string) (*HoldValidationResult, error)
	GetHoldDetails(ctx context.Context, holdID string) (*SeatHoldDetails, error)
	GetUserHolds(ctx context.Context, userID string) ([]SeatHoldDetails, error)
}

type service struct {
	repo         Repository
	holds        *HoldStore
	busDirectory BusDirectory
	cacheService cache.Service
	config       *config.Config
}

// NewService wires the catalog. holds and cacheService may be nil when Redis is down.
func NewService(repo Repository, holds *HoldStore, busDirectory BusDirectory, cacheService cache.Service, cfg *config.Config) Service {
	return &service{
		repo:         repo,
		holds:        holds,
		busDirectory: busDirectory,
		cacheService: cacheService,
		config:       cfg,
	}
}

//  CATALOG

func (s *service) ListSeats(ctx context.Context, busID uuid.UUID) (*SeatMapResponse, error) {
	if _, err := s.busDirectory.GetBus(ctx, busID); err != nil {
		return nil, err
	}

	catalog, err := s.catalog(ctx, busID)
	if err != nil {
		return nil, err
	}

	held := map[string]string{}
	if s.holds != nil {
		ids := make([]string, len(catalog))
		for i, seat := range catalog {
			ids[i] = seat.ID
		}
		if held, err = s.holds.HeldSeats(ctx, busID.String(), ids); err != nil {
			logger.GetDefault().WarnContext(ctx, "seat map served without hold overlay", "bus_id", busID.String(), "error", err)
			held = map[string]string{}
		}
	}

	return buildSeatMap(busID, catalog, held), nil
}

// catalog reads the bus's seats through the cache
func (s *service) catalog(ctx context.Context, busID uuid.UUID) ([]Seat, error) {
	key := constants.BuildSeatCatalogKey(busID.String())
	if s.cacheService != nil {
		var cached []Seat
		if err := s.cacheService.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	list, err := s.repo.ListByBus(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, key, list, constants.TTL_SEAT_CATALOG); err != nil {
			logger.GetDefault().WarnContext(ctx, "failed to cache seat catalog", "bus_id", busID.String(), "error", err)
		}
	}
	return list, nil
}

func buildSeatMap(busID uuid.UUID, catalog []Seat, held map[string]string) *SeatMapResponse {
	sorted := make([]Seat, len(catalog))
	copy(sorted, catalog)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Deck != b.Deck {
			return a.Deck == DeckLower
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})

	out := &SeatMapResponse{BusID: busID.String(), Decks: []DeckResponse{}}
	for _, seat := range sorted {
		if len(out.Decks) == 0 || out.Decks[len(out.Decks)-1].Deck != seat.Deck {
			out.Decks = append(out.Decks, DeckResponse{Deck: seat.Deck})
		}
		_, isHeld := held[seat.ID]
		resp := seat.ToResponse(isHeld)
		last := &out.Decks[len(out.Decks)-1]
		last.Seats = append(last.Seats, resp)

		out.TotalSeats++
		if resp.Status == EffectiveAvailable {
			out.AvailableSeats++
		}
	}
	return out
}

func (s *service) CreateSeats(ctx context.Context, actor users.Actor, busID uuid.UUID, req CreateSeatsRequest) ([]SeatResponse, error) {
	if _, err := s.busDirectory.Authorize(ctx, actor, busID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByBus(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}

	incoming := make([]Seat, 0, len(req.Seats))
	for _, in := range req.Seats {
		sellable := true
		if in.Sellable != nil {
			sellable = *in.Sellable
		}
		incoming = append(incoming, Seat{
			BusID:    busID,
			ID:       strings.TrimSpace(in.ID),
			Deck:     in.Deck,
			Row:      in.Row,
			Col:      in.Col,
			Price:    in.Price,
			Sellable: sellable,
			Status:   StatusAvailable,
			Version:  1,
		})
	}

	if err := ValidateLayout(existing, incoming); err != nil {
		return nil, err
	}
	if err := s.repo.CreateSeats(ctx, incoming); err != nil {
		return nil, fmt.Errorf("failed to create seats: %w", err)
	}
	s.InvalidateCatalog(ctx, busID)

	out := make([]SeatResponse, len(incoming))
	for i, seat := range incoming {
		out[i] = seat.ToResponse(false)
	}
	return out, nil
}

func (s *service) UpdateSeat(ctx context.Context, actor users.Actor, busID uuid.UUID, seatID string, req UpdateSeatRequest) (*SeatResponse, error) {
	if _, err := s.busDirectory.Authorize(ctx, actor, busID); err != nil {
		return nil, err
	}

	seat, err := s.repo.GetByID(ctx, busID, seatID)
	if err != nil {
		return nil, err
	}
	if seat.Version != req.Version {
		return nil, ErrVersionConflict
	}

	updated := *seat
	if req.ToggleStatus {
		updated = ToggleStatus(updated)
		if seat.Status == StatusSold && updated.Status == StatusAvailable {
			booked, err := s.repo.HasActiveBooking(ctx, busID, seatID)
			if err != nil {
				return nil, err
			}
			if booked {
				// freeing it goes through booking cancellation
				return nil, &SeatError{Reason: ErrSeatUnavailable, SeatIDs: []string{seatID}}
			}
		}
	}
	if req.Price != nil {
		if updated, err = SetPrice(updated, *req.Price); err != nil {
			return nil, err
		}
	}
	if req.Sellable != nil {
		updated.Sellable = *req.Sellable
	}

	if err := s.repo.UpdateWithVersion(ctx, &updated, req.Version); err != nil {
		return nil, err
	}
	s.InvalidateCatalog(ctx, busID)

	logger.GetDefault().InfoContext(ctx, "Seat Updated",
		"bus_id", busID.String(), "seat_id", seatID, "actor_id", actor.ID, "version", updated.Version)

	resp := updated.ToResponse(false)
	return &resp, nil
}

func (s *service) InvalidateCatalog(ctx context.Context, busID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildSeatCatalogKey(busID.String())); err != nil {
		logger.GetDefault().WarnContext(ctx, "failed to invalidate seat catalog", "bus_id", busID.String(), "error", err)
	}
}

//  SEAT HOLDING

func (s *service) HoldSeats(ctx context.Context, busID uuid.UUID, userID string, req SeatHoldRequest) (*SeatHoldResponse, error) {
	if s.holds == nil {
		return nil, ErrHoldsUnavailable
	}

	tokens, err := selection.ParseTokens(req.SeatTokens)
	if err != nil {
		return nil, err
	}
	sel := selection.FromTokens(tokens)
	if sel.Len() == 0 {
		return nil, ErrNoSeatsSelected
	}
	if sel.Len() > MaxSeatsPerHold {
		return nil, ErrTooManySeats
	}

	if _, err := s.busDirectory.GetBus(ctx, busID); err != nil {
		return nil, err
	}

	catalog, err := s.repo.GetByIDs(ctx, busID, sel.SeatIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}
	byID := make(map[string]Seat, len(catalog))
	for _, seat := range catalog {
		byID[seat.ID] = seat
	}

	var missing, unavailable, repriced []string
	held := make([]HeldSeat, 0, sel.Len())
	for _, tok := range sel.Tokens() {
		seat, ok := byID[tok.SeatID]
		switch {
		case !ok:
			missing = append(missing, tok.SeatID)
		case !seat.IsBookable():
			unavailable = append(unavailable, tok.SeatID)
		case seat.Price != tok.Price:
			repriced = append(repriced, tok.SeatID)
		default:
			held = append(held, HeldSeat{SeatID: seat.ID, Price: seat.Price})
		}
	}
	switch {
	case len(missing) > 0:
		return nil, &SeatError{Reason: ErrSeatNotFound, SeatIDs: missing}
	case len(unavailable) > 0:
		logger.GetDefault().LogSeatConflict(ctx, busID.String(), userID, unavailable)
		return nil, &SeatError{Reason: ErrSeatUnavailable, SeatIDs: unavailable}
	case len(repriced) > 0:
		return nil, &SeatError{Reason: ErrPriceChanged, SeatIDs: repriced}
	}

	ttl := s.config.Redis.SeatHoldTTL
	details, err := s.holds.Hold(ctx, holdRequest{
		HoldID: uuid.New().String(),
		UserID: userID,
		BusID:  busID.String(),
		Seats:  held,
		TTL:    ttl,
	})
	if err != nil {
		var seatErr *SeatError
		if errors.As(err, &seatErr) {
			logger.GetDefault().LogSeatConflict(ctx, busID.String(), userID, seatErr.SeatIDs)
		}
		return nil, err
	}

	logger.GetDefault().LogSeatsHeld(ctx, details.HoldID, details.BusID, userID, details.SeatIDs(), ttl)
	resp := details.ToResponse()
	return &resp, nil
}

func (s *service) ReleaseHold(ctx context.Context, holdID, userID string) error {
	if s.holds == nil {
		return ErrHoldsUnavailable
	}

	details, err := s.GetHoldDetails(ctx, holdID)
	if err != nil {
		return err
	}
	if details.UserID != userID {
		return ErrHoldForbidden
	}

	if _, err := s.holds.Release(ctx, details); err != nil {
		return err
	}
	return nil
}

func (s *service) ValidateHold(ctx context.Context, holdID, userID string) (*HoldValidationResult, error) {
	if s.holds == nil {
		return nil, ErrHoldsUnavailable
	}

	details, err := s.GetHoldDetails(ctx, holdID)
	if errors.Is(err, ErrHoldNotFound) {
		return &HoldValidationResult{Valid: false, Reason: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	if details.UserID != userID {
		return &HoldValidationResult{Valid: false, Reason: ErrHoldForbidden.Error()}, nil
	}
	if details.TTL <= 0 {
		return &HoldValidationResult{Valid: false, Reason: "hold has expired"}, nil
	}

	intact, err := s.holds.Intact(ctx, details)
	if err != nil {
		return nil, err
	}
	if !intact {
		return &HoldValidationResult{Valid: false, Reason: "hold no longer covers all of its seats"}, nil
	}

	return &HoldValidationResult{Valid: true, Details: details, TTL: details.TTL}, nil
}

func (s *service) GetHoldDetails(ctx context.Context, holdID string) (*SeatHoldDetails, error) {
	if s.holds == nil {
		return nil, ErrHoldsUnavailable
	}
	return s.holds.Get(ctx, holdID)
}

func (s *service) GetUserHolds(ctx context.Context, userID string) ([]SeatHoldDetails, error) {
	if s.holds == nil {
		return nil, ErrHoldsUnavailable
	}

	holdIDs, err := s.holds.UserHoldIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := []SeatHoldDetails{}
	for _, holdID := range holdIDs {
		details, err := s.holds.Get(ctx, holdID)
		if err != nil {
			continue
		}
		out = append(out, *details)
	}
	return out, nil
}
