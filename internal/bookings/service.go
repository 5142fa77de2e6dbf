package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"busline/internal/buses"
	"busline/internal/notifications"
	"busline/internal/points"
	"busline/internal/seats"
	"busline/internal/shared/utils/response"
	"busline/internal/users"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrForbidden         = errors.New("not allowed to access this booking")
	ErrHoldInvalid       = errors.New("hold is not valid for booking")
	ErrPassengerMismatch = errors.New("passengers must match the held seats one to one")
	ErrDuplicateRequest  = errors.New("booking already created for this idempotency key")
	ErrRequestInProgress = errors.New("a booking with this idempotency key is still being processed")
	ErrBookingCancelled  = errors.New("booking is cancelled")
)

// PassengerError names the seats whose passenger data is missing or unexpected
type PassengerError struct {
	Missing    []string
	Unexpected []string
}

func (e *PassengerError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "no passenger for seats "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "seats not in hold "+strings.Join(e.Unexpected, ", "))
	}
	return fmt.Sprintf("%s: %s", ErrPassengerMismatch, strings.Join(parts, "; "))
}

func (e *PassengerError) Unwrap() error {
	return ErrPassengerMismatch
}

// SeatService is the part of the seat catalog bookings depend on
type SeatService interface {
	ValidateHold(ctx context.Context, holdID, userID string) (*seats.HoldValidationResult, error)
	ReleaseHold(ctx context.Context, holdID, userID string) error
	InvalidateCatalog(ctx context.Context, busID uuid.UUID)
}

type PointResolver interface {
	ResolveChoice(ctx context.Context, busID uuid.UUID, boardingID, droppingID string) (*points.Choice, error)
}

type BusDirectory interface {
	GetBus(ctx context.Context, busID uuid.UUID) (*buses.BusResponse, error)
	Authorize(ctx context.Context, actor users.Actor, busID uuid.UUID) (*buses.BusResponse, error)
}

type Service interface {
	CreateBooking(ctx context.Context, userID string, req CreateBookingRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, actor users.Actor, bookingID uuid.UUID) (*BookingResponse, error)
	// CancelBooking is idempotent: cancelling a cancelled booking returns it unchanged
	CancelBooking(ctx context.Context, actor users.Actor, bookingID uuid.UUID) (*BookingResponse, error)
	ListUserBookings(ctx context.Context, userID string, query BookingListQuery) (*BookingListResponse, error)
	ListBusBookings(ctx context.Context, actor users.Actor, busID uuid.UUID, query BookingListQuery) (*BookingListResponse, error)
	Ticket(ctx context.Context, actor users.Actor, bookingID uuid.UUID) ([]byte, string, error)
}

type service struct {
	repo         Repository
	seatService  SeatService
	points       PointResolver
	busDirectory BusDirectory
	publisher    notifications.Publisher
	idempotency  *IdempotencyStore
	ticket       TicketOptions
	now          func() time.Time
}

type Option func(*service)

// WithTicketOptions sets how PDF tickets are rendered
func WithTicketOptions(opts TicketOptions) Option {
	return func(s *service) { s.ticket = opts }
}

// NewService wires the booking lifecycle. idempotency may be nil; the database index still rejects duplicates.
func NewService(repo Repository, seatService SeatService, pointResolver PointResolver, busDirectory BusDirectory,
	publisher notifications.Publisher, idempotency *IdempotencyStore, opts ...Option) Service {
	if publisher == nil {
		publisher = notifications.NewLogPublisher()
	}
	s := &service{
		repo:         repo,
		seatService:  seatService,
		points:       pointResolver,
		busDirectory: busDirectory,
		publisher:    publisher,
		idempotency:  idempotency,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateBooking(ctx context.Context, userID string, req CreateBookingRequest) (*BookingResponse, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		replay, err := s.claimIdempotencyKey(ctx, userID, key)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	resp, err := s.createBooking(ctx, userID, key, req)
	if key == "" {
		return resp, err
	}

	if errors.Is(err, ErrDuplicateRequest) {
		// lost a race with a concurrent request carrying the same key
		return s.replay(ctx, userID, key)
	}
	if s.idempotency != nil {
		// the client may have gone away; the marker must still be settled
		settleCtx := context.WithoutCancel(ctx)
		if err != nil {
			if abandonErr := s.idempotency.Abandon(settleCtx, userID, key); abandonErr != nil {
				logger.GetDefault().WithUserID(userID).WithError(abandonErr).WarnContext(settleCtx, "failed to free idempotency key")
			}
		} else if resolveErr := s.idempotency.Resolve(settleCtx, userID, key, uuid.MustParse(resp.ID)); resolveErr != nil {
			logger.GetDefault().WithUserID(userID).WithError(resolveErr).WarnContext(settleCtx, "failed to record idempotency key")
		}
	}
	return resp, err
}

// claimIdempotencyKey returns the earlier booking when the key was already used
func (s *service) claimIdempotencyKey(ctx context.Context, userID, key string) (*BookingResponse, error) {
	if existing, err := s.repo.GetByIdempotencyKey(ctx, userID, key); err == nil {
		return replayed(existing), nil
	} else if !errors.Is(err, ErrBookingNotFound) {
		return nil, err
	}

	if s.idempotency == nil {
		return nil, nil
	}
	bookingID, err := s.idempotency.Claim(ctx, userID, key)
	if err != nil {
		if errors.Is(err, ErrRequestInProgress) {
			return nil, err
		}
		logger.GetDefault().WarnContext(ctx, "idempotency store unavailable, relying on database", "error", err)
		return nil, nil
	}
	if bookingID == uuid.Nil {
		return nil, nil
	}
	existing, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return replayed(existing), nil
}

func (s *service) replay(ctx context.Context, userID, key string) (*BookingResponse, error) {
	existing, err := s.repo.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	return replayed(existing), nil
}

func replayed(b *Booking) *BookingResponse {
	resp := b.ToResponse()
	resp.Replayed = true
	return &resp
}

func (s *service) createBooking(ctx context.Context, userID, key string, req CreateBookingRequest) (*BookingResponse, error) {
	validation, err := s.seatService.ValidateHold(ctx, req.HoldID, userID)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, fmt.Errorf("%w: %s", ErrHoldInvalid, validation.Reason)
	}
	hold := validation.Details

	busID, err := uuid.Parse(hold.BusID)
	if err != nil {
		return nil, fmt.Errorf("hold %s has invalid bus id: %w", hold.HoldID, err)
	}

	choice, err := s.points.ResolveChoice(ctx, busID, req.BoardingPointID, req.DroppingPointID)
	if err != nil {
		return nil, err
	}

	passengers, err := matchPassengers(hold.SeatIDs(), req.Passengers)
	if err != nil {
		return nil, err
	}

	bookingRef, err := generateBookingReference(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	booking := &Booking{
		BookingRef: bookingRef,
		BusID:      busID,
		UserID:     userID,
		Status:     StatusConfirmed,
		Contact: Contact{
			Name:  strings.TrimSpace(req.Contact.Name),
			Email: strings.TrimSpace(req.Contact.Email),
			Phone: strings.TrimSpace(req.Contact.Phone),
		},
		Boarding: pointRef(choice.Boarding),
		Dropping: pointRef(choice.Dropping),
		HoldID:   hold.HoldID,
	}
	if key != "" {
		booking.IdempotencyKey = &key
	}
	// charge the prices captured when the seats were held
	for i, held := range hold.Seats {
		booking.Seats = append(booking.Seats, BookingSeat{
			BusID:     busID,
			SeatID:    held.SeatID,
			Position:  i + 1,
			Price:     held.Price,
			Passenger: passengers[held.SeatID],
			Active:    true,
		})
		booking.TotalAmount += held.Price
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		var seatErr *seats.SeatError
		if errors.As(err, &seatErr) {
			logger.GetDefault().LogSeatConflict(ctx, busID.String(), userID, seatErr.SeatIDs)
		}
		return nil, err
	}

	// committed; the remaining steps only log on failure and outlive the request
	afterCtx := context.WithoutCancel(ctx)
	if err := s.seatService.ReleaseHold(afterCtx, hold.HoldID, userID); err != nil {
		logger.GetDefault().WarnContext(afterCtx, "failed to release hold after booking", "hold_id", hold.HoldID, "error", err)
	}
	s.seatService.InvalidateCatalog(afterCtx, busID)
	s.publish(afterCtx, notifications.EventBookingConfirmed, booking, userID)
	logger.GetDefault().LogBookingCreated(afterCtx, booking.ID.String(), busID.String(), userID, booking.TotalAmount)

	resp := booking.ToResponse()
	return &resp, nil
}

// matchPassengers keys passengers by seat and requires exactly one per held seat
func matchPassengers(heldSeatIDs []string, inputs []PassengerInput) (map[string]Passenger, error) {
	held := make(map[string]bool, len(heldSeatIDs))
	for _, id := range heldSeatIDs {
		held[id] = true
	}

	out := make(map[string]Passenger, len(inputs))
	perr := &PassengerError{}
	for _, in := range inputs {
		seatID := strings.TrimSpace(in.SeatID)
		if !held[seatID] {
			perr.Unexpected = append(perr.Unexpected, seatID)
			continue
		}
		out[seatID] = Passenger{
			Name:   strings.TrimSpace(in.Name),
			Age:    in.Age,
			Gender: strings.ToLower(strings.TrimSpace(in.Gender)),
		}
	}
	for _, id := range heldSeatIDs {
		if _, ok := out[id]; !ok {
			perr.Missing = append(perr.Missing, id)
		}
	}

	if len(perr.Missing) > 0 || len(perr.Unexpected) > 0 {
		sort.Strings(perr.Unexpected)
		return nil, perr
	}
	return out, nil
}

func pointRef(p points.PointResponse) PointRef {
	id, _ := uuid.Parse(p.ID)
	return PointRef{ID: id, Name: p.Name, Time: p.Time}
}

func (s *service) GetBooking(ctx context.Context, actor users.Actor, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.loadForActor(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	resp := booking.ToResponse()
	return &resp, nil
}

func (s *service) CancelBooking(ctx context.Context, actor users.Actor, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.loadForActor(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(StatusCancelled) {
		resp := booking.ToResponse()
		return &resp, nil
	}

	changed, err := s.repo.Cancel(ctx, booking, actor.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !changed {
		// cancelled concurrently; return the stored record
		if booking, err = s.repo.GetByID(ctx, bookingID); err != nil {
			return nil, err
		}
		resp := booking.ToResponse()
		return &resp, nil
	}

	afterCtx := context.WithoutCancel(ctx)
	s.seatService.InvalidateCatalog(afterCtx, booking.BusID)
	s.publish(afterCtx, notifications.EventBookingCancelled, booking, actor.ID)
	logger.GetDefault().LogBookingCancelled(afterCtx, booking.ID.String(), booking.BusID.String(), actor.ID)

	resp := booking.ToResponse()
	return &resp, nil
}

// loadForActor allows the booking's user, the bus owner and admins
func (s *service) loadForActor(ctx context.Context, actor users.Actor, bookingID uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID == actor.ID || actor.IsAdmin() {
		return booking, nil
	}
	if actor.Role == users.RoleOwner {
		if _, err := s.busDirectory.Authorize(ctx, actor, booking.BusID); err == nil {
			return booking, nil
		} else if !errors.Is(err, buses.ErrForbidden) {
			return nil, err
		}
	}
	return nil, ErrForbidden
}

func (s *service) ListUserBookings(ctx context.Context, userID string, query BookingListQuery) (*BookingListResponse, error) {
	list, total, err := s.repo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toListResponse(list, total, query), nil
}

func (s *service) ListBusBookings(ctx context.Context, actor users.Actor, busID uuid.UUID, query BookingListQuery) (*BookingListResponse, error) {
	if _, err := s.busDirectory.Authorize(ctx, actor, busID); err != nil {
		return nil, err
	}
	list, total, err := s.repo.ListByBus(ctx, busID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toListResponse(list, total, query), nil
}

func toListResponse(list []Booking, total int64, query BookingListQuery) *BookingListResponse {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}
	out := &BookingListResponse{
		Bookings:   make([]BookingResponse, 0, len(list)),
		Pagination: response.NewPagination(query.Page, query.Limit, total),
	}
	for i := range list {
		out.Bookings = append(out.Bookings, list[i].ToResponse())
	}
	return out
}

// Ticket renders the PDF e-ticket and a file name for it
func (s *service) Ticket(ctx context.Context, actor users.Actor, bookingID uuid.UUID) ([]byte, string, error) {
	booking, err := s.loadForActor(ctx, actor, bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.IsCancelled() {
		return nil, "", ErrBookingCancelled
	}

	bus, err := s.busDirectory.GetBus(ctx, booking.BusID)
	if err != nil {
		logger.GetDefault().WarnContext(ctx, "rendering ticket without bus details", "bus_id", booking.BusID.String(), "error", err)
		bus = nil
	}

	pdf, err := RenderTicket(booking, bus, s.ticket)
	if err != nil {
		return nil, "", err
	}
	return pdf, booking.BookingRef + ".pdf", nil
}

func (s *service) publish(ctx context.Context, eventType notifications.EventType, booking *Booking, actorID string) {
	event := notifications.NewBookingEvent(eventType)
	event.BookingID = booking.ID.String()
	event.BookingRef = booking.BookingRef
	event.BusID = booking.BusID.String()
	event.UserID = booking.UserID
	event.ContactName = booking.Contact.Name
	event.ContactEmail = booking.Contact.Email
	event.SeatIDs = booking.SeatIDs()
	event.TotalAmount = booking.TotalAmount
	event.Boarding = strings.TrimSpace(booking.Boarding.Name + " " + booking.Boarding.Time)
	event.Dropping = strings.TrimSpace(booking.Dropping.Name + " " + booking.Dropping.Time)
	event.ActorID = actorID
	if bus, err := s.busDirectory.GetBus(ctx, booking.BusID); err == nil {
		event.BusName = bus.Name
		event.DepartureAt = bus.DepartureAt
	}

	if err := s.publisher.PublishBookingEvent(ctx, event); err != nil {
		logger.GetDefault().WarnContext(ctx, "failed to publish booking event",
			"type", string(eventType), "booking_id", event.BookingID, "error", err)
	}
}

// generateBookingReference returns BUS-YYYYMMDD-XXXXXX
func generateBookingReference(now time.Time) (string, error) {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}
	return fmt.Sprintf("BUS-%s-%s", now.Format("20060102"), string(randomPart)), nil
}
