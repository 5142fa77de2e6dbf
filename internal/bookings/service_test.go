package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"busline/internal/buses"
	"busline/internal/notifications"
	"busline/internal/points"
	"busline/internal/seats"
	"busline/internal/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, booking *Booking) error {
	args := m.Called(ctx, booking)
	if args.Error(0) == nil && booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*Booking, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID string, query BookingListQuery) ([]Booking, int64, error) {
	args := m.Called(ctx, userID, query)
	return args.Get(0).([]Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ListByBus(ctx context.Context, busID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	args := m.Called(ctx, busID, query)
	return args.Get(0).([]Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Cancel(ctx context.Context, booking *Booking, actorID string, at time.Time) (bool, error) {
	args := m.Called(ctx, booking, actorID, at)
	if args.Bool(0) {
		booking.Status = StatusCancelled
		booking.CancelledAt = &at
		booking.CancelledBy = actorID
	}
	return args.Bool(0), args.Error(1)
}

type MockSeatService struct {
	mock.Mock
}

func (m *MockSeatService) ValidateHold(ctx context.Context, holdID, userID string) (*seats.HoldValidationResult, error) {
	args := m.Called(ctx, holdID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seats.HoldValidationResult), args.Error(1)
}

func (m *MockSeatService) ReleaseHold(ctx context.Context, holdID, userID string) error {
	return m.Called(ctx, holdID, userID).Error(0)
}

func (m *MockSeatService) InvalidateCatalog(ctx context.Context, busID uuid.UUID) {
	m.Called(ctx, busID)
}

type MockPointResolver struct {
	mock.Mock
}

func (m *MockPointResolver) ResolveChoice(ctx context.Context, busID uuid.UUID, boardingID, droppingID string) (*points.Choice, error) {
	args := m.Called(ctx, busID, boardingID, droppingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*points.Choice), args.Error(1)
}

type MockBusDirectory struct {
	mock.Mock
}

func (m *MockBusDirectory) GetBus(ctx context.Context, busID uuid.UUID) (*buses.BusResponse, error) {
	args := m.Called(ctx, busID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buses.BusResponse), args.Error(1)
}

func (m *MockBusDirectory) Authorize(ctx context.Context, actor users.Actor, busID uuid.UUID) (*buses.BusResponse, error) {
	args := m.Called(ctx, actor, busID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buses.BusResponse), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingEvent(ctx context.Context, event *notifications.BookingEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return nil
}

type fixture struct {
	svc       Service
	repo      *MockRepository
	seats     *MockSeatService
	points    *MockPointResolver
	buses     *MockBusDirectory
	publisher *MockPublisher
	busID     uuid.UUID
	choice    *points.Choice
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      new(MockRepository),
		seats:     new(MockSeatService),
		points:    new(MockPointResolver),
		buses:     new(MockBusDirectory),
		publisher: new(MockPublisher),
		busID:     uuid.New(),
	}
	f.choice = &points.Choice{
		Boarding: points.PointResponse{ID: uuid.NewString(), Kind: points.KindBoarding, Name: "Majestic", Time: "21:00"},
		Dropping: points.PointResponse{ID: uuid.NewString(), Kind: points.KindDropping, Name: "Koyambedu", Time: "05:30"},
	}
	f.svc = NewService(f.repo, f.seats, f.points, f.buses, f.publisher, nil)

	f.buses.On("GetBus", mock.Anything, f.busID).Return(&buses.BusResponse{ID: f.busID.String(), Name: "Night Rider"}, nil).Maybe()
	return f
}

func (f *fixture) validHold(userID string) *seats.HoldValidationResult {
	return &seats.HoldValidationResult{
		Valid: true,
		TTL:   240,
		Details: &seats.SeatHoldDetails{
			HoldID: "hold-1",
			UserID: userID,
			BusID:  f.busID.String(),
			Seats:  []seats.HeldSeat{{SeatID: "L5", Price: 820}, {SeatID: "L1", Price: 449}},
		},
	}
}

func bookingRequest(choice *points.Choice) CreateBookingRequest {
	return CreateBookingRequest{
		HoldID:          "hold-1",
		BoardingPointID: choice.Boarding.ID,
		DroppingPointID: choice.Dropping.ID,
		Contact:         ContactInput{Name: "Asha Rao", Email: "asha@example.com", Phone: "+919800000001"},
		Passengers: []PassengerInput{
			{SeatID: "L1", Name: "Asha Rao", Age: 31, Gender: "female"},
			{SeatID: "L5", Name: "Ravi Rao", Age: 34, Gender: "male"},
		},
	}
}

func TestCreateBookingUsesHeldPrices(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := bookingRequest(f.choice)

	f.seats.On("ValidateHold", mock.Anything, "hold-1", "u1").Return(f.validHold("u1"), nil)
	f.points.On("ResolveChoice", mock.Anything, f.busID, req.BoardingPointID, req.DroppingPointID).Return(f.choice, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*bookings.Booking")).Return(nil)
	f.seats.On("ReleaseHold", mock.Anything, "hold-1", "u1").Return(nil)
	f.seats.On("InvalidateCatalog", mock.Anything, f.busID).Return()
	f.publisher.On("PublishBookingEvent", mock.Anything, mock.MatchedBy(func(e *notifications.BookingEvent) bool {
		return e.Type == notifications.EventBookingConfirmed && e.TotalAmount == 1269 && e.BusName == "Night Rider"
	})).Return(nil)

	resp, err := f.svc.CreateBooking(ctx, "u1", req)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, resp.Status)
	assert.Equal(t, int64(1269), resp.TotalAmount)
	assert.Regexp(t, `^BUS-\d{8}-[A-Z2-9]{6}$`, resp.BookingRef)
	require.Len(t, resp.Seats, 2)
	// hold order wins over request order
	assert.Equal(t, "L5", resp.Seats[0].SeatID)
	assert.Equal(t, "Ravi Rao", resp.Seats[0].Passenger.Name)
	assert.Equal(t, "male", resp.Seats[0].Passenger.Gender)
	assert.Equal(t, "L1", resp.Seats[1].SeatID)
	assert.Equal(t, int64(449), resp.Seats[1].Price)
	assert.Equal(t, "Majestic", resp.Boarding.Name)
	assert.Equal(t, "05:30", resp.Dropping.Time)
	assert.False(t, resp.Replayed)

	f.repo.AssertExpectations(t)
	f.seats.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCreateBookingRejectsInvalidHold(t *testing.T) {
	f := setup(t)
	f.seats.On("ValidateHold", mock.Anything, "hold-1", "u1").
		Return(&seats.HoldValidationResult{Valid: false, Reason: "hold has expired"}, nil)

	_, err := f.svc.CreateBooking(context.Background(), "u1", bookingRequest(f.choice))
	assert.ErrorIs(t, err, ErrHoldInvalid)
	assert.Contains(t, err.Error(), "hold has expired")
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBookingPassengerMismatch(t *testing.T) {
	f := setup(t)
	req := bookingRequest(f.choice)
	req.Passengers = []PassengerInput{
		{SeatID: "L1", Name: "Asha Rao", Age: 31, Gender: "female"},
		{SeatID: "U3", Name: "Extra", Age: 20, Gender: "other"},
	}

	f.seats.On("ValidateHold", mock.Anything, "hold-1", "u1").Return(f.validHold("u1"), nil)
	f.points.On("ResolveChoice", mock.Anything, f.busID, req.BoardingPointID, req.DroppingPointID).Return(f.choice, nil)

	_, err := f.svc.CreateBooking(context.Background(), "u1", req)
	var perr *PassengerError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ErrPassengerMismatch)
	assert.Equal(t, []string{"L5"}, perr.Missing)
	assert.Equal(t, []string{"U3"}, perr.Unexpected)
}

func TestCreateBookingUnknownPoint(t *testing.T) {
	f := setup(t)
	req := bookingRequest(f.choice)

	f.seats.On("ValidateHold", mock.Anything, "hold-1", "u1").Return(f.validHold("u1"), nil)
	f.points.On("ResolveChoice", mock.Anything, f.busID, req.BoardingPointID, req.DroppingPointID).Return(nil, points.ErrPointNotFound)

	_, err := f.svc.CreateBooking(context.Background(), "u1", req)
	assert.ErrorIs(t, err, points.ErrPointNotFound)
}

func TestCreateBookingSeatConflict(t *testing.T) {
	f := setup(t)
	req := bookingRequest(f.choice)
	conflict := &seats.SeatError{Reason: seats.ErrSeatUnavailable, SeatIDs: []string{"L1"}}

	f.seats.On("ValidateHold", mock.Anything, "hold-1", "u1").Return(f.validHold("u1"), nil)
	f.points.On("ResolveChoice", mock.Anything, f.busID, req.BoardingPointID, req.DroppingPointID).Return(f.choice, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(conflict)

	_, err := f.svc.CreateBooking(context.Background(), "u1", req)
	assert.ErrorIs(t, err, seats.ErrSeatUnavailable)
	f.seats.AssertNotCalled(t, "ReleaseHold", mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishBookingEvent", mock.Anything, mock.Anything)
}

func TestCreateBookingReplaysIdempotencyKey(t *testing.T) {
	f := setup(t)
	req := bookingRequest(f.choice)
	req.IdempotencyKey = "retry-1"
	existing := &Booking{ID: uuid.New(), BookingRef: "BUS-20260101-ABCDEF", BusID: f.busID, UserID: "u1", Status: StatusConfirmed, TotalAmount: 1269}

	f.repo.On("GetByIdempotencyKey", mock.Anything, "u1", "retry-1").Return(existing, nil)

	resp, err := f.svc.CreateBooking(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.True(t, resp.Replayed)
	assert.Equal(t, existing.ID.String(), resp.ID)
	f.seats.AssertNotCalled(t, "ValidateHold", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBookingDuplicateRaceReplays(t *testing.T) {
	f := setup(t)
	req := bookingRequest(f.choice)
	req.IdempotencyKey = "retry-2"
	winner := &Booking{ID: uuid.New(), BookingRef: "BUS-20260101-WINNER", BusID: f.busID, UserID: "u1", Status: StatusConfirmed}

	f.repo.On("GetByIdempotencyKey", mock.Anything, "u1", "retry-2").Return(nil, ErrBookingNotFound).Once()
	f.seats.On("ValidateHold", mock.Anything, "hold-1", "u1").Return(f.validHold("u1"), nil)
	f.points.On("ResolveChoice", mock.Anything, f.busID, req.BoardingPointID, req.DroppingPointID).Return(f.choice, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(ErrDuplicateRequest)
	f.repo.On("GetByIdempotencyKey", mock.Anything, "u1", "retry-2").Return(winner, nil).Once()

	resp, err := f.svc.CreateBooking(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.True(t, resp.Replayed)
	assert.Equal(t, "BUS-20260101-WINNER", resp.BookingRef)
}

func TestCreateBookingSurvivesPublishFailure(t *testing.T) {
	f := setup(t)
	req := bookingRequest(f.choice)

	f.seats.On("ValidateHold", mock.Anything, "hold-1", "u1").Return(f.validHold("u1"), nil)
	f.points.On("ResolveChoice", mock.Anything, f.busID, req.BoardingPointID, req.DroppingPointID).Return(f.choice, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.seats.On("ReleaseHold", mock.Anything, "hold-1", "u1").Return(errors.New("redis down"))
	f.seats.On("InvalidateCatalog", mock.Anything, f.busID).Return()
	f.publisher.On("PublishBookingEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	resp, err := f.svc.CreateBooking(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, resp.Status)
}

func confirmedBooking(busID uuid.UUID, userID string) *Booking {
	return &Booking{
		ID:          uuid.New(),
		BookingRef:  "BUS-20260101-QWERTY",
		BusID:       busID,
		UserID:      userID,
		Status:      StatusConfirmed,
		TotalAmount: 449,
		Seats:       []BookingSeat{{SeatID: "L1", Position: 1, Price: 449, Active: true}},
	}
}

func TestCancelBookingByOwnerOfBooking(t *testing.T) {
	f := setup(t)
	booking := confirmedBooking(f.busID, "u1")
	actor := users.Actor{ID: "u1", Role: users.RoleUser}

	f.repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("Cancel", mock.Anything, booking, "u1", mock.AnythingOfType("time.Time")).Return(true, nil)
	f.seats.On("InvalidateCatalog", mock.Anything, f.busID).Return()
	f.publisher.On("PublishBookingEvent", mock.Anything, mock.MatchedBy(func(e *notifications.BookingEvent) bool {
		return e.Type == notifications.EventBookingCancelled && e.ActorID == "u1"
	})).Return(nil)

	resp, err := f.svc.CancelBooking(context.Background(), actor, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, resp.Status)
	assert.NotNil(t, resp.CancelledAt)
	f.publisher.AssertExpectations(t)
}

func TestCancelBookingIsIdempotent(t *testing.T) {
	f := setup(t)
	booking := confirmedBooking(f.busID, "u1")
	cancelledAt := time.Now().UTC()
	booking.Status = StatusCancelled
	booking.CancelledAt = &cancelledAt

	f.repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)

	resp, err := f.svc.CancelBooking(context.Background(), users.Actor{ID: "u1", Role: users.RoleUser}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, resp.Status)
	f.repo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishBookingEvent", mock.Anything, mock.Anything)
}

func TestCancelBookingLostRace(t *testing.T) {
	f := setup(t)
	booking := confirmedBooking(f.busID, "u1")
	stored := *booking
	stored.Status = StatusCancelled

	f.repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil).Once()
	f.repo.On("Cancel", mock.Anything, booking, "u1", mock.Anything).Return(false, nil)
	f.repo.On("GetByID", mock.Anything, booking.ID).Return(&stored, nil).Once()

	resp, err := f.svc.CancelBooking(context.Background(), users.Actor{ID: "u1", Role: users.RoleUser}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, resp.Status)
	f.publisher.AssertNotCalled(t, "PublishBookingEvent", mock.Anything, mock.Anything)
}

func TestBookingAccessRules(t *testing.T) {
	f := setup(t)
	booking := confirmedBooking(f.busID, "u1")
	f.repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)

	owner := users.Actor{ID: "op-1", Role: users.RoleOwner}
	otherOwner := users.Actor{ID: "op-2", Role: users.RoleOwner}
	f.buses.On("Authorize", mock.Anything, owner, f.busID).Return(&buses.BusResponse{ID: f.busID.String()}, nil)
	f.buses.On("Authorize", mock.Anything, otherOwner, f.busID).Return(nil, buses.ErrForbidden)

	tests := []struct {
		name    string
		actor   users.Actor
		wantErr error
	}{
		{"booking user", users.Actor{ID: "u1", Role: users.RoleUser}, nil},
		{"admin", users.Actor{ID: "root", Role: users.RoleAdmin}, nil},
		{"bus owner", owner, nil},
		{"other owner", otherOwner, ErrForbidden},
		{"other user", users.Actor{ID: "u2", Role: users.RoleUser}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GetBooking(context.Background(), tt.actor, booking.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTicketRequiresConfirmedBooking(t *testing.T) {
	f := setup(t)
	booking := confirmedBooking(f.busID, "u1")
	booking.Status = StatusCancelled
	f.repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)

	_, _, err := f.svc.Ticket(context.Background(), users.Actor{ID: "u1", Role: users.RoleUser}, booking.ID)
	assert.ErrorIs(t, err, ErrBookingCancelled)
}

func TestTicketRendersPDF(t *testing.T) {
	f := setup(t)
	booking := confirmedBooking(f.busID, "u1")
	f.repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)

	pdf, filename, err := f.svc.Ticket(context.Background(), users.Actor{ID: "u1", Role: users.RoleUser}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "BUS-20260101-QWERTY.pdf", filename)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestListBusBookingsRequiresOwnership(t *testing.T) {
	f := setup(t)
	actor := users.Actor{ID: "op-2", Role: users.RoleOwner}
	f.buses.On("Authorize", mock.Anything, actor, f.busID).Return(nil, buses.ErrForbidden)

	_, err := f.svc.ListBusBookings(context.Background(), actor, f.busID, BookingListQuery{})
	assert.ErrorIs(t, err, buses.ErrForbidden)
	f.repo.AssertNotCalled(t, "ListByBus", mock.Anything, mock.Anything, mock.Anything)
}

func TestListUserBookingsPaginates(t *testing.T) {
	f := setup(t)
	query := BookingListQuery{Page: 2, Limit: 1}
	f.repo.On("ListByUser", mock.Anything, "u1", query).Return([]Booking{*confirmedBooking(f.busID, "u1")}, int64(3), nil)

	list, err := f.svc.ListUserBookings(context.Background(), "u1", query)
	require.NoError(t, err)
	assert.Len(t, list.Bookings, 1)
	assert.Equal(t, int64(3), list.Pagination.Total)
}

func TestGenerateBookingReference(t *testing.T) {
	ref, err := generateBookingReference(time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Regexp(t, `^BUS-20260309-[A-Z2-9]{6}$`, ref)
}
