package bookings

import (
	"context"
	"testing"
	"time"

	"busline/internal/notifications"
	"busline/internal/shared/constants"
	"busline/internal/users"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// setupWithIdempotency rebuilds the fixture's service on a miniredis-backed idempotency store
func setupWithIdempotency(t *testing.T) (*fixture, *IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	f := setup(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewIdempotencyStore(client, 24*time.Hour)
	f.svc = NewService(f.repo, f.seats, f.points, f.buses, f.publisher, store)
	return f, store, mr
}

// liveContext matches a context that has not been cancelled
func liveContext() interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
}

func (f *fixture) expectBookingFlow(req CreateBookingRequest) {
	f.seats.On("ValidateHold", mock.Anything, "hold-1", "u1").Return(f.validHold("u1"), nil)
	f.points.On("ResolveChoice", mock.Anything, f.busID, req.BoardingPointID, req.DroppingPointID).Return(f.choice, nil)
	f.repo.On("GetByIdempotencyKey", mock.Anything, "u1", mock.Anything).Return(nil, ErrBookingNotFound)
}

func (f *fixture) expectPostCommit() {
	f.seats.On("ReleaseHold", liveContext(), "hold-1", "u1").Return(nil)
	f.seats.On("InvalidateCatalog", liveContext(), f.busID).Return()
	f.publisher.On("PublishBookingEvent", liveContext(), mock.Anything).Return(nil)
}

func TestCreateBookingRetryAfterClientDisconnect(t *testing.T) {
	f, _, mr := setupWithIdempotency(t)
	req := bookingRequest(f.choice)
	req.IdempotencyKey = "net-retry"
	redisKey := constants.BuildIdempotencyKey("u1", "net-retry")

	f.expectBookingFlow(req)
	ctx, cancel := context.WithCancel(context.Background())
	f.repo.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(context.Canceled).Once()

	_, err := f.svc.CreateBooking(ctx, "u1", req)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, mr.Exists(redisKey), "failed attempt must free its key")

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.expectPostCommit()

	resp, err := f.svc.CreateBooking(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.False(t, resp.Replayed)

	stored, err := mr.Get(redisKey)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, stored)
	f.repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestCreateBookingSettlesAfterCommitWhenClientLeaves(t *testing.T) {
	f, _, mr := setupWithIdempotency(t)
	req := bookingRequest(f.choice)
	req.IdempotencyKey = "gone"

	f.expectBookingFlow(req)
	ctx, cancel := context.WithCancel(context.Background())
	f.repo.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil)
	f.expectPostCommit()

	resp, err := f.svc.CreateBooking(ctx, "u1", req)
	require.NoError(t, err)

	stored, err := mr.Get(constants.BuildIdempotencyKey("u1", "gone"))
	require.NoError(t, err)
	assert.Equal(t, resp.ID, stored)
	f.seats.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCreateBookingReplaysResolvedKey(t *testing.T) {
	f, _, _ := setupWithIdempotency(t)
	req := bookingRequest(f.choice)
	req.IdempotencyKey = "k-1"

	var created *Booking
	f.expectBookingFlow(req)
	f.repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*Booking) }).
		Return(nil).Once()
	f.expectPostCommit()

	first, err := f.svc.CreateBooking(context.Background(), "u1", req)
	require.NoError(t, err)
	require.NotNil(t, created)

	// database lookup misses (e.g. a replica lag); the Redis marker still points at the booking
	f.repo.On("GetByID", mock.Anything, created.ID).Return(created, nil)

	second, err := f.svc.CreateBooking(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.ID, second.ID)
	f.repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreateBookingPendingKeyExpiresQuickly(t *testing.T) {
	f, store, mr := setupWithIdempotency(t)
	req := bookingRequest(f.choice)
	req.IdempotencyKey = "crashed"

	// an attempt that died without settling its key
	_, err := store.Claim(context.Background(), "u1", "crashed")
	require.NoError(t, err)

	f.repo.On("GetByIdempotencyKey", mock.Anything, "u1", "crashed").Return(nil, ErrBookingNotFound)
	_, err = f.svc.CreateBooking(context.Background(), "u1", req)
	require.ErrorIs(t, err, ErrRequestInProgress)

	mr.FastForward(constants.TTL_IDEMPOTENCY_PENDING + time.Second)

	f.expectBookingFlow(req)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectPostCommit()

	resp, err := f.svc.CreateBooking(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
}

func TestCancelBookingSettlesAfterClientLeaves(t *testing.T) {
	f := setup(t)
	booking := confirmedBooking(f.busID, "u1")
	ctx, cancel := context.WithCancel(context.Background())

	f.repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("Cancel", mock.Anything, booking, "u1", mock.AnythingOfType("time.Time")).
		Run(func(mock.Arguments) { cancel() }).
		Return(true, nil)
	f.seats.On("InvalidateCatalog", liveContext(), f.busID).Return()
	f.publisher.On("PublishBookingEvent", liveContext(), mock.MatchedBy(func(e *notifications.BookingEvent) bool {
		return e.Type == notifications.EventBookingCancelled
	})).Return(nil)

	resp, err := f.svc.CancelBooking(ctx, users.Actor{ID: "u1", Role: users.RoleUser}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, resp.Status)
	f.seats.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestIdempotencyResolvedMarkerOutlivesPending(t *testing.T) {
	store, mr := newTestIdempotencyStore(t)
	ctx := context.Background()
	bookingID := uuid.New()

	_, err := store.Claim(ctx, "u1", "k1")
	require.NoError(t, err)
	require.NoError(t, store.Resolve(ctx, "u1", "k1", bookingID))

	mr.FastForward(constants.TTL_IDEMPOTENCY_PENDING * 10)

	id, err := store.Claim(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, bookingID, id)
}
