package analytics

import (
	"context"
	"testing"
	"time"

	"busline/internal/buses"
	"busline/internal/users"
	"busline/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetDeckSummaries(ctx context.Context, busID uuid.UUID) ([]DeckSummary, error) {
	args := m.Called(ctx, busID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DeckSummary), args.Error(1)
}

func (m *MockRepository) GetBookingSummary(ctx context.Context, busID uuid.UUID) (*BookingSummary, error) {
	args := m.Called(ctx, busID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingSummary), args.Error(1)
}

func (m *MockRepository) GetPointUsage(ctx context.Context, busID uuid.UUID) ([]PointUsage, []PointUsage, error) {
	args := m.Called(ctx, busID)
	return args.Get(0).([]PointUsage), args.Get(1).([]PointUsage), args.Error(2)
}

func (m *MockRepository) GetDailyBookingStats(ctx context.Context, busID uuid.UUID, since time.Time) ([]DailyBookingStats, error) {
	args := m.Called(ctx, busID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DailyBookingStats), args.Error(1)
}

type MockBusDirectory struct {
	mock.Mock
}

func (m *MockBusDirectory) Authorize(ctx context.Context, actor users.Actor, busID uuid.UUID) (*buses.BusResponse, error) {
	args := m.Called(ctx, actor, busID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buses.BusResponse), args.Error(1)
}

var owner = users.Actor{ID: "operator-1", Role: users.RoleOwner}

func expectReportQueries(repo *MockRepository, busID uuid.UUID) {
	repo.On("GetDeckSummaries", mock.Anything, busID).Return([]DeckSummary{
		{Deck: "lower", Total: 15, Sold: 6, Blocked: 1},
		{Deck: "upper", Total: 15, Sold: 3, Blocked: 0},
	}, nil)
	repo.On("GetBookingSummary", mock.Anything, busID).Return(&BookingSummary{
		Confirmed: 4, Cancelled: 1, SeatsBooked: 9, Revenue: 3890, AverageValue: 972.5, CancellationRate: 0.2,
	}, nil)
	repo.On("GetPointUsage", mock.Anything, busID).Return(
		[]PointUsage{{Name: "Majestic", Time: "21:00", Bookings: 4}},
		[]PointUsage{{Name: "Koyambedu", Time: "05:30", Bookings: 4}},
		nil,
	)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]DeckSummary{
		{Deck: "lower", Total: 15, Sold: 6, Blocked: 1},
		{Deck: "upper", Total: 15, Sold: 3, Blocked: 0},
	})
	assert.Equal(t, 30, s.Total)
	assert.Equal(t, 9, s.Sold)
	assert.Equal(t, 1, s.Blocked)
	assert.Equal(t, 20, s.Available)
	assert.Equal(t, 0.3103, s.Occupancy)

	assert.Equal(t, SeatSummary{}, Summarize(nil))
}

func TestCancellationRate(t *testing.T) {
	assert.Equal(t, 0.0, cancellationRate(0, 0))
	assert.Equal(t, 0.25, cancellationRate(3, 1))
	assert.Equal(t, 0.3333, cancellationRate(2, 1))
}

func TestGetBusReport(t *testing.T) {
	repo := new(MockRepository)
	dir := new(MockBusDirectory)
	busID := uuid.New()
	departure := time.Date(2026, 11, 2, 21, 0, 0, 0, time.UTC)

	dir.On("Authorize", mock.Anything, owner, busID).Return(&buses.BusResponse{ID: busID.String(), Name: "Night Rider 402", DepartureAt: departure}, nil)
	expectReportQueries(repo, busID)

	report, err := NewService(repo, dir, nil).GetBusReport(context.Background(), owner, busID)
	require.NoError(t, err)
	assert.Equal(t, "Night Rider 402", report.BusName)
	assert.Equal(t, departure, report.DepartureAt)
	assert.Equal(t, 9, report.Seats.Sold)
	assert.Equal(t, int64(3890), report.Bookings.Revenue)
	assert.Len(t, report.Decks, 2)
	assert.Equal(t, "Majestic", report.Boarding[0].Name)
}

func TestGetBusReportForbidden(t *testing.T) {
	repo := new(MockRepository)
	dir := new(MockBusDirectory)
	busID := uuid.New()
	stranger := users.Actor{ID: "someone", Role: users.RoleOwner}

	dir.On("Authorize", mock.Anything, stranger, busID).Return(nil, buses.ErrForbidden)

	_, err := NewService(repo, dir, nil).GetBusReport(context.Background(), stranger, busID)
	assert.ErrorIs(t, err, buses.ErrForbidden)
	repo.AssertNotCalled(t, "GetDeckSummaries", mock.Anything, mock.Anything)
}

func TestGetBusReportCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := new(MockRepository)
	dir := new(MockBusDirectory)
	busID := uuid.New()

	dir.On("Authorize", mock.Anything, owner, busID).Return(&buses.BusResponse{ID: busID.String(), Name: "Night Rider 402"}, nil)
	expectReportQueries(repo, busID)

	svc := NewService(repo, dir, cache.NewService(client))
	first, err := svc.GetBusReport(context.Background(), owner, busID)
	require.NoError(t, err)
	second, err := svc.GetBusReport(context.Background(), owner, busID)
	require.NoError(t, err)

	assert.Equal(t, first.Bookings, second.Bookings)
	repo.AssertNumberOfCalls(t, "GetDeckSummaries", 1)
	dir.AssertNumberOfCalls(t, "Authorize", 2)
}

func TestGetDailyStatsClampsDays(t *testing.T) {
	repo := new(MockRepository)
	dir := new(MockBusDirectory)
	busID := uuid.New()
	now := time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)

	dir.On("Authorize", mock.Anything, owner, busID).Return(&buses.BusResponse{}, nil)
	repo.On("GetDailyBookingStats", mock.Anything, busID, time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)).
		Return([]DailyBookingStats{{Date: "2026-10-17", TotalBookings: 2}}, nil)
	repo.On("GetDailyBookingStats", mock.Anything, busID, time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)).
		Return([]DailyBookingStats{}, nil)

	svc := NewService(repo, dir, nil).(*service)
	svc.now = func() time.Time { return now }

	stats, err := svc.GetDailyStats(context.Background(), owner, busID, 0)
	require.NoError(t, err)
	assert.Len(t, stats, 1)

	_, err = svc.GetDailyStats(context.Background(), owner, busID, 500)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
