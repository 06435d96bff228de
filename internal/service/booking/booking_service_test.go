package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProducer - реализует интерфейс Producer напрямую
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var testRates = domain.RateTable{
	domain.CategoryA: 400,
	domain.CategoryB: 300,
	domain.CategoryC: 200,
	domain.CategoryD: 100,
}

// now is the morning of 2021-08-30 at the hotel.
var now = time.Date(2021, 8, 30, 9, 0, 0, 0, time.UTC)

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newTestService(t *testing.T, producer Producer) (*BookingService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, domain.Room{Number: 101, Category: domain.CategoryA}))
	require.NoError(t, store.Create(ctx, domain.Room{Number: 102, Category: domain.CategoryB}))
	require.NoError(t, store.Create(ctx, domain.Room{Number: 104, Category: domain.CategoryD}))

	service := NewBookingService(store.Bookings(), store, store, testRates, producer, "booking-events",
		WithClock(domain.FixedClock(now)))
	return service, store
}

func create(t *testing.T, s *BookingService, rooms []int, in, out string) *BookingView {
	t.Helper()
	view, err := s.CreateBooking(context.Background(), CreateBookingInput{
		Owner:    7,
		Surname:  "Ivanov",
		Rooms:    rooms,
		CheckIn:  date(t, in),
		CheckOut: date(t, out),
	})
	require.NoError(t, err)
	return view
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	producer := &MockProducer{}
	service, _ := newTestService(t, producer)
	ctx := context.Background()

	producer.On("Publish", mock.Anything, "booking-events", "1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == EventBookingCreated && e.BookingID == 1 && e.Price == 800 && e.ID != ""
	})).Return(nil).Once()

	view, err := service.CreateBooking(ctx, CreateBookingInput{
		Owner:    7,
		Surname:  "  Ivanov ",
		Rooms:    []int{101},
		CheckIn:  date(t, "2021-09-01"),
		CheckOut: date(t, "2021-09-03"),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), view.ID)
	assert.Equal(t, int64(7), view.Owner)
	assert.Equal(t, "Ivanov", view.Surname)
	assert.Equal(t, []domain.Room{{Number: 101, Category: domain.CategoryA}}, view.Rooms)
	assert.Equal(t, 2, view.Nights)
	assert.Equal(t, int64(800), view.Price)
	assert.Equal(t, now, view.Created)
	producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_TwoCategoriesPrice(t *testing.T) {
	service, _ := newTestService(t, nil)

	view := create(t, service, []int{104, 101}, "2021-09-01", "2021-09-03")

	assert.Equal(t, []int{101, 104}, []int{view.Rooms[0].Number, view.Rooms[1].Number})
	assert.Equal(t, int64(2*(400+100)), view.Price)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	testCases := []struct {
		name     string
		input    CreateBookingInput
		sentinel error
		message  string
	}{
		{
			name:     "empty surname",
			input:    CreateBookingInput{Surname: " ", Rooms: []int{101}, CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-02")},
			sentinel: domain.ErrMalformedInput,
		},
		{
			name:     "surname too long",
			input:    CreateBookingInput{Surname: "Abcdefghijabcdefghijabcdefghijk", Rooms: []int{101}, CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-02")},
			sentinel: domain.ErrMalformedInput,
		},
		{
			name:     "no rooms",
			input:    CreateBookingInput{Surname: "Ivanov", CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-02")},
			sentinel: domain.ErrMalformedInput,
		},
		{
			name:     "negative room",
			input:    CreateBookingInput{Surname: "Ivanov", Rooms: []int{-1}, CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-02")},
			sentinel: domain.ErrMalformedInput,
		},
		{
			name:     "missing dates",
			input:    CreateBookingInput{Surname: "Ivanov", Rooms: []int{101}},
			sentinel: domain.ErrMalformedInput,
		},
		{
			name:     "reversed dates",
			input:    CreateBookingInput{Surname: "Ivanov", Rooms: []int{101}, CheckIn: date(t, "2021-09-15"), CheckOut: date(t, "2021-09-13")},
			sentinel: domain.ErrTimespanInvalid,
			message:  domain.MsgInvalidOrder,
		},
		{
			name:     "past check in",
			input:    CreateBookingInput{Surname: "Ivanov", Rooms: []int{101}, CheckIn: date(t, "2021-08-29"), CheckOut: date(t, "2021-09-02")},
			sentinel: domain.ErrTimespanInvalid,
			message:  domain.MsgPastDate,
		},
		{
			name:     "unknown room",
			input:    CreateBookingInput{Surname: "Ivanov", Rooms: []int{101, 999}, CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-02")},
			sentinel: domain.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			view, err := service.CreateBooking(ctx, tc.input)
			assert.Nil(t, view)
			assert.ErrorIs(t, err, tc.sentinel)
			if tc.message != "" {
				assert.EqualError(t, err, tc.message)
			}
		})
	}

	all, err := service.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBookingService_CreateBooking_SameDayTurnoverRejected(t *testing.T) {
	service, _ := newTestService(t, nil)
	create(t, service, []int{101}, "2021-09-01", "2021-09-05")

	_, err := service.CreateBooking(context.Background(), CreateBookingInput{
		Surname: "Petrov", Rooms: []int{101}, CheckIn: date(t, "2021-09-05"), CheckOut: date(t, "2021-09-07"),
	})

	assert.ErrorIs(t, err, domain.ErrRoomsUnavailable)
	assert.EqualError(t, err, domain.MsgRoomsUnavailable)
}

func TestBookingService_CreateBooking_NextDayAccepted(t *testing.T) {
	service, _ := newTestService(t, nil)
	create(t, service, []int{101}, "2021-09-01", "2021-09-05")

	view := create(t, service, []int{101}, "2021-09-06", "2021-09-08")
	assert.Equal(t, int64(2), view.ID)
}

func TestBookingService_CreateBooking_AllOrNothing(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()
	create(t, service, []int{102}, "2021-09-02", "2021-09-04")

	_, err := service.CreateBooking(ctx, CreateBookingInput{
		Surname: "Petrov", Rooms: []int{101, 102}, CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-03"),
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.KindRoomsUnavailable, verr.Kind)
	assert.Equal(t, []int{102}, verr.Rooms)

	free, err := service.IsRoomAvailable(ctx, 101, date(t, "2021-09-01"), date(t, "2021-09-03"), nil)
	require.NoError(t, err)
	assert.True(t, free)

	all, err := service.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBookingService_CreateBooking_PublishFailureIsLogged(t *testing.T) {
	producer := &MockProducer{}
	service, _ := newTestService(t, producer)
	service.notificationsTopic = "booking-notifications"

	producer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	producer.On("Publish", mock.Anything, "booking-notifications", mock.Anything, mock.Anything).Return(nil).Once()

	view, err := service.CreateBooking(context.Background(), CreateBookingInput{
		Surname: "Ivanov", Rooms: []int{101}, CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-02"),
	})

	require.NoError(t, err)
	assert.NotNil(t, view)
	producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_Concurrent(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	const workers = 8
	checkIn, checkOut := date(t, "2021-09-10"), date(t, "2021-09-12")
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.CreateBooking(ctx, CreateBookingInput{
				Surname: "Racer", Rooms: []int{101}, CheckIn: checkIn, CheckOut: checkOut,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, domain.ErrRoomsUnavailable) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	violations, err := service.AuditOverlaps(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestBookingService_UpdateBooking_ExtendsOwnStay(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()
	original := create(t, service, []int{101}, "2021-09-01", "2021-09-05")

	updated, err := service.UpdateBooking(ctx, original.ID, UpdateBookingInput{
		Surname: "Ivanova", Rooms: []int{101}, CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-07"),
	})

	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, original.Owner, updated.Owner)
	assert.Equal(t, original.Created, updated.Created)
	assert.Equal(t, "Ivanova", updated.Surname)
	assert.Equal(t, 6, updated.Nights)
	assert.Equal(t, int64(2400), updated.Price)

	stored, err := service.GetBooking(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2021-09-07"), stored.CheckOut)
}

func TestBookingService_UpdateBooking_ConflictWithOther(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()
	create(t, service, []int{101}, "2021-09-10", "2021-09-12")
	mine := create(t, service, []int{102}, "2021-09-10", "2021-09-12")

	_, err := service.UpdateBooking(ctx, mine.ID, UpdateBookingInput{
		Surname: "Ivanov", Rooms: []int{101, 102}, CheckIn: date(t, "2021-09-10"), CheckOut: date(t, "2021-09-12"),
	})
	assert.ErrorIs(t, err, domain.ErrRoomsUnavailable)

	stored, err := service.GetBooking(ctx, mine.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Rooms, 1)
}

func TestBookingService_UpdateBooking_NotFound(t *testing.T) {
	service, _ := newTestService(t, nil)

	_, err := service.UpdateBooking(context.Background(), 42, UpdateBookingInput{
		Surname: "Ivanov", Rooms: []int{101}, CheckIn: date(t, "2021-09-01"), CheckOut: date(t, "2021-09-02"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_UpdateBooking_TimespanCheckedFirst(t *testing.T) {
	service, _ := newTestService(t, nil)

	_, err := service.UpdateBooking(context.Background(), 42, UpdateBookingInput{
		Surname: "Ivanov", Rooms: []int{101}, CheckIn: date(t, "2021-09-15"), CheckOut: date(t, "2021-09-13"),
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ReasonInvalidOrder, verr.Reason)
}

func TestBookingService_IsRoomAvailable(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()
	b := create(t, service, []int{101}, "2021-09-01", "2021-09-05")

	for i := 0; i < 2; i++ {
		free, err := service.IsRoomAvailable(ctx, 101, date(t, "2021-09-05"), date(t, "2021-09-06"), nil)
		require.NoError(t, err)
		assert.False(t, free)
	}

	free, err := service.IsRoomAvailable(ctx, 101, date(t, "2021-09-06"), date(t, "2021-09-08"), nil)
	require.NoError(t, err)
	assert.True(t, free)

	free, err = service.IsRoomAvailable(ctx, 101, date(t, "2021-09-02"), date(t, "2021-09-03"), &b.ID)
	require.NoError(t, err)
	assert.True(t, free)

	_, err = service.IsRoomAvailable(ctx, 999, date(t, "2021-09-02"), date(t, "2021-09-03"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_Quote(t *testing.T) {
	service, _ := newTestService(t, nil)

	nights, price := service.Quote(domain.Booking{
		Rooms:    []domain.Room{{Number: 101, Category: domain.CategoryA}},
		CheckIn:  date(t, "2021-09-01"),
		CheckOut: date(t, "2021-09-03"),
	})
	assert.Equal(t, 2, nights)
	assert.Equal(t, int64(800), price)
}

func TestBookingService_SearchBookings(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()
	create(t, service, []int{101, 102}, "2021-09-01", "2021-09-03")
	create(t, service, []int{101}, "2021-09-05", "2021-09-06")

	found, err := service.SearchBookings(ctx, domain.BookingFilter{Rooms: []int{101, 102}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found[0].ID)

	checkIn := date(t, "2021-09-05")
	found, err = service.SearchBookings(ctx, domain.BookingFilter{Surname: "Ivanov", CheckIn: &checkIn})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(2), found[0].ID)

	created := domain.DateOf(now)
	found, err = service.SearchBookings(ctx, domain.BookingFilter{Created: &created})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestBookingService_SearchBookingsCreatedInHotelZone(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, domain.Room{Number: 101, Category: domain.CategoryA}))

	late := time.Date(2021, 8, 30, 21, 30, 0, 0, time.UTC)
	service := NewBookingService(store.Bookings(), store, store, testRates, nil, "booking-events",
		WithClock(domain.FixedClock(late)), WithLocation(time.FixedZone("UTC+3", 3*60*60)))
	create(t, service, []int{101}, "2021-09-01", "2021-09-02")

	local := date(t, "2021-08-31")
	found, err := service.SearchBookings(ctx, domain.BookingFilter{Created: &local})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	utc := date(t, "2021-08-30")
	found, err = service.SearchBookings(ctx, domain.BookingFilter{Created: &utc})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestBookingService_DeleteBooking(t *testing.T) {
	producer := &MockProducer{}
	service, _ := newTestService(t, producer)
	ctx := context.Background()

	producer.On("Publish", mock.Anything, "booking-events", "1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == EventBookingCreated
	})).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking-events", "1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == EventBookingDeleted && e.Rooms[0] == 101
	})).Return(nil).Once()

	b := create(t, service, []int{101}, "2021-09-01", "2021-09-05")
	require.NoError(t, service.DeleteBooking(ctx, b.ID))
	assert.ErrorIs(t, service.DeleteBooking(ctx, b.ID), domain.ErrNotFound)

	free, err := service.IsRoomAvailable(ctx, 101, date(t, "2021-09-01"), date(t, "2021-09-05"), nil)
	require.NoError(t, err)
	assert.True(t, free)
	producer.AssertExpectations(t)
}

func TestBookingService_AuditOverlaps(t *testing.T) {
	service, store := newTestService(t, nil)
	ctx := context.Background()
	create(t, service, []int{101}, "2021-09-01", "2021-09-05")

	// Bypass the booking pipeline to plant a double booking.
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBooking(ctx, &domain.Booking{
			Surname:  "Ghost",
			Rooms:    []domain.Room{{Number: 101}},
			CheckIn:  date(t, "2021-09-04"),
			CheckOut: date(t, "2021-09-06"),
		})
	}))

	violations, err := service.AuditOverlaps(ctx)
	assert.ErrorIs(t, err, domain.ErrConsistency)
	require.Len(t, violations, 1)
	assert.Equal(t, 101, violations[0].Room)
}
