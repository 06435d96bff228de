package rooms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockRoomRepository) GetByNumber(ctx context.Context, number int) (*domain.Room, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomRepository) Create(ctx context.Context, room domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) Update(ctx context.Context, number int, room domain.Room) error {
	args := m.Called(ctx, number, room)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetRooms(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockCache) SetRooms(ctx context.Context, rooms []domain.Room) error {
	args := m.Called(ctx, rooms)
	return args.Error(0)
}

func (m *MockCache) InvalidateRooms(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var testRooms = []domain.Room{
	{Number: 101, Category: domain.CategoryA},
	{Number: 102, Category: domain.CategoryC},
}

func TestRoomService_ListRooms_CacheMiss(t *testing.T) {
	mockRepo := &MockRoomRepository{}
	mockCache := &MockCache{}
	service := NewRoomService(mockRepo, nil, mockCache, nil, nil)
	ctx := context.Background()

	mockCache.On("GetRooms", ctx).Return(nil, nil).Once()
	mockRepo.On("List", ctx).Return(testRooms, nil).Once()
	mockCache.On("SetRooms", ctx, testRooms).Return(nil).Once()

	rooms, err := service.ListRooms(ctx)

	assert.NoError(t, err)
	assert.Equal(t, testRooms, rooms)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestRoomService_ListRooms_CacheHit(t *testing.T) {
	mockRepo := &MockRoomRepository{}
	mockCache := &MockCache{}
	service := NewRoomService(mockRepo, nil, mockCache, nil, nil)
	ctx := context.Background()

	mockCache.On("GetRooms", ctx).Return(testRooms, nil).Once()

	rooms, err := service.ListRooms(ctx)

	assert.NoError(t, err)
	assert.Equal(t, testRooms, rooms)
	mockRepo.AssertNotCalled(t, "List", mock.Anything)
}

func TestRoomService_ListRooms_CacheErrorFallsBack(t *testing.T) {
	mockRepo := &MockRoomRepository{}
	mockCache := &MockCache{}
	service := NewRoomService(mockRepo, nil, mockCache, nil, nil)
	ctx := context.Background()

	mockCache.On("GetRooms", ctx).Return(nil, errors.New("redis down")).Once()
	mockRepo.On("List", ctx).Return(testRooms, nil).Once()
	mockCache.On("SetRooms", ctx, testRooms).Return(errors.New("redis down")).Once()

	rooms, err := service.ListRooms(ctx)

	assert.NoError(t, err)
	assert.Equal(t, testRooms, rooms)
}

func TestRoomService_ListRooms_RepoError(t *testing.T) {
	mockRepo := &MockRoomRepository{}
	service := NewRoomService(mockRepo, nil, nil, nil, nil)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(nil, errors.New("db down")).Once()

	rooms, err := service.ListRooms(ctx)

	assert.Error(t, err)
	assert.Nil(t, rooms)
}

func TestRoomService_CreateRoom(t *testing.T) {
	mockRepo := &MockRoomRepository{}
	mockCache := &MockCache{}
	service := NewRoomService(mockRepo, nil, mockCache, nil, nil)
	ctx := context.Background()
	room := domain.Room{Number: 201, Category: domain.CategoryB}

	mockRepo.On("Create", ctx, room).Return(nil).Once()
	mockCache.On("InvalidateRooms", ctx).Return(nil).Once()

	created, err := service.CreateRoom(ctx, room)

	require.NoError(t, err)
	assert.Equal(t, room, *created)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestRoomService_CreateRoom_Errors(t *testing.T) {
	mockRepo := &MockRoomRepository{}
	service := NewRoomService(mockRepo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := service.CreateRoom(ctx, domain.Room{Number: 0, Category: domain.CategoryA})
	assert.ErrorIs(t, err, domain.ErrMalformedInput)

	_, err = service.CreateRoom(ctx, domain.Room{Number: 5})
	assert.ErrorIs(t, err, domain.ErrMalformedInput)

	dup := domain.Room{Number: 101, Category: domain.CategoryA}
	mockRepo.On("Create", ctx, dup).Return(domain.ErrDuplicateRoom).Once()
	_, err = service.CreateRoom(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateRoom)
}

func TestRoomService_UpdateRoom(t *testing.T) {
	mockRepo := &MockRoomRepository{}
	mockCache := &MockCache{}
	service := NewRoomService(mockRepo, nil, mockCache, nil, nil)
	ctx := context.Background()
	room := domain.Room{Number: 301, Category: domain.CategoryD}

	mockRepo.On("Update", ctx, 101, room).Return(nil).Once()
	mockCache.On("InvalidateRooms", ctx).Return(nil).Once()

	updated, err := service.UpdateRoom(ctx, 101, room)

	require.NoError(t, err)
	assert.Equal(t, 301, updated.Number)
	mockCache.AssertExpectations(t)
}

func TestRoomService_DeleteRoom(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, domain.Room{Number: 101, Category: domain.CategoryA}))
	require.NoError(t, store.Create(ctx, domain.Room{Number: 102, Category: domain.CategoryB}))
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertBooking(ctx, &domain.Booking{
			Surname:  "Ivanov",
			Rooms:    []domain.Room{{Number: 101}},
			CheckIn:  domain.NewDate(2030, time.January, 1),
			CheckOut: domain.NewDate(2030, time.January, 3),
		})
	}))

	mockCache := &MockCache{}
	mockCache.On("InvalidateRooms", ctx).Return(nil).Once()
	service := NewRoomService(store, store, mockCache, nil, nil)

	err := service.DeleteRoom(ctx, 101)
	assert.ErrorIs(t, err, domain.ErrRoomInUse)

	assert.ErrorIs(t, service.DeleteRoom(ctx, 999), domain.ErrNotFound)

	require.NoError(t, service.DeleteRoom(ctx, 102))
	_, err = store.GetByNumber(ctx, 102)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	mockCache.AssertExpectations(t)
}

func TestRoomService_Rates(t *testing.T) {
	rates := domain.RateTable{domain.CategoryA: 400}
	service := NewRoomService(nil, nil, nil, rates, nil)
	assert.Equal(t, rates, service.Rates())
}
