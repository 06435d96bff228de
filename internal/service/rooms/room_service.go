package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"go.uber.org/zap"
)

type RoomUseCase interface {
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetRoom(ctx context.Context, number int) (*domain.Room, error)
	CreateRoom(ctx context.Context, room domain.Room) (*domain.Room, error)
	UpdateRoom(ctx context.Context, number int, room domain.Room) (*domain.Room, error)
	DeleteRoom(ctx context.Context, number int) error
	Rates() domain.RateTable
}

type Cache interface {
	GetRooms(ctx context.Context) ([]domain.Room, error)
	SetRooms(ctx context.Context, rooms []domain.Room) error
	InvalidateRooms(ctx context.Context) error
}

type RoomService struct {
	repo   repository.RoomRepository
	tx     repository.Transactor
	cache  Cache
	rates  domain.RateTable
	logger *zap.Logger
}

func NewRoomService(repo repository.RoomRepository, tx repository.Transactor, cache Cache, rates domain.RateTable, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, tx: tx, cache: cache, rates: rates, logger: logger}
}

func (s *RoomService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if s.cache != nil {
		cached, err := s.cache.GetRooms(ctx)
		if err != nil {
			s.logger.Warn("rooms cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetRooms(ctx, rooms); err != nil {
			s.logger.Warn("rooms cache write failed", zap.Error(err))
		}
	}
	return rooms, nil
}

func (s *RoomService) GetRoom(ctx context.Context, number int) (*domain.Room, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *RoomService) CreateRoom(ctx context.Context, room domain.Room) (*domain.Room, error) {
	if err := room.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("room created", zap.Int("room", room.Number), zap.Stringer("category", room.Category))
	return &room, nil
}

// UpdateRoom may renumber the room; bookings holding it follow the new number.
func (s *RoomService) UpdateRoom(ctx context.Context, number int, room domain.Room) (*domain.Room, error) {
	if err := room.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, number, room); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("room updated", zap.Int("room", number), zap.Int("new_number", room.Number))
	return &room, nil
}

// DeleteRoom refuses to remove a room that any booking references.
func (s *RoomService) DeleteRoom(ctx context.Context, number int) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		locked, err := tx.LockRooms(ctx, []int{number})
		if err != nil {
			return fmt.Errorf("lock room: %w", err)
		}
		if len(locked) == 0 {
			return domain.ErrNotFound
		}
		used, err := tx.RoomInUse(ctx, number)
		if err != nil {
			return fmt.Errorf("check room usage: %w", err)
		}
		if used {
			return domain.ErrRoomInUse
		}
		return tx.DeleteRoom(ctx, number)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRoomInUse) {
			s.logger.Info("room deletion refused", zap.Int("room", number))
		}
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("room deleted", zap.Int("room", number))
	return nil
}

func (s *RoomService) Rates() domain.RateTable {
	return s.rates
}

func (s *RoomService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRooms(ctx); err != nil {
		s.logger.Warn("rooms cache invalidation failed", zap.Error(err))
	}
}

var _ RoomUseCase = (*RoomService)(nil)
