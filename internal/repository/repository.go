package repository

import (
	"context"

	"github.com/Domenick1991/hotelbooking/internal/domain"
)

type RoomRepository interface {
	List(ctx context.Context) ([]domain.Room, error)
	GetByNumber(ctx context.Context, number int) (*domain.Room, error)
	Create(ctx context.Context, room domain.Room) error
	// Update replaces the room stored under number; bookings follow a
	// changed number.
	Update(ctx context.Context, number int, room domain.Room) error
}

type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	// ListByRoom returns bookings referencing the room, skipping excludeID
	// when it is non-zero.
	ListByRoom(ctx context.Context, room int, excludeID int64) ([]domain.Booking, error)
	Delete(ctx context.Context, id int64) error
}

// Tx is the view of the store inside one transaction. Rows returned by the
// Lock methods stay locked until the transaction ends.
type Tx interface {
	LockRooms(ctx context.Context, numbers []int) ([]domain.Room, error)
	LockBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ListByRoom(ctx context.Context, room int, excludeID int64) ([]domain.Booking, error)
	RoomInUse(ctx context.Context, number int) (bool, error)
	InsertBooking(ctx context.Context, booking *domain.Booking) error
	UpdateBooking(ctx context.Context, booking *domain.Booking) error
	DeleteRoom(ctx context.Context, number int) error
}

// Transactor runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
