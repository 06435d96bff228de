package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGTransactor struct {
	db *pgxpool.Pool
}

func NewTransactor(db *pgxpool.Pool) Transactor {
	return &PGTransactor{db: db}
}

// WithinTx runs fn under read committed; writers serialize on the room rows
// they lock, so conflicting submissions see each other's commits.
func (t *PGTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

// LockRooms locks in ascending number order so concurrent writers cannot
// deadlock. Missing rooms are simply absent from the result.
func (t *pgTx) LockRooms(ctx context.Context, numbers []int) ([]domain.Room, error) {
	rows, err := t.tx.Query(ctx, `SELECT number, category FROM rooms WHERE number = ANY($1) ORDER BY number FOR UPDATE`, toInt32s(numbers))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0, len(numbers))
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.Number, &room.Category); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (t *pgTx) LockBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	var locked int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM bookings WHERE id=$1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return getBooking(ctx, t.tx, id)
}

func (t *pgTx) ListByRoom(ctx context.Context, room int, excludeID int64) ([]domain.Booking, error) {
	return listByRoom(ctx, t.tx, room, excludeID)
}

func (t *pgTx) RoomInUse(ctx context.Context, number int) (bool, error) {
	var used bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM booking_rooms WHERE room_number=$1)`, number).Scan(&used)
	return used, err
}

func (t *pgTx) InsertBooking(ctx context.Context, booking *domain.Booking) error {
	if err := t.tx.QueryRow(ctx, `INSERT INTO bookings (owner_id, surname, check_in, check_out, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, booking.Owner, booking.Surname, booking.CheckIn.Time(), booking.CheckOut.Time(), booking.Created).
		Scan(&booking.ID); err != nil {
		return err
	}
	return t.insertRooms(ctx, booking)
}

func (t *pgTx) UpdateBooking(ctx context.Context, booking *domain.Booking) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE bookings SET surname=$2, check_in=$3, check_out=$4 WHERE id=$1`,
		booking.ID, booking.Surname, booking.CheckIn.Time(), booking.CheckOut.Time())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM booking_rooms WHERE booking_id=$1`, booking.ID); err != nil {
		return err
	}
	return t.insertRooms(ctx, booking)
}

func (t *pgTx) insertRooms(ctx context.Context, booking *domain.Booking) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO booking_rooms (booking_id, room_number) SELECT $1, unnest($2::int[])`,
		booking.ID, toInt32s(booking.RoomNumbers()))
	return err
}

func (t *pgTx) DeleteRoom(ctx context.Context, number int) error {
	cmd, err := t.tx.Exec(ctx, `DELETE FROM rooms WHERE number=$1`, number)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ Transactor = (*PGTransactor)(nil)
