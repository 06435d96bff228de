package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const selectBookings = `SELECT b.id, b.owner_id, b.surname, b.check_in, b.check_out, b.created_at,
	array_agg(r.number ORDER BY r.number), array_agg(r.category ORDER BY r.number)
	FROM bookings b
	JOIN booking_rooms br ON br.booking_id = b.id
	JOIN rooms r ON r.number = br.room_number`

func queryBookings(ctx context.Context, q querier, where string, args ...any) ([]domain.Booking, error) {
	rows, err := q.Query(ctx, selectBookings+" "+where+" GROUP BY b.id ORDER BY b.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var (
			b                 domain.Booking
			checkIn, checkOut time.Time
			numbers           []int32
			categories        []int16
		)
		if err := rows.Scan(&b.ID, &b.Owner, &b.Surname, &checkIn, &checkOut, &b.Created, &numbers, &categories); err != nil {
			return nil, err
		}
		b.CheckIn = domain.DateOf(checkIn)
		b.CheckOut = domain.DateOf(checkOut)
		b.Created = b.Created.UTC()
		b.Rooms = make([]domain.Room, len(numbers))
		for i := range numbers {
			b.Rooms[i] = domain.Room{Number: int(numbers[i]), Category: domain.Category(categories[i])}
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func listByRoom(ctx context.Context, q querier, room int, excludeID int64) ([]domain.Booking, error) {
	return queryBookings(ctx, q,
		`WHERE b.id IN (SELECT booking_id FROM booking_rooms WHERE room_number = $1) AND b.id <> $2`,
		room, excludeID)
}

func getBooking(ctx context.Context, q querier, id int64) (*domain.Booking, error) {
	list, err := queryBookings(ctx, q, `WHERE b.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return &list[0], nil
}

func toInt32s(v []int) []int32 {
	out := make([]int32, len(v))
	for i, n := range v {
		out[i] = int32(n)
	}
	return out
}
