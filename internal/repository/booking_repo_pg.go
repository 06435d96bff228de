package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return getBooking(ctx, r.db, id)
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Surname != "" {
		conds = append(conds, "b.surname = "+arg(filter.Surname))
	}
	for _, room := range filter.Rooms {
		conds = append(conds, "b.id IN (SELECT booking_id FROM booking_rooms WHERE room_number = "+arg(room)+")")
	}
	if filter.CheckIn != nil {
		conds = append(conds, "b.check_in = "+arg(filter.CheckIn.Time()))
	}
	if filter.CheckOut != nil {
		conds = append(conds, "b.check_out = "+arg(filter.CheckOut.Time()))
	}
	if filter.Created != nil {
		from, to := filter.CreatedRange()
		conds = append(conds, "b.created_at >= "+arg(from)+" AND b.created_at < "+arg(to))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	return queryBookings(ctx, r.db, where, args...)
}

func (r *PGBookingRepository) ListByRoom(ctx context.Context, room int, excludeID int64) ([]domain.Booking, error) {
	return listByRoom(ctx, r.db, room, excludeID)
}

func (r *PGBookingRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
