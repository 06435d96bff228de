package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGRoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) RoomRepository {
	return &PGRoomRepository{db: db}
}

func (r *PGRoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT number, category FROM rooms ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.Number, &room.Category); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *PGRoomRepository) GetByNumber(ctx context.Context, number int) (*domain.Room, error) {
	var room domain.Room
	err := r.db.QueryRow(ctx, `SELECT number, category FROM rooms WHERE number=$1`, number).Scan(&room.Number, &room.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *PGRoomRepository) Create(ctx context.Context, room domain.Room) error {
	_, err := r.db.Exec(ctx, `INSERT INTO rooms (number, category) VALUES ($1, $2)`, room.Number, int16(room.Category))
	if isUniqueViolation(err) {
		return domain.ErrDuplicateRoom
	}
	return err
}

func (r *PGRoomRepository) Update(ctx context.Context, number int, room domain.Room) error {
	cmd, err := r.db.Exec(ctx, `UPDATE rooms SET number=$2, category=$3 WHERE number=$1`, number, room.Number, int16(room.Category))
	if isUniqueViolation(err) {
		return domain.ErrDuplicateRoom
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ RoomRepository = (*PGRoomRepository)(nil)
