package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Domenick1991/hotelbooking/internal/domain"
)

// MemoryStore keeps rooms and bookings in process. A transaction holds the
// writer lock for its whole duration, which serializes every writer.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[int]domain.Category
	bookings map[int64]*storedBooking
	nextID   int64
}

// storedBooking references rooms by number so category and number changes
// show through on read.
type storedBooking struct {
	booking domain.Booking
	rooms   []int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[int]domain.Category),
		bookings: make(map[int64]*storedBooking),
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(s.rooms))
	for n, c := range s.rooms {
		rooms = append(rooms, domain.Room{Number: n, Category: c})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
	return rooms, nil
}

func (s *MemoryStore) GetByNumber(ctx context.Context, number int) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.rooms[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Room{Number: number, Category: c}, nil
}

func (s *MemoryStore) Create(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.Number]; ok {
		return domain.ErrDuplicateRoom
	}
	s.rooms[room.Number] = room.Category
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, number int, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[number]; !ok {
		return domain.ErrNotFound
	}
	if room.Number != number {
		if _, ok := s.rooms[room.Number]; ok {
			return domain.ErrDuplicateRoom
		}
		delete(s.rooms, number)
		for _, sb := range s.bookings {
			for i, n := range sb.rooms {
				if n == number {
					sb.rooms[i] = room.Number
				}
			}
			sort.Ints(sb.rooms)
		}
	}
	s.rooms[room.Number] = room.Category
	return nil
}

// Bookings returns the booking repository view of the store.
func (s *MemoryStore) Bookings() BookingRepository {
	return memBookings{s}
}

type memBookings struct {
	s *MemoryStore
}

func (m memBookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	s := m.s
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

func (m memBookings) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	s := m.s
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Booking, 0)
	for _, id := range s.sortedIDsLocked() {
		b := s.materializeLocked(s.bookings[id])
		if filter.Match(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memBookings) ListByRoom(ctx context.Context, room int, excludeID int64) ([]domain.Booking, error) {
	s := m.s
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listByRoomLocked(room, excludeID), nil
}

func (m memBookings) Delete(ctx context.Context, id int64) error {
	s := m.s
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// WithinTx applies fn's writes only when it returns nil.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

func (s *MemoryStore) getLocked(id int64) (*domain.Booking, error) {
	sb, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b := s.materializeLocked(sb)
	return &b, nil
}

func (s *MemoryStore) listByRoomLocked(room int, excludeID int64) []domain.Booking {
	out := make([]domain.Booking, 0)
	for _, id := range s.sortedIDsLocked() {
		if id == excludeID {
			continue
		}
		sb := s.bookings[id]
		for _, n := range sb.rooms {
			if n == room {
				out = append(out, s.materializeLocked(sb))
				break
			}
		}
	}
	return out
}

func (s *MemoryStore) materializeLocked(sb *storedBooking) domain.Booking {
	b := sb.booking
	b.Rooms = make([]domain.Room, len(sb.rooms))
	for i, n := range sb.rooms {
		b.Rooms[i] = domain.Room{Number: n, Category: s.rooms[n]}
	}
	return b
}

func (s *MemoryStore) sortedIDsLocked() []int64 {
	ids := make([]int64, 0, len(s.bookings))
	for id := range s.bookings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// memTx buffers writes until the transaction function succeeds. Reads see
// committed state only, which is all the booking pipeline needs since it
// writes last.
type memTx struct {
	store   *MemoryStore
	writes  []func()
	pending int64
}

func (t *memTx) LockRooms(ctx context.Context, numbers []int) ([]domain.Room, error) {
	rooms := make([]domain.Room, 0, len(numbers))
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)
	for _, n := range sorted {
		if c, ok := t.store.rooms[n]; ok {
			rooms = append(rooms, domain.Room{Number: n, Category: c})
		}
	}
	return rooms, ctx.Err()
}

func (t *memTx) LockBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.store.getLocked(id)
}

func (t *memTx) ListByRoom(ctx context.Context, room int, excludeID int64) ([]domain.Booking, error) {
	return t.store.listByRoomLocked(room, excludeID), ctx.Err()
}

func (t *memTx) RoomInUse(ctx context.Context, number int) (bool, error) {
	for _, sb := range t.store.bookings {
		for _, n := range sb.rooms {
			if n == number {
				return true, ctx.Err()
			}
		}
	}
	return false, ctx.Err()
}

func (t *memTx) InsertBooking(ctx context.Context, booking *domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.pending++
	booking.ID = t.store.nextID + t.pending
	stored := &storedBooking{booking: *booking, rooms: booking.RoomNumbers()}
	stored.booking.Rooms = nil
	t.writes = append(t.writes, func() {
		t.store.bookings[stored.booking.ID] = stored
		t.store.nextID = stored.booking.ID
	})
	return nil
}

func (t *memTx) UpdateBooking(ctx context.Context, booking *domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current, ok := t.store.bookings[booking.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := &storedBooking{booking: current.booking, rooms: booking.RoomNumbers()}
	updated.booking.Surname = booking.Surname
	updated.booking.CheckIn = booking.CheckIn
	updated.booking.CheckOut = booking.CheckOut
	t.writes = append(t.writes, func() {
		t.store.bookings[booking.ID] = updated
	})
	return nil
}

func (t *memTx) DeleteRoom(ctx context.Context, number int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.store.rooms[number]; !ok {
		return domain.ErrNotFound
	}
	t.writes = append(t.writes, func() {
		delete(t.store.rooms, number)
	})
	return nil
}

func (t *memTx) apply() {
	for _, w := range t.writes {
		w()
	}
}

var (
	_ RoomRepository    = (*MemoryStore)(nil)
	_ Transactor        = (*MemoryStore)(nil)
	_ BookingRepository = memBookings{}
)
