package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventBookingCreated = "booking_created"
	EventBookingUpdated = "booking_updated"
	EventBookingDeleted = "booking_deleted"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingView, error)
	UpdateBooking(ctx context.Context, id int64, input UpdateBookingInput) (*BookingView, error)
	IsRoomAvailable(ctx context.Context, room int, checkIn, checkOut domain.Date, excludeID *int64) (bool, error)
	Quote(booking domain.Booking) (int, int64)
	GetBooking(ctx context.Context, id int64) (*BookingView, error)
	ListBookings(ctx context.Context) ([]BookingView, error)
	SearchBookings(ctx context.Context, filter domain.BookingFilter) ([]BookingView, error)
	DeleteBooking(ctx context.Context, id int64) error
	AuditOverlaps(ctx context.Context) ([]domain.OverlapViolation, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	rooms              repository.RoomRepository
	tx                 repository.Transactor
	rates              domain.RateTable
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	clock              domain.Clock
	location           *time.Location
	logger             *zap.Logger
}

type CreateBookingInput struct {
	Owner    int64       `json:"-"`
	Surname  string      `json:"surname"`
	Rooms    []int       `json:"rooms"`
	CheckIn  domain.Date `json:"check_in"`
	CheckOut domain.Date `json:"check_out"`
}

// UpdateBookingInput fully replaces the editable fields of a booking.
type UpdateBookingInput struct {
	Surname  string      `json:"surname"`
	Rooms    []int       `json:"rooms"`
	CheckIn  domain.Date `json:"check_in"`
	CheckOut domain.Date `json:"check_out"`
}

// BookingView is a booking with its derived stay length and price.
type BookingView struct {
	ID       int64         `json:"id"`
	Owner    int64         `json:"owner"`
	Surname  string        `json:"surname"`
	Rooms    []domain.Room `json:"rooms"`
	CheckIn  domain.Date   `json:"check_in"`
	CheckOut domain.Date   `json:"check_out"`
	Created  time.Time     `json:"created"`
	Nights   int           `json:"nights"`
	Price    int64         `json:"price"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLogger(logger *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(clock domain.Clock) BookingServiceOption {
	return func(s *BookingService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the hotel timezone that decides what "today" is.
func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	rooms repository.RoomRepository,
	tx repository.Transactor,
	rates domain.RateTable,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		rooms:        rooms,
		tx:           tx,
		rates:        rates,
		producer:     producer,
		bookingTopic: bookingTopic,
		clock:        domain.RealClock{},
		location:     time.UTC,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingView, error) {
	booking, err := s.prepare(input.Surname, input.Rooms, input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, err
	}
	booking.Owner = input.Owner

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := s.reserve(ctx, tx, booking, 0); err != nil {
			return err
		}
		booking.Created = s.clock.Now().UTC()
		return tx.InsertBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created", zap.Int64("booking_id", booking.ID), zap.Ints("rooms", booking.RoomNumbers()))
	view := s.view(*booking)
	s.publish(ctx, EventBookingCreated, view)
	return &view, nil
}

func (s *BookingService) UpdateBooking(ctx context.Context, id int64, input UpdateBookingInput) (*BookingView, error) {
	booking, err := s.prepare(input.Surname, input.Rooms, input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, err
	}
	booking.ID = id

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		booking.Owner = current.Owner
		booking.Created = current.Created

		if err := s.reserve(ctx, tx, booking, id); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking updated", zap.Int64("booking_id", booking.ID), zap.Ints("rooms", booking.RoomNumbers()))
	view := s.view(*booking)
	s.publish(ctx, EventBookingUpdated, view)
	return &view, nil
}

// prepare runs the checks that need no storage: input sanity, then the
// timespan rules against the current hotel date.
func (s *BookingService) prepare(surname string, rooms []int, checkIn, checkOut domain.Date) (*domain.Booking, error) {
	surname, err := domain.NormalizeSurname(surname)
	if err != nil {
		return nil, err
	}
	numbers, err := domain.NormalizeRoomNumbers(rooms)
	if err != nil {
		return nil, err
	}
	if checkIn.IsZero() || checkOut.IsZero() {
		return nil, domain.Malformed("check_in and check_out are required")
	}

	stay := domain.Stay{CheckIn: checkIn, CheckOut: checkOut}
	if err := domain.CheckTimespan(stay, s.clock.Now().In(s.location)); err != nil {
		return nil, err
	}

	booking := &domain.Booking{Surname: surname, CheckIn: checkIn, CheckOut: checkOut}
	booking.Rooms = make([]domain.Room, len(numbers))
	for i, n := range numbers {
		booking.Rooms[i] = domain.Room{Number: n}
	}
	return booking, nil
}

// reserve locks the requested rooms and fails unless every one of them is
// free for the booking's stay. excludeID is the booking being replaced.
func (s *BookingService) reserve(ctx context.Context, tx repository.Tx, booking *domain.Booking, excludeID int64) error {
	numbers := booking.RoomNumbers()
	locked, err := tx.LockRooms(ctx, numbers)
	if err != nil {
		return fmt.Errorf("lock rooms: %w", err)
	}
	if missing := missingRooms(numbers, locked); len(missing) > 0 {
		return domain.RoomsNotFound(missing)
	}
	booking.Rooms = locked

	var conflicts []int
	for _, room := range locked {
		existing, err := tx.ListByRoom(ctx, room.Number, excludeID)
		if err != nil {
			return fmt.Errorf("list bookings of room %d: %w", room.Number, err)
		}
		if other := domain.FindConflict(existing, booking.Stay()); other != nil {
			s.logger.Debug("room is booked",
				zap.Int("room", room.Number),
				zap.Int64("conflicting_booking", other.ID))
			conflicts = append(conflicts, room.Number)
		}
	}
	if len(conflicts) > 0 {
		return domain.RoomsUnavailable(conflicts)
	}
	return nil
}

func missingRooms(requested []int, found []domain.Room) []int {
	present := make(map[int]struct{}, len(found))
	for _, r := range found {
		present[r.Number] = struct{}{}
	}
	var missing []int
	for _, n := range requested {
		if _, ok := present[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// IsRoomAvailable reports whether no booking of room, other than excludeID,
// overlaps the given stay.
func (s *BookingService) IsRoomAvailable(ctx context.Context, room int, checkIn, checkOut domain.Date, excludeID *int64) (bool, error) {
	if _, err := s.rooms.GetByNumber(ctx, room); err != nil {
		return false, err
	}
	var exclude int64
	if excludeID != nil {
		exclude = *excludeID
	}
	existing, err := s.bookings.ListByRoom(ctx, room, exclude)
	if err != nil {
		return false, fmt.Errorf("list bookings of room %d: %w", room, err)
	}
	return domain.FindConflict(existing, domain.Stay{CheckIn: checkIn, CheckOut: checkOut}) == nil, nil
}

// Quote returns the number of nights and the total price of a booking.
func (s *BookingService) Quote(booking domain.Booking) (int, int64) {
	return booking.Nights(), booking.Price(s.rates)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*BookingView, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(*booking)
	return &view, nil
}

func (s *BookingService) ListBookings(ctx context.Context) ([]BookingView, error) {
	return s.SearchBookings(ctx, domain.BookingFilter{})
}

func (s *BookingService) SearchBookings(ctx context.Context, filter domain.BookingFilter) ([]BookingView, error) {
	if filter.Location == nil {
		filter.Location = s.location
	}
	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	views := make([]BookingView, len(bookings))
	for i, b := range bookings {
		views[i] = s.view(b)
	}
	return views, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id int64) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("booking deleted", zap.Int64("booking_id", id))
	s.publish(ctx, EventBookingDeleted, s.view(*booking))
	return nil
}

// AuditOverlaps scans every committed booking for rooms held twice on
// overlapping days. Any finding is returned together with ErrConsistency.
func (s *BookingService) AuditOverlaps(ctx context.Context) ([]domain.OverlapViolation, error) {
	bookings, err := s.bookings.List(ctx, domain.BookingFilter{})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	violations := domain.FindOverlaps(bookings)
	if len(violations) > 0 {
		return violations, fmt.Errorf("%w: %d overlapping booking pairs", domain.ErrConsistency, len(violations))
	}
	return nil, nil
}

func (s *BookingService) view(b domain.Booking) BookingView {
	nights, price := s.Quote(b)
	return BookingView{
		ID:       b.ID,
		Owner:    b.Owner,
		Surname:  b.Surname,
		Rooms:    b.Rooms,
		CheckIn:  b.CheckIn,
		CheckOut: b.CheckOut,
		Created:  b.Created,
		Nights:   nights,
		Price:    price,
	}
}

// publish never fails the request; the write has already committed.
func (s *BookingService) publish(ctx context.Context, eventType string, view BookingView) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	rooms := make([]int, len(view.Rooms))
	for i, r := range view.Rooms {
		rooms[i] = r.Number
	}
	event := kafka.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  view.ID,
		Owner:      view.Owner,
		Surname:    view.Surname,
		Rooms:      rooms,
		CheckIn:    view.CheckIn.String(),
		CheckOut:   view.CheckOut.String(),
		Nights:     view.Nights,
		Price:      view.Price,
		OccurredAt: s.clock.Now().UTC(),
	}
	key := fmt.Sprintf("%d", view.ID)

	topics := []string{s.bookingTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, key, event); err != nil {
			s.logger.Warn("failed to publish booking event",
				zap.String("type", eventType),
				zap.String("topic", topic),
				zap.Int64("booking_id", view.ID),
				zap.Error(err))
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
