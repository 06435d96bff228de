package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedInput   = errors.New("malformed input")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrTimespanInvalid  = errors.New("timespan invalid")
	ErrRoomsUnavailable = errors.New("rooms unavailable")
	ErrRoomInUse        = errors.New("room in use")
	ErrDuplicateRoom    = errors.New("duplicate room")
	// ErrConsistency means two committed bookings overlap on a room.
	ErrConsistency = errors.New("consistency violation")
)

// User facing messages.
const (
	MsgInvalidOrder     = `"Check in" date should precede "Check out"`
	MsgPastDate         = "You can only book rooms in future dates"
	MsgRoomsUnavailable = "At least one of selected rooms is booked"
	MsgRoomInUse        = "This room is used by at least one booking, cannot be deleted"
	MsgDuplicateRoom    = "room with this number already exists."
)

type ErrorKind string

const (
	KindMalformedInput   ErrorKind = "MalformedInput"
	KindTimespanInvalid  ErrorKind = "TimespanInvalid"
	KindRoomsUnavailable ErrorKind = "RoomsUnavailable"
	KindNotFound         ErrorKind = "NotFound"
)

type TimespanReason string

const (
	ReasonInvalidOrder TimespanReason = "InvalidOrder"
	ReasonPastDate     TimespanReason = "PastDate"
)

// ValidationError is a user-correctable rejection of a booking submission.
type ValidationError struct {
	Kind    ErrorKind
	Reason  TimespanReason // set for KindTimespanInvalid
	Message string
	Rooms   []int // conflicting rooms, set for KindRoomsUnavailable
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindTimespanInvalid:
		return ErrTimespanInvalid
	case KindRoomsUnavailable:
		return ErrRoomsUnavailable
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrMalformedInput
	}
}

func RoomsUnavailable(rooms []int) *ValidationError {
	return &ValidationError{Kind: KindRoomsUnavailable, Message: MsgRoomsUnavailable, Rooms: rooms}
}

func Malformed(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: KindMalformedInput, Message: fmt.Sprintf(format, args...)}
}

func RoomsNotFound(rooms []int) *ValidationError {
	return &ValidationError{Kind: KindNotFound, Message: "rooms not found: " + joinInts(rooms), Rooms: rooms}
}

// OverlapViolation names two committed bookings sharing an overlapping room.
type OverlapViolation struct {
	Room     int
	First    int64
	Second   int64
	FirstOf  Stay
	SecondOf Stay
}

func (v OverlapViolation) Error() string {
	return fmt.Sprintf("room %d: bookings %d (%s..%s) and %d (%s..%s) overlap",
		v.Room, v.First, v.FirstOf.CheckIn, v.FirstOf.CheckOut, v.Second, v.SecondOf.CheckIn, v.SecondOf.CheckOut)
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
