package domain

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxSurnameLength = 30

type Booking struct {
	ID       int64
	Owner    int64
	Surname  string
	Rooms    []Room
	CheckIn  Date
	CheckOut Date
	Created  time.Time
}

func (b Booking) Stay() Stay {
	return Stay{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

func (b Booking) Nights() int {
	return b.Stay().Nights()
}

// Price is nights times the sum of the nightly rates of every room.
func (b Booking) Price(rates RateTable) int64 {
	var perNight int64
	for _, r := range b.Rooms {
		perNight += rates.Rate(r.Category)
	}
	return int64(b.Nights()) * perNight
}

func (b Booking) RoomNumbers() []int {
	out := make([]int, len(b.Rooms))
	for i, r := range b.Rooms {
		out[i] = r.Number
	}
	return out
}

func (b Booking) HasRoom(number int) bool {
	for _, r := range b.Rooms {
		if r.Number == number {
			return true
		}
	}
	return false
}

// BookingFilter narrows a booking search. Zero fields match everything;
// a booking must hold every listed room.
type BookingFilter struct {
	Surname  string
	Rooms    []int
	CheckIn  *Date
	CheckOut *Date
	Created  *Date
	// Location is the zone Created is read in; nil means UTC.
	Location *time.Location
}

func (f BookingFilter) Match(b Booking) bool {
	if f.Surname != "" && b.Surname != f.Surname {
		return false
	}
	for _, n := range f.Rooms {
		if !b.HasRoom(n) {
			return false
		}
	}
	if f.CheckIn != nil && !b.CheckIn.Equal(*f.CheckIn) {
		return false
	}
	if f.CheckOut != nil && !b.CheckOut.Equal(*f.CheckOut) {
		return false
	}
	if f.Created != nil && !DateOf(b.Created.In(f.location())).Equal(*f.Created) {
		return false
	}
	return true
}

// CreatedRange returns the instants bounding the Created day in the
// filter's location. Created must be set.
func (f BookingFilter) CreatedRange() (from, to time.Time) {
	c := *f.Created
	from = time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, f.location())
	return from, from.AddDate(0, 0, 1)
}

func (f BookingFilter) location() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

// NormalizeSurname trims and checks the guest name.
func NormalizeSurname(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Malformed("surname is required")
	}
	if utf8.RuneCountInString(s) > MaxSurnameLength {
		return "", Malformed("surname must be at most %d characters", MaxSurnameLength)
	}
	return s, nil
}

// NormalizeRoomNumbers rejects empty or non-positive input and returns the
// distinct numbers in ascending order.
func NormalizeRoomNumbers(numbers []int) ([]int, error) {
	if len(numbers) == 0 {
		return nil, Malformed("at least one room is required")
	}
	seen := make(map[int]struct{}, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if !ValidRoomNumber(n) {
			return nil, Malformed("room can be positive integer only")
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// FindOverlaps reports every pair of bookings that share a room and overlap.
func FindOverlaps(bookings []Booking) []OverlapViolation {
	byRoom := make(map[int][]Booking)
	for _, b := range bookings {
		for _, r := range b.Rooms {
			byRoom[r.Number] = append(byRoom[r.Number], b)
		}
	}
	rooms := make([]int, 0, len(byRoom))
	for n := range byRoom {
		rooms = append(rooms, n)
	}
	sort.Ints(rooms)

	var out []OverlapViolation
	for _, n := range rooms {
		list := byRoom[n]
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if list[i].Stay().Overlaps(list[j].Stay()) {
					out = append(out, OverlapViolation{
						Room: n, First: list[i].ID, Second: list[j].ID,
						FirstOf: list[i].Stay(), SecondOf: list[j].Stay(),
					})
				}
			}
		}
	}
	return out
}
