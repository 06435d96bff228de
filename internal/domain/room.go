package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// MaxRoomNumber matches the integer column room numbers are stored in.
const MaxRoomNumber = math.MaxInt32

// ValidRoomNumber reports whether n can name a room.
func ValidRoomNumber(n int) bool {
	return n > 0 && n <= MaxRoomNumber
}

// Category is the room class; stored as 1..4, shown as A..D.
type Category int

const (
	CategoryA Category = iota + 1
	CategoryB
	CategoryC
	CategoryD
)

var categoryNames = [...]string{"", "A", "B", "C", "D"}

func (c Category) Valid() bool {
	return c >= CategoryA && c <= CategoryD
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

func ParseCategory(s string) (Category, error) {
	for i := CategoryA; i <= CategoryD; i++ {
		if categoryNames[i] == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown room category %q", ErrMalformedInput, s)
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the letter or the numeric code.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseCategory(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: room category must be A-D or 1-4", ErrMalformedInput)
	}
	if !Category(n).Valid() {
		return fmt.Errorf("%w: unknown room category %d", ErrMalformedInput, n)
	}
	*c = Category(n)
	return nil
}

type Room struct {
	Number   int      `json:"number"`
	Category Category `json:"category"`
}

func (r Room) Validate() error {
	if !ValidRoomNumber(r.Number) {
		return Malformed("room number must be a positive integer up to %d", MaxRoomNumber)
	}
	if !r.Category.Valid() {
		return Malformed("room category must be one of A, B, C, D")
	}
	return nil
}

// RateTable maps a category to its nightly rate.
type RateTable map[Category]int64

func (t RateTable) Rate(c Category) int64 {
	return t[c]
}

// Validate requires a rate for every category.
func (t RateTable) Validate() error {
	for c := CategoryA; c <= CategoryD; c++ {
		rate, ok := t[c]
		if !ok {
			return fmt.Errorf("missing nightly rate for category %s", c)
		}
		if rate < 0 {
			return fmt.Errorf("negative nightly rate for category %s", c)
		}
	}
	return nil
}
