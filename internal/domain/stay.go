package domain

import "time"

// Stay is the interval a booking occupies its rooms.
type Stay struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

// Overlaps uses inclusive bounds: a stay ending on day D and another
// starting on D overlap, so same-day turnover is rejected.
func (s Stay) Overlaps(o Stay) bool {
	return !(s.CheckIn.After(o.CheckOut) || s.CheckOut.Before(o.CheckIn))
}

func (s Stay) Nights() int {
	return s.CheckIn.DaysUntil(s.CheckOut)
}

// checkOutGuard is how far ahead of now a check-out day must lie.
// TODO: product review of the one hour check-out guard, it is a day-granularity no-op once check-in is today or later.
const checkOutGuard = time.Hour

// CheckTimespan validates ordering first, then that the stay lies in the
// future relative to now. The first failing rule is reported.
func CheckTimespan(stay Stay, now time.Time) error {
	if !stay.CheckIn.Before(stay.CheckOut) {
		return &ValidationError{Kind: KindTimespanInvalid, Reason: ReasonInvalidOrder, Message: MsgInvalidOrder}
	}
	today := DateOf(now)
	if stay.CheckIn.Before(today) || stay.CheckOut.Before(DateOf(now.Add(checkOutGuard))) {
		return &ValidationError{Kind: KindTimespanInvalid, Reason: ReasonPastDate, Message: MsgPastDate}
	}
	return nil
}

// FindConflict returns the first existing booking overlapping stay, or nil.
func FindConflict(existing []Booking, stay Stay) *Booking {
	for i := range existing {
		if existing[i].Stay().Overlaps(stay) {
			return &existing[i]
		}
	}
	return nil
}
