package models

import "time"

// Booking is a guest's reservation of a property.
type Booking struct {
	ID         string        `json:"id"`
	PropertyID string        `json:"property_id"`
	GuestID    string        `json:"guest_id"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	TotalPrice float64       `json:"total_price"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// IsUpcoming reports whether the booking starts strictly after ref.
func (b Booking) IsUpcoming(ref time.Time) bool {
	return b.StartDate.After(ref)
}

// UpcomingBookings returns the bookings that start strictly after ref,
// preserving input order. The result is never cached; callers pass the
// clock reading they render with.
func UpcomingBookings(bookings []Booking, ref time.Time) []Booking {
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsUpcoming(ref) {
			out = append(out, b)
		}
	}
	return out
}
