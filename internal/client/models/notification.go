package models

import "time"

// Notification types observed in the data. The type only picks an icon.
const (
	NotificationBooking    = "booking"
	NotificationInvitation = "invitation"
	NotificationProperty   = "property"
	NotificationMessage    = "message"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	RelatedID *string   `json:"related_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CountUnread returns how many notifications have IsRead == false.
func CountUnread(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.IsRead {
			n++
		}
	}
	return n
}
