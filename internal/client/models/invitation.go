package models

import "time"

// Invitation is sent by a user to an e-mail address, optionally for a property.
type Invitation struct {
	ID         string           `json:"id"`
	SenderID   string           `json:"sender_id"`
	Email      string           `json:"email"`
	PropertyID *string          `json:"property_id"`
	Status     InvitationStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
