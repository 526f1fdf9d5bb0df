package models

import "time"

// Property is a vacation property listed by its owner.
type Property struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	Address       *string   `json:"address"`
	City          *string   `json:"city"`
	State         *string   `json:"state"`
	Country       *string   `json:"country"`
	ImageURL      *string   `json:"image_url"`
	PricePerNight *float64  `json:"price_per_night"`
	MaxGuests     *int      `json:"max_guests"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
