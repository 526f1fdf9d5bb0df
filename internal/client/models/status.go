package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownStatus is returned when a status string is outside its enum.
var ErrUnknownStatus = errors.New("unknown status")

// BookingStatus is the closed set of booking states.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus narrows s to a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case BookingPending, BookingApproved, BookingRejected, BookingCancelled:
		return st, nil
	}
	return "", fmt.Errorf("booking %w: %q", ErrUnknownStatus, s)
}

func (s *BookingStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseBookingStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// InvitationStatus is the closed set of invitation states.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// ParseInvitationStatus narrows s to an InvitationStatus.
func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch st := InvitationStatus(s); st {
	case InvitationPending, InvitationAccepted, InvitationRejected:
		return st, nil
	}
	return "", fmt.Errorf("invitation %w: %q", ErrUnknownStatus, s)
}

func (s *InvitationStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseInvitationStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
