// Package models defines the records the client mirrors from the backend:
// profiles, properties, bookings, invitations and notifications.
//
// All of them are owned by the server; the client never assigns identifiers.
// Status fields are parsed into closed enums when decoded, so a record that
// carries an unknown status fails to decode instead of being passed along.
package models
