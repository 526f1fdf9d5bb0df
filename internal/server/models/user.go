// Package models defines server-side records persisted in PostgreSQL.
package models

import "time"

// User is an account. PasswordHash holds an argon2id encoded hash.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
