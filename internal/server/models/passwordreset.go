package models

import "time"

// PasswordReset is a single-use token mailed to the account owner.
type PasswordReset struct {
	Token   string
	UserID  string
	Expires time.Time
}
