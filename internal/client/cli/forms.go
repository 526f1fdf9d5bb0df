package cli

import (
	"errors"
	"sort"

	"github.com/dmitrijs2005/homeshare/internal/validation"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type registerForm struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type resetForm struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmForm struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

var formMessages = map[string]string{
	"email":            "Please enter a valid email address",
	"password":         "Password must be at least 6 characters",
	"first_name":       "First name is required",
	"last_name":        "Last name is required",
	"token":            "Reset token is required",
	"confirm_password": "Passwords don't match",
}

// validateForm returns the user-facing messages for every invalid field of
// form, ordered by field name, or nil when the form is valid.
func validateForm(v *validation.Validator, form any) []string {
	err := v.Validate(form)
	if err == nil {
		return nil
	}

	var ve *validation.Error
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}

	names := make([]string, 0, len(ve.Fields))
	for name := range ve.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		switch m, ok := formMessages[name]; {
		case name == "confirm_password" && ve.Fields[name] == "is required":
			msgs = append(msgs, "Please confirm your password")
		case ok:
			msgs = append(msgs, m)
		default:
			msgs = append(msgs, name+" "+ve.Fields[name])
		}
	}
	return msgs
}
