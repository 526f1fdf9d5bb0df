package cli

import (
	"testing"

	"github.com/dmitrijs2005/homeshare/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestValidateForm(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name string
		form any
		want []string
	}{
		{
			name: "valid login",
			form: loginForm{Email: "a@b.io", Password: "secret"},
		},
		{
			name: "bad login",
			form: loginForm{Email: "nope", Password: "123"},
			want: []string{"Please enter a valid email address", "Password must be at least 6 characters"},
		},
		{
			name: "register mismatch",
			form: registerForm{FirstName: "A", LastName: "B", Email: "a@b.io", Password: "secret", ConfirmPassword: "secreT"},
			want: []string{"Passwords don't match"},
		},
		{
			name: "register missing",
			form: registerForm{Email: "a@b.io", Password: "secret"},
			want: []string{"Please confirm your password", "First name is required", "Last name is required"},
		},
		{
			name: "reset",
			form: resetForm{Email: ""},
			want: []string{"Please enter a valid email address"},
		},
		{
			name: "reset confirm",
			form: resetConfirmForm{Password: "secret", ConfirmPassword: "secret"},
			want: []string{"Reset token is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateForm(v, tt.form))
		})
	}
}
