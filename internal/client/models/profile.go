package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Profile is the user-facing record attached one-to-one to an identity.
// Profile.ID equals the identity's user id.
type Profile struct {
	ID        string    `json:"id"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins the non-empty name parts.
func (p *Profile) FullName() string {
	if p == nil {
		return ""
	}
	var parts []string
	if p.FirstName != nil && *p.FirstName != "" {
		parts = append(parts, *p.FirstName)
	}
	if p.LastName != nil && *p.LastName != "" {
		parts = append(parts, *p.LastName)
	}
	return strings.Join(parts, " ")
}

// Initials returns up to two upper-case letters for the avatar fallback.
func (p *Profile) Initials() string {
	if p == nil {
		return "U"
	}
	var b strings.Builder
	for _, name := range []*string{p.FirstName, p.LastName} {
		if name == nil || *name == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(*name)
		b.WriteRune(unicode.ToUpper(r))
	}
	if b.Len() == 0 {
		return "U"
	}
	return b.String()
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.AvatarURL == nil
}
