package api

import (
	"encoding/json"
	"time"
)

// Filter operators accepted by Select and Update.
const (
	OpEq  = "eq"
	OpNeq = "neq"
	OpGt  = "gt"
	OpGte = "gte"
	OpLt  = "lt"
	OpLte = "lte"
)

type Empty struct{}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is an access/refresh token pair issued for a user.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=1024"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type SignUpResponse struct {
	User User `json:"user"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type GetUserResponse struct {
	User User `json:"user"`
}

type SendPasswordResetRequest struct {
	Email       string `json:"email" validate:"required,email"`
	RedirectURL string `json:"redirect_url" validate:"required,url"`
}

type CompletePasswordResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=1024"`
}

// Filter restricts rows to those where Column <Op> Value.
type Filter struct {
	Column string `json:"column" validate:"required"`
	Op     string `json:"op" validate:"required,oneof=eq neq gt gte lt lte"`
	Value  any    `json:"value"`
}

type Order struct {
	Column    string `json:"column" validate:"required"`
	Ascending bool   `json:"ascending"`
}

type SelectRequest struct {
	Table   string   `json:"table" validate:"required"`
	Filters []Filter `json:"filters" validate:"dive"`
	Order   *Order   `json:"order,omitempty"`
	Limit   int      `json:"limit" validate:"gte=0"`
	Single  bool     `json:"single"`
}

// SelectResponse carries one JSON object per row, in query order.
type SelectResponse struct {
	Rows []json.RawMessage `json:"rows"`
}

type UpdateRequest struct {
	Table   string         `json:"table" validate:"required"`
	Patch   map[string]any `json:"patch" validate:"required"`
	Filters []Filter       `json:"filters" validate:"dive"`
}

type UpdateResponse struct {
	Affected int64 `json:"affected"`
}

type InsertRequest struct {
	Table   string           `json:"table" validate:"required"`
	Records []map[string]any `json:"records" validate:"required,min=1"`
}

type InsertResponse struct {
	Rows []json.RawMessage `json:"rows"`
}

type CreateBucketRequest struct {
	Name   string `json:"name" validate:"required,min=3,max=63"`
	Public bool   `json:"public"`
}

type CreateUploadURLRequest struct {
	Bucket      string `json:"bucket" validate:"required"`
	Path        string `json:"path" validate:"required"`
	ContentType string `json:"content_type"`
}

type GetPublicURLRequest struct {
	Bucket string `json:"bucket" validate:"required"`
	Path   string `json:"path" validate:"required"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type PingResponse struct {
	Status string `json:"status"`
}
