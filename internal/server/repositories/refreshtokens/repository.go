// Package refreshtokens stores the opaque refresh tokens handed out at sign-in.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/homeshare/internal/server/models"
)

// Repository issues, looks up and revokes refresh tokens.
type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns common.ErrorNotFound for an unknown token.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is a no-op for an unknown token.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every refresh token of userID.
	DeleteByUser(ctx context.Context, userID string) error
}
