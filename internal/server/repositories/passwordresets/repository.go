// Package passwordresets stores single-use tokens mailed for password recovery.
package passwordresets

import (
	"context"

	"github.com/dmitrijs2005/homeshare/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	// Take deletes the token and returns it. Unknown tokens yield common.ErrorNotFound.
	Take(ctx context.Context, token string) (*models.PasswordReset, error)
	DeleteByUser(ctx context.Context, userID string) error
}
