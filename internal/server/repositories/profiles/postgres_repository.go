package profiles

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/homeshare/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID, firstName, lastName string) error {
	query := `
		INSERT INTO profiles (id, first_name, last_name)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, firstName, lastName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
