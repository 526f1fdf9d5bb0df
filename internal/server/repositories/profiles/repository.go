// Package profiles creates the profile row that accompanies every account.
// Reads and updates of profiles go through the generic rows repository.
package profiles

import "context"

type Repository interface {
	Create(ctx context.Context, userID, firstName, lastName string) error
}
