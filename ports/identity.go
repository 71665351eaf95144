package ports

import (
	"context"

	"ncsresearch/models"
)

// IdentityProvider is the single capability answering "who is the current
// user". It is injected once at the application root; no other component
// reads identity state directly.
type IdentityProvider interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
}
