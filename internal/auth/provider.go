// Package auth provides the identity provider injected at the application
// root. The platform's real authentication lives in an external service; the
// static provider stands in for it while keeping every identity read behind
// one capability instead of scattered state.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ncsresearch/internal/errors"
	"ncsresearch/internal/settings"
	"ncsresearch/models"
)

// StaticProvider satisfies ports.IdentityProvider with a fixed research
// account. Login records the session in the settings store so the transport
// client picks up the bearer token.
type StaticProvider struct {
	store   *settings.Store
	profile models.User
}

// NewStaticProvider creates the provider with the platform's default account
func NewStaticProvider(store *settings.Store) *StaticProvider {
	now := time.Now()
	return &StaticProvider{
		store: store,
		profile: models.User{
			ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("ncs-default-user")),
			Email:     "researcher@ncs-platform.vn",
			Username:  "researcher",
			Language:  "vi",
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Login accepts any credentials, stamps a session token, and stores the
// profile. Real credential checking belongs to the external auth service.
func (p *StaticProvider) Login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, errors.InvalidInput("email is required")
	}
	user := p.profile
	user.Email = email

	raw, err := json.Marshal(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode user profile")
	}
	token := fmt.Sprintf("ncs-%s", uuid.NewString())
	if err := p.store.Set(ctx, settings.KeyToken, token); err != nil {
		return nil, err
	}
	if err := p.store.Set(ctx, settings.KeyUser, string(raw)); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout clears the stored session
func (p *StaticProvider) Logout(ctx context.Context) error {
	if err := p.store.Delete(ctx, settings.KeyToken); err != nil {
		return err
	}
	return p.store.Delete(ctx, settings.KeyUser)
}

// CurrentUser returns the stored profile, or the default account when no
// login has happened yet.
func (p *StaticProvider) CurrentUser(ctx context.Context) (*models.User, error) {
	if raw, ok := p.store.Get(settings.KeyUser); ok && raw != "" {
		var user models.User
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			return &user, nil
		}
	}
	user := p.profile
	return &user, nil
}
