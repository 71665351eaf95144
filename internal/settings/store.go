// Package settings is the single owning accessor for the platform's local
// key-value state (token, user profile, language, theme, site branding,
// onboarding snapshot). Every component reads and writes through this store
// instead of touching storage directly; writes are last-write-wins.
package settings

import (
	"context"
	"encoding/json"
	"sync"

	"ncsresearch/internal"
	"ncsresearch/internal/errors"
	"ncsresearch/ports"
)

// Well-known setting keys
const (
	KeyToken               = "token"
	KeyUser                = "user"
	KeyLanguage            = "language"
	KeyTheme               = "theme"
	KeySiteSettings        = "siteSettings"
	KeyOnboardingCompleted = "onboarding_completed"
	KeyOnboardingData      = "onboarding_data"
)

// SiteSettings is the branding object stored under siteSettings
type SiteSettings struct {
	Logo      string `json:"logo"`
	LogoImage string `json:"logoImage"`
	SiteTitle string `json:"siteTitle"`
}

// Store caches settings in memory and writes through to the repository
type Store struct {
	mu    sync.RWMutex
	cache map[string]string
	repo  ports.SettingsRepository
	log   *internal.Logger
}

// NewStore loads the persisted settings into the cache
func NewStore(ctx context.Context, repo ports.SettingsRepository) (*Store, error) {
	all, err := repo.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load settings")
	}
	if all == nil {
		all = make(map[string]string)
	}
	return &Store{
		cache: all,
		repo:  repo,
		log:   internal.DefaultLogger.Named("settings"),
	}, nil
}

// Get returns the value stored under key
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

// Set stores a value under key. The cache is updated first so readers see
// the new value immediately; persistence failures are logged, not fatal.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	if err := s.repo.Set(ctx, key, value); err != nil {
		s.log.Error("failed to persist setting %s: %v", key, err)
		return errors.Wrap(err, "failed to persist setting")
	}
	return nil
}

// Delete removes a key
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return s.repo.Delete(ctx, key)
}

// Token implements the transport client's bearer credential source
func (s *Store) Token() string {
	v, _ := s.Get(KeyToken)
	return v
}

// Language returns the stored UI language, defaulting to English
func (s *Store) Language() string {
	if v, ok := s.Get(KeyLanguage); ok && v != "" {
		return v
	}
	return "en"
}

// Site returns the branding object, zero-valued when unset or corrupt
func (s *Store) Site() SiteSettings {
	var site SiteSettings
	if v, ok := s.Get(KeySiteSettings); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &site); err != nil {
			s.log.Warn("corrupt siteSettings value ignored: %v", err)
		}
	}
	return site
}

// SetSite stores the branding object
func (s *Store) SetSite(ctx context.Context, site SiteSettings) error {
	raw, err := json.Marshal(site)
	if err != nil {
		return errors.Wrap(err, "failed to encode site settings")
	}
	return s.Set(ctx, KeySiteSettings, string(raw))
}
