package ports

import (
	"context"

	"github.com/google/uuid"

	"ncsresearch/domain/analysis"
	"ncsresearch/models"
)

// SessionRepository persists analysis wizard sessions
type SessionRepository interface {
	Create(ctx context.Context, session *models.AnalysisSession) error
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.AnalysisSession, error)
	Update(ctx context.Context, session *models.AnalysisSession) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AnalysisSession, error)
	Delete(ctx context.Context, userID, sessionID uuid.UUID) error
}

// ResultRepository persists the append-only analysis result log per session
type ResultRepository interface {
	Append(ctx context.Context, sessionID uuid.UUID, results []analysis.Result) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]analysis.Result, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}

// UserRepository persists platform users
type UserRepository interface {
	GetOrCreateDefaultUser(ctx context.Context) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SettingsRepository persists the key-value settings slots
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	Delete(ctx context.Context, key string) error
}
