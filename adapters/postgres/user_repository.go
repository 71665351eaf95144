package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ncsresearch/models"
	"ncsresearch/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var defaultUserID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// GetOrCreateDefaultUser gets the default user or creates it if it doesn't exist
func (r *UserRepositoryImpl) GetOrCreateDefaultUser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, email, username, language, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, defaultUserID)

	if err == nil {
		return &user, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	user = models.User{
		ID:       defaultUserID,
		Email:    "researcher@ncs-platform.vn",
		Username: "researcher",
		Language: "vi",
		IsActive: true,
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, username, language, is_active, created_at, updated_at)
		VALUES (:id, :email, :username, :language, :is_active, NOW(), NOW())
	`, user)

	if err != nil {
		// Unique constraint violation: another process created the user first
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return r.GetByID(ctx, defaultUserID)
		}
		return nil, err
	}

	return &user, nil
}

// GetByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, email, username, language, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)

	if err != nil {
		return nil, err
	}

	return &user, nil
}
