package postgres

import (
	"context"
	"time"

	"ncsresearch/models"
	"ncsresearch/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepositoryImpl implements SessionRepository for PostgreSQL
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// Create inserts a new wizard session
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *models.AnalysisSession) error {
	// The column types implement driver.Valuer, so they convert automatically
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_sessions (id, user_id, step, filename, health_check, variables, demographics, relationships, selected_analyses, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, session.ID, session.UserID, session.Step, session.Filename, session.HealthCheck,
		session.Variables, session.Demographics, session.Relationships,
		session.SelectedAnalyses, session.Metadata, session.CreatedAt, session.UpdatedAt)
	return err
}

// Get retrieves a session by user ID and session ID
func (r *SessionRepositoryImpl) Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.AnalysisSession, error) {
	var session models.AnalysisSession
	err := r.db.GetContext(ctx, &session, `
		SELECT id, user_id, step, filename, health_check, variables, demographics, relationships, selected_analyses, metadata, created_at, updated_at
		FROM analysis_sessions
		WHERE user_id = $1 AND id = $2
	`, userID, sessionID)

	if err != nil {
		return nil, err
	}

	return &session, nil
}

// Update writes the full wizard state of a session back to the database
func (r *SessionRepositoryImpl) Update(ctx context.Context, session *models.AnalysisSession) error {
	session.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE analysis_sessions
		SET step = $3, filename = $4, health_check = $5, variables = $6, demographics = $7, relationships = $8, selected_analyses = $9, metadata = $10, updated_at = $11
		WHERE user_id = $1 AND id = $2
	`, session.UserID, session.ID, session.Step, session.Filename, session.HealthCheck,
		session.Variables, session.Demographics, session.Relationships,
		session.SelectedAnalyses, session.Metadata, session.UpdatedAt)
	return err
}

// ListByUser returns sessions for a user, newest first, optionally limited
func (r *SessionRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AnalysisSession, error) {
	query := `
		SELECT id, user_id, step, filename, health_check, variables, demographics, relationships, selected_analyses, metadata, created_at, updated_at
		FROM analysis_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var sessions []*models.AnalysisSession
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var session models.AnalysisSession
		if err := rows.StructScan(&session); err != nil {
			return nil, err
		}
		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// Delete removes a session; the results table cascades on the foreign key
func (r *SessionRepositoryImpl) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM analysis_sessions
		WHERE user_id = $1 AND id = $2
	`, userID, sessionID)
	return err
}
