package postgres

import (
	"context"
	"encoding/json"

	"ncsresearch/domain/analysis"
	"ncsresearch/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// Append inserts a batch of results inside one transaction so a failed
// batch leaves the result log untouched
func (r *ResultRepositoryImpl) Append(ctx context.Context, sessionID uuid.UUID, results []analysis.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, res := range results {
		data := res.Data
		if data == nil {
			data = json.RawMessage("null")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO analysis_results (id, session_id, analysis_type, name, data, r_library, interpretation, significance, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, res.ID.String(), sessionID, res.Type, res.Name, []byte(data),
			res.RLibrary, res.Interpretation, res.Significance, res.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBySession returns the full result log of a session in insertion order
func (r *ResultRepositoryImpl) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]analysis.Result, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, analysis_type, name, data, r_library, interpretation, significance, created_at
		FROM analysis_results
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []analysis.Result
	for rows.Next() {
		var res analysis.Result
		var data []byte
		err := rows.Scan(
			&res.ID,
			&res.Type,
			&res.Name,
			&data,
			&res.RLibrary,
			&res.Interpretation,
			&res.Significance,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		res.Data = json.RawMessage(data)
		results = append(results, res)
	}

	return results, rows.Err()
}

// DeleteBySession drops the result log of a session
func (r *ResultRepositoryImpl) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM analysis_results
		WHERE session_id = $1
	`, sessionID)
	return err
}
