package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"career-guide/internal/domain"
)

// ErrNotFound lo devuelven todas las implementaciones cuando el resultado no existe.
var ErrNotFound = errors.New("not found")

type ResultRepository interface {
	Create(ctx context.Context, result domain.QuizResult) error
	GetByID(ctx context.Context, id string) (domain.QuizResult, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error)
}

type PgResultRepository struct {
	pool *pgxpool.Pool
}

func NewPgResultRepository(pool *pgxpool.Pool) *PgResultRepository {
	return &PgResultRepository{pool: pool}
}

// EnsureSchema crea la tabla si no existe.
func (r *PgResultRepository) EnsureSchema(ctx context.Context) error {
	const table = `
		CREATE TABLE IF NOT EXISTS quiz_results (
			id                TEXT PRIMARY KEY,
			session_id        TEXT,
			user_id           TEXT,
			raw_scores        JSONB NOT NULL,
			answered_counts   JSONB NOT NULL,
			normalized_scores JSONB NOT NULL,
			top_traits        JSONB NOT NULL,
			recommendation    JSONB NOT NULL,
			qa_history        JSONB NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL
		)
	`
	const index = `
		CREATE INDEX IF NOT EXISTS quiz_results_user_created_idx ON quiz_results (user_id, created_at DESC)
	`
	if _, err := r.pool.Exec(ctx, table); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, index)
	return err
}

func (r *PgResultRepository) Create(ctx context.Context, result domain.QuizResult) error {
	const query = `
		INSERT INTO quiz_results (
			id, session_id, user_id, raw_scores, answered_counts, normalized_scores,
			top_traits, recommendation, qa_history, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	cols, err := marshalColumns(
		result.RawScores,
		result.AnsweredCounts,
		result.NormalizedScores,
		result.TopTraits,
		result.Recommendation,
		result.History,
	)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		result.ID,
		nullableText(result.SessionID),
		nullableText(result.UserID),
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5],
		result.CreatedAt,
	)
	return err
}

const selectResultColumns = `
	SELECT id, COALESCE(session_id, ''), COALESCE(user_id, ''), raw_scores, answered_counts,
		normalized_scores, top_traits, recommendation, qa_history, created_at
	FROM quiz_results
`

func (r *PgResultRepository) GetByID(ctx context.Context, id string) (domain.QuizResult, error) {
	row := r.pool.QueryRow(ctx, selectResultColumns+` WHERE id = $1`, id)
	result, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizResult{}, ErrNotFound
	}
	return result, err
}

func (r *PgResultRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, selectResultColumns+` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.QuizResult{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanResult(row pgx.Row) (domain.QuizResult, error) {
	var result domain.QuizResult
	var raw, counts, normalized, top, outcome, history []byte
	if err := row.Scan(
		&result.ID,
		&result.SessionID,
		&result.UserID,
		&raw,
		&counts,
		&normalized,
		&top,
		&outcome,
		&history,
		&result.CreatedAt,
	); err != nil {
		return domain.QuizResult{}, err
	}

	targets := []struct {
		data []byte
		dst  any
	}{
		{raw, &result.RawScores},
		{counts, &result.AnsweredCounts},
		{normalized, &result.NormalizedScores},
		{top, &result.TopTraits},
		{outcome, &result.Recommendation},
		{history, &result.History},
	}
	for _, t := range targets {
		if err := json.Unmarshal(t.data, t.dst); err != nil {
			return domain.QuizResult{}, fmt.Errorf("decode quiz result %s: %w", result.ID, err)
		}
	}
	return result, nil
}

func marshalColumns(values ...any) ([][]byte, error) {
	out := make([][]byte, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode quiz result column: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func nullableText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
