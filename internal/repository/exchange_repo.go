package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"xenon-assistant/internal/models"
)

type ExchangeRepo struct {
	pool *pgxpool.Pool
}

func NewExchangeRepo(pool *pgxpool.Pool) *ExchangeRepo {
	return &ExchangeRepo{pool: pool}
}

func (r *ExchangeRepo) Record(ctx context.Context, e *models.Exchange) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := `INSERT INTO exchanges (id, session_id, provider, question, reply, filtered, failed, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		e.ID, e.SessionID, e.Provider, e.Question, e.Reply, e.Filtered, e.Failed, e.DurationMs,
	).Scan(&e.CreatedAt)
}

func (r *ExchangeRepo) ListRecent(ctx context.Context, limit int) ([]models.Exchange, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, provider, question, reply, filtered, failed, duration_ms, created_at
		FROM exchanges ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Exchange
	for rows.Next() {
		var e models.Exchange
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Provider, &e.Question, &e.Reply,
			&e.Filtered, &e.Failed, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
