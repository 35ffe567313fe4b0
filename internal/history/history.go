// Package history keeps an audit log of completed searches. One row
// per search with the quota snapshot at that moment; result contents
// are never stored, so this is not a cache.
package history

import (
	"context"
	"fmt"
	"time"
)

type Record struct {
	ID     int64
	ChatID int64
	// Target is the URL or file name that was searched.
	Target string
	Remote bool
	// ResultCount is the number of matches after filtering.
	ResultCount    int
	BestSimilarity float64
	ShortRemaining uint32
	LongRemaining  uint32
	CreatedAt      time.Time
}

type Repo struct {
	db *DB
}

func NewRepo(db *DB) *Repo {
	return &Repo{db: db}
}

// EnsureSchema creates the searches table if it is missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS searches (
            id BIGSERIAL PRIMARY KEY,
            chat_id BIGINT NOT NULL,
            target TEXT NOT NULL,
            remote BOOLEAN NOT NULL,
            result_count INT NOT NULL,
            best_similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
            short_remaining INT NOT NULL,
            long_remaining INT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS searches_chat_id_idx ON searches (chat_id, created_at DESC);
    `)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *Repo) Create(ctx context.Context, rec *Record) error {
	query := `
        INSERT INTO searches (chat_id, target, remote, result_count, best_similarity, short_remaining, long_remaining)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `

	err := r.db.Pool.QueryRow(ctx, query,
		rec.ChatID,
		rec.Target,
		rec.Remote,
		rec.ResultCount,
		rec.BestSimilarity,
		rec.ShortRemaining,
		rec.LongRemaining,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("create search record: %w", err)
	}

	return nil
}

func (r *Repo) ListByChat(ctx context.Context, chatID int64, limit int) ([]Record, error) {
	query := `
        SELECT id, chat_id, target, remote, result_count, best_similarity, short_remaining, long_remaining, created_at
        FROM searches
        WHERE chat_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `

	rows, err := r.db.Pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		err := rows.Scan(
			&rec.ID,
			&rec.ChatID,
			&rec.Target,
			&rec.Remote,
			&rec.ResultCount,
			&rec.BestSimilarity,
			&rec.ShortRemaining,
			&rec.LongRemaining,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

func (r *Repo) CountByChat(ctx context.Context, chatID int64) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM searches WHERE chat_id = $1`, chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count searches: %w", err)
	}
	return count, nil
}
