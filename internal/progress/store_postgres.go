package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore keeps each student's record as a JSONB row in student_progress.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a pool whose schema has been migrated.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, studentID string) (*StudentProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM student_progress WHERE student_id = $1`,
		studentID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", studentID, err)
	}

	p, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", studentID, err)
	}
	return p, nil
}

func (s *PostgresStore) Save(ctx context.Context, studentID string, p *StudentProgress) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	data, err := encode(p)
	if err != nil {
		return fmt.Errorf("encode progress %s: %w", studentID, err)
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO student_progress (student_id, record, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (student_id) DO UPDATE
		 SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		studentID,
		string(data),
	); err != nil {
		return fmt.Errorf("save progress %s: %w", studentID, err)
	}
	return nil
}
