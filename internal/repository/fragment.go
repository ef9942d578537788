package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/studyloop/mentor/internal/domain"
)

// ErrCollectionMissing is returned when the fragments table has not been migrated.
var ErrCollectionMissing = errors.New("fragments table does not exist")

// FragmentRepository persists embedded document fragments and answers
// vector similarity queries over them.
type FragmentRepository struct {
	pool *pgxpool.Pool
}

func NewFragmentRepository(pool *pgxpool.Pool) *FragmentRepository {
	return &FragmentRepository{pool: pool}
}

// EnsureCollection verifies that the fragments table exists and that its
// embedding column matches the configured dimensionality. It is idempotent
// and meant to run at startup, after migrations.
func (r *FragmentRepository) EnsureCollection(ctx context.Context, dimensions int) error {
	var dims int
	err := r.pool.QueryRow(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		WHERE c.relname = 'fragments' AND a.attname = 'embedding'`,
	).Scan(&dims)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCollectionMissing
		}
		return fmt.Errorf("failed to inspect fragments table: %w", err)
	}

	if dims != dimensions {
		return fmt.Errorf("fragments embedding column has %d dimensions, expected %d", dims, dimensions)
	}
	return nil
}

// Upsert writes points in a single batch. Existing rows with the same ID
// have their content and embedding replaced.
func (r *FragmentRepository) Upsert(ctx context.Context, points []domain.EmbeddedPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for _, p := range points {
		batch.Queue(
			`INSERT INTO fragments (id, source_id, source_type, file_name, chunk_index, content, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO UPDATE SET
				source_id = EXCLUDED.source_id,
				source_type = EXCLUDED.source_type,
				file_name = EXCLUDED.file_name,
				chunk_index = EXCLUDED.chunk_index,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding`,
			p.ID,
			p.Payload.SourceID,
			string(p.Payload.SourceType),
			p.Payload.FileName,
			p.Payload.Index,
			p.Payload.Text,
			pgvector.NewVector(p.Vector),
			now,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert fragments: %w", err)
		}
	}
	return nil
}

// Query returns the topK nearest fragments by cosine similarity, ordered
// best first. Score is 1 - cosine distance.
func (r *FragmentRepository) Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredMatch, error) {
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(vector)
	rows, err := r.pool.Query(ctx, `
		SELECT content, source_id, file_name, source_type, chunk_index,
		       1 - (embedding <=> $1) AS score
		FROM fragments
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fragments: %w", err)
	}
	defer rows.Close()

	var matches []domain.ScoredMatch
	for rows.Next() {
		var m domain.ScoredMatch
		var sourceType string
		var score float64
		if err := rows.Scan(&m.Text, &m.SourceID, &m.FileName, &sourceType, &m.Index, &score); err != nil {
			return nil, err
		}
		m.Type = domain.SourceType(sourceType)
		m.Score = &score
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// ListSources groups indexed fragments by their originating document.
func (r *FragmentRepository) ListSources(ctx context.Context) ([]domain.IndexedSource, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT source_id, min(file_name), min(source_type), count(*)
		FROM fragments
		GROUP BY source_id
		ORDER BY min(file_name)`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.IndexedSource
	for rows.Next() {
		var s domain.IndexedSource
		var sourceType string
		if err := rows.Scan(&s.SourceID, &s.FileName, &sourceType, &s.Fragments); err != nil {
			return nil, err
		}
		s.Type = domain.SourceType(sourceType)
		sources = append(sources, s)
	}

	return sources, rows.Err()
}
