//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/mentor/internal/domain"
	"github.com/studyloop/mentor/internal/testutil"
)

func testVector(dims int, seed float32) []float32 {
	v := make([]float32, dims)
	v[0] = seed
	v[1] = 1
	return v
}

func testPoint(sourceID, fileName, text string, index int, vector []float32) domain.EmbeddedPoint {
	return domain.EmbeddedPoint{
		ID:     uuid.NewString(),
		Vector: vector,
		Payload: domain.PointPayload{
			Text:       text,
			SourceID:   sourceID,
			SourceType: domain.SourceTypeText,
			FileName:   fileName,
			Index:      index,
		},
	}
}

func TestFragmentRepository_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewFragmentRepository(pool)

	near := testVector(1536, 1)
	far := testVector(1536, -1)
	points := []domain.EmbeddedPoint{
		testPoint("notes/calculus.txt", "calculus.txt", "Derivatives measure change.", 0, near),
		testPoint("notes/calculus.txt", "calculus.txt", "Integrals measure area.", 1, far),
	}
	require.NoError(t, repo.Upsert(ctx, points))

	matches, err := repo.Query(ctx, near, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Nearest first.
	assert.Equal(t, "Derivatives measure change.", matches[0].Text)
	assert.Equal(t, "notes/calculus.txt", matches[0].SourceID)
	assert.Equal(t, "calculus.txt", matches[0].FileName)
	assert.Equal(t, domain.SourceTypeText, matches[0].Type)
	assert.Equal(t, 0, matches[0].Index)
	require.NotNil(t, matches[0].Score)
	assert.InDelta(t, 1.0, *matches[0].Score, 0.001)

	require.NotNil(t, matches[1].Score)
	assert.Less(t, *matches[1].Score, *matches[0].Score)
}

func TestFragmentRepository_Query_RespectsTopK(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewFragmentRepository(pool)

	var points []domain.EmbeddedPoint
	for i := 0; i < 7; i++ {
		points = append(points, testPoint("doc.txt", "doc.txt", "fragment", i, testVector(1536, float32(i))))
	}
	require.NoError(t, repo.Upsert(ctx, points))

	matches, err := repo.Query(ctx, testVector(1536, 0), 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestFragmentRepository_Query_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewFragmentRepository(pool)

	matches, err := repo.Query(ctx, testVector(1536, 1), 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFragmentRepository_Upsert_ReplacesExistingID(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewFragmentRepository(pool)

	point := testPoint("doc.txt", "doc.txt", "original content", 0, testVector(1536, 1))
	require.NoError(t, repo.Upsert(ctx, []domain.EmbeddedPoint{point}))

	point.Payload.Text = "updated content"
	require.NoError(t, repo.Upsert(ctx, []domain.EmbeddedPoint{point}))

	matches, err := repo.Query(ctx, testVector(1536, 1), 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "updated content", matches[0].Text)
}

func TestFragmentRepository_ListSources(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewFragmentRepository(pool)

	points := []domain.EmbeddedPoint{
		testPoint("notes/algebra.md", "algebra.md", "a", 0, testVector(1536, 1)),
		testPoint("notes/algebra.md", "algebra.md", "b", 1, testVector(1536, 2)),
		testPoint("notes/calculus.txt", "calculus.txt", "c", 0, testVector(1536, 3)),
	}
	require.NoError(t, repo.Upsert(ctx, points))

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "algebra.md", sources[0].FileName)
	assert.Equal(t, "notes/algebra.md", sources[0].SourceID)
	assert.Equal(t, 2, sources[0].Fragments)
	assert.Equal(t, "calculus.txt", sources[1].FileName)
	assert.Equal(t, 1, sources[1].Fragments)
}

func TestFragmentRepository_EnsureCollection(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewFragmentRepository(pool)

	assert.NoError(t, repo.EnsureCollection(ctx, 1536))

	err := repo.EnsureCollection(ctx, 768)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected 768")
}
