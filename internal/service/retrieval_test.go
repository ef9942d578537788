package service

import (
	"context"
	"errors"
	"testing"

	"github.com/studyloop/mentor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQueryEmbedder struct {
	mock.Mock
}

func (m *MockQueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockMatchFetcher struct {
	mock.Mock
}

func (m *MockMatchFetcher) Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredMatch, error) {
	args := m.Called(ctx, vector, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredMatch), args.Error(1)
}

func scored(text string, score float64) domain.ScoredMatch {
	return domain.ScoredMatch{Text: text, Score: &score}
}

func newTestGate(t *testing.T, matches []domain.ScoredMatch) (*RetrievalGate, *MockQueryEmbedder, *MockMatchFetcher) {
	t.Helper()
	embedder := new(MockQueryEmbedder)
	fetcher := new(MockMatchFetcher)
	vector := []float32{0.1, 0.2, 0.3}
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).Return(vector, nil)
	fetcher.On("Query", mock.Anything, vector, 5).Return(matches, nil)
	return NewRetrievalGate(embedder, fetcher, DefaultGateConfig()), embedder, fetcher
}

func TestRetrievalGate_PositiveVerdict(t *testing.T) {
	matches := []domain.ScoredMatch{
		scored("integrals of polynomials", 0.70),
		scored("unrelated", 0.50),
	}
	gate, _, _ := newTestGate(t, matches)

	verdict, err := gate.Evaluate(context.Background(), "polynomial integrals")
	require.NoError(t, err)

	assert.True(t, verdict.UseRetrieved)
	assert.Equal(t, []string{"integrals of polynomials", "unrelated"}, verdict.AcceptedFragments)
	assert.Equal(t, matches, verdict.Matches)
}

func TestRetrievalGate_RejectsOnLexicalMismatch(t *testing.T) {
	matches := []domain.ScoredMatch{
		scored("integrals of polynomials", 0.70),
		scored("unrelated", 0.50),
	}
	gate, _, _ := newTestGate(t, matches)

	// Stages 3 and 4 pass, but no query token appears in the fragments.
	verdict, err := gate.Evaluate(context.Background(), "quantum mechanics")
	require.NoError(t, err)

	assert.False(t, verdict.UseRetrieved)
	assert.Empty(t, verdict.AcceptedFragments)
	assert.Equal(t, matches, verdict.Matches)
}

func TestRetrievalGate_NoMatches(t *testing.T) {
	gate, _, _ := newTestGate(t, []domain.ScoredMatch{})

	verdict, err := gate.Evaluate(context.Background(), "anything")
	require.NoError(t, err)

	assert.False(t, verdict.UseRetrieved)
	assert.Empty(t, verdict.AcceptedFragments)
	assert.Empty(t, verdict.Matches)
}

func TestRetrievalGate_AllMatchesMissingText(t *testing.T) {
	matches := []domain.ScoredMatch{
		{SourceID: "a.pdf", Score: ptrFloat(0.9)},
		{SourceID: "b.pdf", Score: ptrFloat(0.8)},
	}
	gate, _, _ := newTestGate(t, matches)

	verdict, err := gate.Evaluate(context.Background(), "polynomials")
	require.NoError(t, err)

	assert.False(t, verdict.UseRetrieved)
	assert.Empty(t, verdict.AcceptedFragments)
	// Matches stay in the verdict for diagnostics.
	assert.Equal(t, matches, verdict.Matches)
}

func TestRetrievalGate_NoSurvivorAboveThreshold(t *testing.T) {
	matches := []domain.ScoredMatch{
		scored("polynomials everywhere", 0.30),
		scored("more polynomials", 0.20),
	}
	gate, _, _ := newTestGate(t, matches)

	// Stage 3 yields zero survivors: verdict is negative regardless of the
	// later stages, even though the text matches the query lexically.
	verdict, err := gate.Evaluate(context.Background(), "polynomials")
	require.NoError(t, err)

	assert.False(t, verdict.UseRetrieved)
	assert.Empty(t, verdict.AcceptedFragments)
}

func TestRetrievalGate_MediocreClusterRejected(t *testing.T) {
	matches := []domain.ScoredMatch{
		scored("polynomials part one", 0.50),
		scored("polynomials part two", 0.48),
	}
	gate, _, _ := newTestGate(t, matches)

	// Both clear the per-fragment threshold, but the top score stays below
	// the confidence bar.
	verdict, err := gate.Evaluate(context.Background(), "polynomials")
	require.NoError(t, err)

	assert.False(t, verdict.UseRetrieved)
	assert.Empty(t, verdict.AcceptedFragments)
}

func TestRetrievalGate_MissingScoreTreatedAsZero(t *testing.T) {
	matches := []domain.ScoredMatch{
		{Text: "polynomials without score"},
		scored("polynomial basics", 0.70),
	}
	gate, _, _ := newTestGate(t, matches)

	verdict, err := gate.Evaluate(context.Background(), "polynomial")
	require.NoError(t, err)

	assert.True(t, verdict.UseRetrieved)
	// The unscored match fails stage 3, only the scored one survives.
	assert.Equal(t, []string{"polynomial basics"}, verdict.AcceptedFragments)
}

func TestRetrievalGate_EmbeddingError(t *testing.T) {
	embedder := new(MockQueryEmbedder)
	fetcher := new(MockMatchFetcher)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))
	gate := NewRetrievalGate(embedder, fetcher, DefaultGateConfig())

	_, err := gate.Evaluate(context.Background(), "polynomials")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
	fetcher.AssertNotCalled(t, "Query")
}

func TestRetrievalGate_StoreError(t *testing.T) {
	embedder := new(MockQueryEmbedder)
	fetcher := new(MockMatchFetcher)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	fetcher.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	gate := NewRetrievalGate(embedder, fetcher, DefaultGateConfig())

	_, err := gate.Evaluate(context.Background(), "polynomials")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query vector store")
}

func TestQueryTokens(t *testing.T) {
	// Tokens are lowercase alphanumeric runs longer than two characters.
	tokens := queryTokens("What is a B+ tree, really? x2 abc123")
	assert.Equal(t, []string{"what", "tree", "really", "abc123"}, tokens)
}

func ptrFloat(f float64) *float64 { return &f }
