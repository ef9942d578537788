package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/studyloop/mentor/internal/domain"
)

// GateConfig holds the retrieval gate thresholds. The defaults are
// deliberately conservative: the gate prefers "no grounding available" over
// grounding an answer on loosely related material.
type GateConfig struct {
	TopK           int
	ScoreThreshold float64
	MinTopScore    float64
}

// DefaultGateConfig returns the thresholds tuned on the study corpus.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		TopK:           5,
		ScoreThreshold: 0.45,
		MinTopScore:    0.60,
	}
}

// QueryEmbedder generates an embedding for a single query string.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// MatchFetcher returns the nearest neighbors for a query vector.
type MatchFetcher interface {
	Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredMatch, error)
}

// RetrievalGate decides whether nearest-neighbor matches are trustworthy
// enough to ground a generated answer.
type RetrievalGate struct {
	embedder QueryEmbedder
	fetcher  MatchFetcher
	cfg      GateConfig
}

// NewRetrievalGate creates a RetrievalGate with the given collaborators.
func NewRetrievalGate(embedder QueryEmbedder, fetcher MatchFetcher, cfg GateConfig) *RetrievalGate {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultGateConfig().TopK
	}
	return &RetrievalGate{embedder: embedder, fetcher: fetcher, cfg: cfg}
}

// Evaluate runs the staged relevance filter for a query. A negative verdict
// is a designed outcome, not an error; errors are reserved for failures of
// the embedding provider or the vector store.
func (g *RetrievalGate) Evaluate(ctx context.Context, query string) (*domain.RetrievalVerdict, error) {
	vector, err := g.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := g.fetcher.Query(ctx, vector, g.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}
	if len(matches) == 0 {
		return &domain.RetrievalVerdict{Matches: []domain.ScoredMatch{}}, nil
	}

	// Matches without text cannot ground anything, but stay in the verdict
	// for diagnostics.
	withText := make([]domain.ScoredMatch, 0, len(matches))
	for _, m := range matches {
		if m.Text != "" {
			withText = append(withText, m)
		}
	}
	if len(withText) == 0 {
		return &domain.RetrievalVerdict{Matches: matches}, nil
	}

	survivors := make([]string, 0, len(withText))
	for _, m := range withText {
		if m.ScoreOrZero() >= g.cfg.ScoreThreshold {
			survivors = append(survivors, m.Text)
		}
	}
	if len(survivors) == 0 {
		return &domain.RetrievalVerdict{Matches: matches}, nil
	}

	// A cluster of mediocre matches is not confident grounding: the best
	// score across all fetched matches must clear the higher bar.
	var maxScore float64
	for _, m := range matches {
		if s := m.ScoreOrZero(); s > maxScore {
			maxScore = s
		}
	}
	if maxScore < g.cfg.MinTopScore {
		return &domain.RetrievalVerdict{Matches: matches}, nil
	}

	// High vector similarity with zero lexical overlap is likely noise.
	if countTokenHits(query, survivors) == 0 {
		return &domain.RetrievalVerdict{Matches: matches}, nil
	}

	return &domain.RetrievalVerdict{
		UseRetrieved:      true,
		AcceptedFragments: survivors,
		Matches:           matches,
	}, nil
}

// countTokenHits counts how many query tokens (lowercase alphanumeric runs
// longer than two characters) appear as substrings of the surviving
// fragments.
func countTokenHits(query string, fragments []string) int {
	haystack := strings.ToLower(strings.Join(fragments, "\n\n"))

	hits := 0
	for _, token := range queryTokens(query) {
		if strings.Contains(haystack, token) {
			hits++
		}
	}
	return hits
}

func queryTokens(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
