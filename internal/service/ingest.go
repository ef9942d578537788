package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/studyloop/mentor/internal/domain"
	"github.com/studyloop/mentor/internal/telemetry"
)

// BatchEmbedder embeds all fragments of one document in a single call,
// bounding the request count to one per document.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// PointStore persists embedded fragments and answers similarity queries.
type PointStore interface {
	Upsert(ctx context.Context, points []domain.EmbeddedPoint) error
	Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredMatch, error)
	ListSources(ctx context.Context) ([]domain.IndexedSource, error)
}

// DocumentLoader lists and extracts the documents of a directory.
type DocumentLoader interface {
	Load(ctx context.Context, dir string) ([]domain.RawDocument, error)
	LoadFile(ctx context.Context, path string) (domain.RawDocument, error)
}

// IDGenerator mints point identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator mints random UUIDv4 point IDs.
type UUIDGenerator struct{}

func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// IngestService turns source documents into embedded points in the vector
// store.
type IngestService struct {
	loader   DocumentLoader
	embedder BatchEmbedder
	store    PointStore
	ids      IDGenerator
	chunkCfg ChunkConfig
}

// NewIngestService creates an IngestService.
func NewIngestService(loader DocumentLoader, embedder BatchEmbedder, store PointStore, ids IDGenerator, chunkCfg ChunkConfig) *IngestService {
	if chunkCfg.MaxChars <= 0 {
		chunkCfg = DefaultChunkConfig()
	}
	return &IngestService{
		loader:   loader,
		embedder: embedder,
		store:    store,
		ids:      ids,
		chunkCfg: chunkCfg,
	}
}

// IngestDir extracts every supported document under dir and ingests them.
func (s *IngestService) IngestDir(ctx context.Context, dir string) (int, error) {
	docs, err := s.loader.Load(ctx, dir)
	if err != nil {
		return 0, err
	}
	return s.Ingest(ctx, docs)
}

// IngestFile extracts and ingests a single document.
func (s *IngestService) IngestFile(ctx context.Context, path string) (int, error) {
	doc, err := s.loader.LoadFile(ctx, path)
	if err != nil {
		return 0, err
	}
	return s.Ingest(ctx, []domain.RawDocument{doc})
}

// Ingest chunks, embeds, and stores the given documents. Per-document
// failures (empty text, zero chunks, embedding errors) are logged and
// skipped so one bad document never aborts the run. All points of the run
// are upserted in a single batch; re-ingesting a document adds new points
// rather than replacing old ones.
func (s *IngestService) Ingest(ctx context.Context, docs []domain.RawDocument) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "ingest.run", telemetry.SpanAttributes{Operation: "ingest"})
	defer span.End()

	var points []domain.EmbeddedPoint

	for _, doc := range docs {
		if doc.Text == "" {
			log.Printf("ingest: skipping %s: no extracted text", doc.FileName())
			continue
		}

		chunks, truncated, err := Chunk(doc.Text, s.chunkCfg)
		if err != nil {
			return 0, fmt.Errorf("chunking %s: %w", doc.FileName(), err)
		}
		if truncated {
			log.Printf("ingest: %s hit the %d-chunk cap, trailing text dropped", doc.FileName(), s.chunkCfg.MaxChunks)
		}
		if len(chunks) == 0 {
			log.Printf("ingest: skipping %s: no chunks produced", doc.FileName())
			continue
		}

		vectors, err := s.embedder.EmbedBatch(ctx, chunks)
		if err != nil {
			log.Printf("ingest: skipping %s: embedding failed: %v", doc.FileName(), err)
			continue
		}
		if len(vectors) != len(chunks) {
			log.Printf("ingest: skipping %s: got %d vectors for %d chunks", doc.FileName(), len(vectors), len(chunks))
			continue
		}

		for i, chunk := range chunks {
			points = append(points, domain.EmbeddedPoint{
				ID:     s.ids.NewID(),
				Vector: vectors[i],
				Payload: domain.PointPayload{
					Text:       chunk,
					SourceID:   doc.Path,
					SourceType: doc.Type,
					FileName:   doc.FileName(),
					Index:      i,
				},
			})
		}
	}

	if len(points) == 0 {
		return 0, nil
	}

	if err := s.store.Upsert(ctx, points); err != nil {
		err = fmt.Errorf("failed to upsert points: %w", err)
		span.SetError(err)
		return 0, err
	}

	log.Printf("ingest: stored %d fragments from %d documents", len(points), len(docs))
	return len(points), nil
}

// ListIndexed reports the sources currently present in the vector index.
func (s *IngestService) ListIndexed(ctx context.Context) ([]domain.IndexedSource, error) {
	return s.store.ListSources(ctx)
}
