//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyloop/mentor/internal/api/handlers"
	"github.com/studyloop/mentor/internal/extract"
	"github.com/studyloop/mentor/internal/notify"
	"github.com/studyloop/mentor/internal/repository"
	"github.com/studyloop/mentor/internal/server"
	"github.com/studyloop/mentor/internal/service"
	"github.com/studyloop/mentor/internal/storage"
	"github.com/studyloop/mentor/internal/testutil"
)

const embeddingDims = 1536

// hashEmbedder is a deterministic, offline stand-in for the embedding
// provider: a normalized bag-of-words vector hashed into a fixed dimension.
// Texts sharing vocabulary get high cosine similarity, disjoint texts get
// near zero, which is exactly what the retrieval gate needs to be exercised
// end to end.
type hashEmbedder struct {
	dims int
}

func (e *hashEmbedder) embed(text string) []float32 {
	v := make([]float32, e.dims)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, token := range tokens {
		h := fnv.New32a()
		h.Write([]byte(token))
		v[h.Sum32()%uint32(e.dims)]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

func (e *hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// cannedChat answers every prompt with a fixed completion, flagging whether
// the prompt carried retrieved material.
type cannedChat struct{}

func (c *cannedChat) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "<study_material>") {
		return "Grounded answer based on the provided fragments.", nil
	}
	return "Generic answer from general knowledge.", nil
}

// TestEnv holds all resources needed for the end-to-end tests.
type TestEnv struct {
	T         *testing.T
	Ctx       context.Context
	PostgresC *testutil.PostgresContainer
	RustFSC   *testutil.RustFSContainer
	Pool      *pgxpool.Pool
	Server    *httptest.Server
	S3Client  *storage.S3Client
	DocsDir   string

	WebhookCalls chan []byte
	webhookSrv   *httptest.Server

	HTTPClient *http.Client
}

// SetupEnv starts the containers and an in-process API server wired with
// deterministic embedding and chat fakes.
func SetupEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "mentor-e2e-uploads",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	webhookCalls := make(chan []byte, 8)
	webhookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		webhookCalls <- body
		w.WriteHeader(http.StatusOK)
	}))

	docsDir := t.TempDir()

	fragmentRepo := repository.NewFragmentRepository(pool)
	if err := fragmentRepo.EnsureCollection(ctx, embeddingDims); err != nil {
		t.Fatalf("vector index check failed: %v", err)
	}

	embedder := &hashEmbedder{dims: embeddingDims}
	chat := &cannedChat{}
	extractor := extract.NewService(nil)

	gate := service.NewRetrievalGate(embedder, fragmentRepo, service.DefaultGateConfig())
	ingestSvc := service.NewIngestService(extractor, embedder, fragmentRepo, &service.UUIDGenerator{}, service.DefaultChunkConfig())
	answerSvc := service.NewAnswerService(gate, chat)
	planSvc := service.NewPlanService(gate, chat, notify.NewWebhookNotifier(webhookSrv.URL))

	router := server.NewRouter(server.RouterConfig{
		DocumentsHandler: handlers.NewDocumentsHandler(extractor, extractor, ingestSvc, s3Client, docsDir),
		QueryHandler:     handlers.NewQueryHandler(answerSvc),
		PlanHandler:      handlers.NewPlanHandler(planSvc),
	})

	return &TestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		Server:       httptest.NewServer(router),
		S3Client:     s3Client,
		DocsDir:      docsDir,
		WebhookCalls: webhookCalls,
		webhookSrv:   webhookSrv,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources.
func (e *TestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.webhookSrv != nil {
		e.webhookSrv.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// WriteDoc places a document into the docs directory.
func (e *TestEnv) WriteDoc(name, content string) {
	if err := os.WriteFile(filepath.Join(e.DocsDir, name), []byte(content), 0o644); err != nil {
		e.T.Fatalf("failed to write doc %s: %v", name, err)
	}
}

// APIResponse mirrors the server's response envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request against the test server.
func (e *TestEnv) Get(path string) (*APIResponse, error) {
	resp, err := e.HTTPClient.Get(e.Server.URL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseResponse(resp)
}

// Post performs a POST request with a JSON body against the test server.
func (e *TestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	resp, err := e.HTTPClient.Post(e.Server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseResponse(resp)
}

// Upload posts a file as multipart form data under the "file" field.
func (e *TestEnv) Upload(path, fileName string, content []byte) (*APIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := e.HTTPClient.Post(e.Server.URL+path, writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseResponse(resp)
}

func parseResponse(resp *http.Response) (*APIResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, body)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, apiResp.Error)
	}
	return &apiResp, nil
}
