package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/mentor/internal/api/handlers"
	"github.com/studyloop/mentor/internal/domain"
	"github.com/studyloop/mentor/internal/service"
)

type MockDocumentLister struct {
	mock.Mock
}

func (m *MockDocumentLister) ListDocuments(dir string) ([]domain.DocumentInfo, error) {
	args := m.Called(dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentInfo), args.Error(1)
}

type MockUploadExtractor struct {
	mock.Mock
}

func (m *MockUploadExtractor) ExtractUpload(ctx context.Context, fileName string, data []byte) (domain.RawDocument, error) {
	args := m.Called(ctx, fileName, data)
	return args.Get(0).(domain.RawDocument), args.Error(1)
}

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Ingest(ctx context.Context, docs []domain.RawDocument) (int, error) {
	args := m.Called(ctx, docs)
	return args.Int(0), args.Error(1)
}

func (m *MockIngestService) IngestDir(ctx context.Context, dir string) (int, error) {
	args := m.Called(ctx, dir)
	return args.Int(0), args.Error(1)
}

func (m *MockIngestService) ListIndexed(ctx context.Context) ([]domain.IndexedSource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IndexedSource), args.Error(1)
}

type MockAnswerService struct {
	mock.Mock
}

func (m *MockAnswerService) Answer(ctx context.Context, question string) (*service.AnswerResult, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnswerResult), args.Error(1)
}

type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) CreatePlan(ctx context.Context, topic string, startDate time.Time, email string) (*domain.StudyPlan, error) {
	args := m.Called(ctx, topic, startDate, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudyPlan), args.Error(1)
}

func setupRouter() (http.Handler, *MockDocumentLister, *MockIngestService, *MockAnswerService, *MockPlanService) {
	lister := new(MockDocumentLister)
	ingestSvc := new(MockIngestService)
	answerSvc := new(MockAnswerService)
	planSvc := new(MockPlanService)

	cfg := RouterConfig{
		DocumentsHandler: handlers.NewDocumentsHandler(lister, new(MockUploadExtractor), ingestSvc, nil, "docs"),
		QueryHandler:     handlers.NewQueryHandler(answerSvc),
		PlanHandler:      handlers.NewPlanHandler(planSvc),
	}

	return NewRouter(cfg), lister, ingestSvc, answerSvc, planSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_ListDocuments(t *testing.T) {
	router, lister, _, _, _ := setupRouter()

	lister.On("ListDocuments", "docs").Return([]domain.DocumentInfo{
		{Name: "calculus.txt", SizeBytes: 42, Type: domain.SourceTypeText},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	lister.AssertExpectations(t)
}

func TestRouter_ListIndexed(t *testing.T) {
	router, _, ingestSvc, _, _ := setupRouter()

	ingestSvc.On("ListIndexed", mock.Anything).Return([]domain.IndexedSource{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents/indexed", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ingestSvc.AssertExpectations(t)
}

func TestRouter_Ingest(t *testing.T) {
	router, _, ingestSvc, _, _ := setupRouter()

	ingestSvc.On("IngestDir", mock.Anything, "docs").Return(4, nil)

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ingestSvc.AssertExpectations(t)
}

func TestRouter_Query(t *testing.T) {
	router, _, _, answerSvc, _ := setupRouter()

	answerSvc.On("Answer", mock.Anything, "what is a limit?").Return(&service.AnswerResult{
		Question: "what is a limit?",
		Answer:   "A limit describes the value a function approaches.",
		Origin:   domain.OriginModel,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"what is a limit?"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	answerSvc.AssertExpectations(t)
}

func TestRouter_CreatePlan(t *testing.T) {
	router, _, _, _, planSvc := setupRouter()

	planSvc.On("CreatePlan", mock.Anything, "calculus", time.Time{}, "").
		Return(&domain.StudyPlan{Topic: "calculus", Origin: domain.OriginModel}, nil)

	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(`{"topic":"calculus"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	planSvc.AssertExpectations(t)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
