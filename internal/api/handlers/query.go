package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/studyloop/mentor/internal/api"
	"github.com/studyloop/mentor/internal/domain"
	"github.com/studyloop/mentor/internal/service"
)

type AnswerService interface {
	Answer(ctx context.Context, question string) (*service.AnswerResult, error)
}

type QueryHandler struct {
	svc AnswerService
}

func NewQueryHandler(svc AnswerService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type QueryRequest struct {
	Question string `json:"question"`
}

type SourceResponse struct {
	SourceID string  `json:"source_id"`
	FileName string  `json:"file_name"`
	Type     string  `json:"type"`
	Index    int     `json:"chunk_index"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

type QueryResponse struct {
	Question     string           `json:"question"`
	Answer       string           `json:"answer"`
	Origin       string           `json:"origin"`
	OriginDetail string           `json:"origin_detail,omitempty"`
	Sources      []SourceResponse `json:"sources"`
}

// Ask answers a free-text question about the indexed study material.
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.svc.Answer(r.Context(), req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, QueryResponse{
		Question:     result.Question,
		Answer:       result.Answer,
		Origin:       result.Origin,
		OriginDetail: result.OriginDetail,
		Sources:      sourceResponses(result.Sources),
	})
}

func sourceResponses(matches []domain.ScoredMatch) []SourceResponse {
	responses := make([]SourceResponse, len(matches))
	for i, m := range matches {
		responses[i] = SourceResponse{
			SourceID: m.SourceID,
			FileName: m.FileName,
			Type:     string(m.Type),
			Index:    m.Index,
			Score:    m.ScoreOrZero(),
			Text:     m.Text,
		}
	}
	return responses
}
