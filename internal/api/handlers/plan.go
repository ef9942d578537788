package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/studyloop/mentor/internal/api"
	"github.com/studyloop/mentor/internal/domain"
)

type PlanService interface {
	CreatePlan(ctx context.Context, topic string, startDate time.Time, email string) (*domain.StudyPlan, error)
}

type PlanHandler struct {
	svc PlanService
}

func NewPlanHandler(svc PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

type PlanRequest struct {
	Topic     string `json:"topic"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD, defaults to today
	Email     string `json:"email,omitempty"`
}

type PlanSessionResponse struct {
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type PlanResponse struct {
	Topic        string                `json:"topic"`
	StartDate    string                `json:"start_date"`
	Origin       string                `json:"origin"`
	OriginDetail string                `json:"origin_detail,omitempty"`
	Sources      []SourceResponse      `json:"sources"`
	Sessions     []PlanSessionResponse `json:"sessions"`
}

// Create builds a spaced-repetition study plan for a topic.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Topic == "" {
		api.Error(w, http.StatusBadRequest, "topic is required")
		return
	}

	var startDate time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		startDate = parsed
	}

	plan, err := h.svc.CreatePlan(r.Context(), req.Topic, startDate, req.Email)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sessions := make([]PlanSessionResponse, len(plan.Sessions))
	for i, s := range plan.Sessions {
		sessions[i] = PlanSessionResponse{
			Kind:        s.Kind,
			Date:        s.Date,
			Description: s.Description,
		}
	}

	api.Success(w, http.StatusCreated, PlanResponse{
		Topic:        plan.Topic,
		StartDate:    plan.StartDate,
		Origin:       plan.Origin,
		OriginDetail: plan.OriginDetail,
		Sources:      sourceResponses(plan.Sources),
		Sessions:     sessions,
	})
}
