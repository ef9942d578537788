package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studyloop/mentor/internal/domain"
	"github.com/studyloop/mentor/internal/telemetry"
)

// PlanNotifier delivers a completed plan to an external receiver.
// Implementations must be fire-and-forget: failures are logged, never
// returned to the request.
type PlanNotifier interface {
	NotifyPlan(plan *domain.StudyPlan, email string)
}

// PlanService builds spaced-repetition study plans, grounding each session
// on the indexed material when the retrieval gate allows it.
type PlanService struct {
	gate     Gate
	chat     ChatClient
	notifier PlanNotifier
	now      func() time.Time
}

// NewPlanService creates a PlanService. notifier may be nil when no webhook
// is configured.
func NewPlanService(gate Gate, chat ChatClient, notifier PlanNotifier) *PlanService {
	return &PlanService{
		gate:     gate,
		chat:     chat,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreatePlan builds a plan with sessions at D+1, D+7, D+14, and D+30 from
// startDate (today when zero). When email is set and a notifier is
// configured, the finished plan is posted to the webhook without blocking
// or failing the request.
func (s *PlanService) CreatePlan(ctx context.Context, topic string, startDate time.Time, email string) (*domain.StudyPlan, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, domain.ErrEmptyTopic
	}
	if startDate.IsZero() {
		startDate = s.now()
	}

	ctx, span := telemetry.StartSpan(ctx, "plan.create", telemetry.SpanAttributes{Topic: topic, Operation: "plan"})
	defer span.End()

	verdict, err := s.gate.Evaluate(ctx, topic)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	plan := &domain.StudyPlan{
		Topic:     topic,
		StartDate: startDate.Format("2006-01-02"),
		Sources:   []domain.ScoredMatch{},
	}

	var material string
	if verdict.UseRetrieved {
		material = promptContext(verdict.AcceptedFragments)
		plan.Origin = domain.OriginRetrieval
		plan.OriginDetail = "Plan generated from fragments retrieved out of the indexed study material."
		plan.Sources = verdict.Matches
	} else {
		plan.Origin = domain.OriginModel
		plan.OriginDetail = "No relevant study material found for this topic; plan generated from the model's general knowledge."
	}

	for _, offset := range domain.SessionOffsets {
		kind := fmt.Sprintf("D+%d", offset)
		date := domain.SessionDate(startDate, offset)

		var prompt string
		if verdict.UseRetrieved {
			prompt = groundedSessionPrompt(topic, kind, offset, date, material)
		} else {
			prompt = genericSessionPrompt(topic, kind, offset, date)
		}

		description, err := s.chat.Complete(ctx, prompt)
		if err != nil {
			err = fmt.Errorf("failed to generate session %s: %w", kind, err)
			span.SetError(err)
			return nil, err
		}

		plan.Sessions = append(plan.Sessions, domain.PlanSession{
			Kind:        kind,
			Date:        date,
			Description: strings.TrimSpace(description),
		})
	}

	if email != "" && s.notifier != nil {
		s.notifier.NotifyPlan(plan, email)
	}

	return plan, nil
}

func groundedSessionPrompt(topic, kind string, offset int, date, material string) string {
	return fmt.Sprintf(`You are a study mentor specialized in effective learning from reference material.

TOPIC: %s
SESSION: %s (spaced repetition, day +%d from the start).
SESSION DATE: %s.

These are fragments of the study material:

<study_material>
%s
</study_material>

Use ONLY this material to design a short review session.

Answer in the following Markdown format:

Objective: [one clear, concrete sentence]
Estimated time: [X minutes]
Activities:
- [activity 1, very specific, tied to the material]
- [activity 2, very specific, tied to the material]
- [activity 3, very specific, tied to the material]`, topic, kind, offset, date, material)
}

func genericSessionPrompt(topic, kind string, offset int, date string) string {
	return fmt.Sprintf(`You are a study mentor.

You have no study material for this topic.
Design the review session from your general knowledge.

TOPIC: %s
SESSION: %s (spaced repetition, day +%d from the start).
SESSION DATE: %s.

Answer in the following Markdown format:

Objective: [one clear, concrete sentence]
Estimated time: [X minutes]
Activities:
- [activity 1, very specific]
- [activity 2, very specific]
- [activity 3, very specific]`, topic, kind, offset, date)
}
