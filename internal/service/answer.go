package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/studyloop/mentor/internal/domain"
	"github.com/studyloop/mentor/internal/telemetry"
)

// Retrieval gate verdicts feed at most this many fragments into a prompt.
const maxPromptFragments = 5

// ChatClient generates a completion for a prompt.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Gate is the retrieval decision the answer and plan composers consume.
type Gate interface {
	Evaluate(ctx context.Context, query string) (*domain.RetrievalVerdict, error)
}

// AnswerResult is the response to a free-text question.
type AnswerResult struct {
	Question     string               `json:"question"`
	Answer       string               `json:"answer"`
	Origin       string               `json:"origin"`
	OriginDetail string               `json:"origin_detail"`
	Sources      []domain.ScoredMatch `json:"sources"`
}

// AnswerService answers questions about the indexed study material,
// falling back to the model's general knowledge when the retrieval gate
// rejects the matches.
type AnswerService struct {
	gate Gate
	chat ChatClient
}

// NewAnswerService creates an AnswerService.
func NewAnswerService(gate Gate, chat ChatClient) *AnswerService {
	return &AnswerService{gate: gate, chat: chat}
}

// Answer runs the retrieval gate for the question, picks the grounded or
// generic prompt accordingly, and invokes generation. A negative verdict is
// never an error: the caller always gets an answer.
func (s *AnswerService) Answer(ctx context.Context, question string) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	ctx, span := telemetry.StartSpan(ctx, "answer.generate", telemetry.SpanAttributes{Operation: "answer"})
	defer span.End()

	verdict, err := s.gate.Evaluate(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	result := &AnswerResult{
		Question: question,
		Sources:  []domain.ScoredMatch{},
	}

	var prompt string
	if verdict.UseRetrieved {
		prompt = groundedAnswerPrompt(question, promptContext(verdict.AcceptedFragments))
		result.Origin = domain.OriginRetrieval
		result.OriginDetail = "Answered from fragments retrieved out of the indexed study material."
		result.Sources = verdict.Matches
	} else {
		prompt = genericAnswerPrompt(question)
		result.Origin = domain.OriginModel
		result.OriginDetail = "No relevant study material found; answered from the model's general knowledge."
	}

	answer, err := s.chat.Complete(ctx, prompt)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	result.Answer = strings.TrimSpace(answer)

	return result, nil
}

// promptContext joins the accepted fragments, capped to the first
// maxPromptFragments to keep the prompt bounded.
func promptContext(fragments []string) string {
	if len(fragments) > maxPromptFragments {
		fragments = fragments[:maxPromptFragments]
	}
	return strings.Join(fragments, "\n\n")
}

func groundedAnswerPrompt(question, material string) string {
	return fmt.Sprintf(`You are a study assistant.
Answer using ONLY the following material:

<study_material>
%s
</study_material>

QUESTION:
%s

Instructions:
- Answer only with information from the material.
- If the answer is explicitly in the text, use it.
- Do not invent anything beyond the provided content.`, material, question)
}

func genericAnswerPrompt(question string) string {
	return fmt.Sprintf(`You are a study assistant.
You have no study material relevant to this question.

Answer from your general knowledge, clearly and briefly.

QUESTION:
%s`, question)
}
