package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/api"
	"github.com/augisz/interview-trainer/internal/llm"
	"github.com/augisz/interview-trainer/internal/utils"
)

// ErrEmptyInput marks a request rejected before calling the model.
var ErrEmptyInput = errors.New("empty input")

const evaluationPrompt = `You are an expert interview evaluator.
Evaluate the candidate's answer using the following 10 parameters.
Each parameter should have a score from 1-10.
Also calculate a total (sum out of 100).
Provide a 2-3 sentence summary and 3-5 improvement tips.

Parameters:
1. Clarity
2. Relevance
3. Communication
4. Confidence
5. Structure
6. Technical Depth
7. Example Quality
8. Conciseness
9. Authenticity
10. Impact

Format response as pure JSON:
{
  "scores": {
    "Clarity": 0,
    "Relevance": 0,
    "Communication": 0,
    "Confidence": 0,
    "Structure": 0,
    "Technical Depth": 0,
    "Example Quality": 0,
    "Conciseness": 0,
    "Authenticity": 0,
    "Impact": 0
  },
  "total": 0,
  "summary": "short 2-3 sentence summary",
  "improvement_tips": [
    "tip 1",
    "tip 2",
    "tip 3"
  ]
}

Question: %s
Answer: %s`

// Evaluator scores one answer against one question
type Evaluator struct {
	generator llm.Generator
}

// NewEvaluator creates the answer evaluation handler
func NewEvaluator(generator llm.Generator) (*Evaluator, error) {
	if generator == nil {
		return nil, fmt.Errorf("no generator")
	}
	goapp.Log.Info().Msg("Evaluator")
	return &Evaluator{generator: generator}, nil
}

// Evaluate validates inputs, calls the model and extracts the structured
// result. A malformed model response degrades to the raw text, never to an error.
func (sp *Evaluator) Evaluate(ctx context.Context, question, answer string) (*api.Evaluation, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: question", ErrEmptyInput)
	}
	if answer == "" {
		return nil, fmt.Errorf("%w: answer", ErrEmptyInput)
	}
	defer utils.MeasureTime("evaluation", time.Now())
	raw, err := sp.generator.Generate(ctx, fmt.Sprintf(evaluationPrompt, question, answer))
	if err != nil {
		return nil, fmt.Errorf("can't evaluate answer: %w", err)
	}
	return extractEvaluation(raw), nil
}

// extractEvaluation strips code fences, slices the first { to the last }
// and parses only that part. Scores and total are trusted from the model.
func extractEvaluation(raw string) *api.Evaluation {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	from := strings.Index(cleaned, "{")
	to := strings.LastIndex(cleaned, "}")
	if from < 0 || to < from {
		goapp.Log.Warn().Msg("no JSON object in model output")
		return &api.Evaluation{RawEvaluation: raw}
	}
	res := &api.Evaluation{}
	if err := json.Unmarshal([]byte(cleaned[from:to+1]), res); err != nil {
		goapp.Log.Warn().Err(err).Msg("can't parse evaluation")
		return &api.Evaluation{RawEvaluation: raw}
	}
	return res
}
