package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/llm"
	"github.com/augisz/interview-trainer/internal/utils"
)

const questionsPrompt = `You are an expert HR interviewer.
Generate exactly 4 interview questions:
- 2 general HR questions
- 2 job-specific questions based on the following job description.

Job Description:
%s

Return only the questions in a numbered list format:
1. ...
2. ...
3. ...
4. ...`

// Questions generates interview questions for a job description
type Questions struct {
	generator llm.Generator
}

// NewQuestions creates the question generation handler
func NewQuestions(generator llm.Generator) (*Questions, error) {
	if generator == nil {
		return nil, fmt.Errorf("no generator")
	}
	goapp.Log.Info().Msg("Questions")
	return &Questions{generator: generator}, nil
}

// Generate asks the model for questions and parses the numbered list.
// The count is whatever the model returned, the prompt's 4 is not enforced.
func (sp *Questions) Generate(ctx context.Context, jobDescription string) ([]string, error) {
	defer utils.MeasureTime("questions", time.Now())
	resp, err := sp.generator.Generate(ctx, fmt.Sprintf(questionsPrompt, jobDescription))
	if err != nil {
		return nil, fmt.Errorf("can't generate questions: %w", err)
	}
	return parseQuestions(resp), nil
}

func parseQuestions(text string) []string {
	var res []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if q := stripMarker(line); q != "" {
			res = append(res, q)
		}
	}
	return res
}

// stripMarker drops a leading "N." list marker, lines without one pass as is
func stripMarker(line string) string {
	if line[0] < '0' || line[0] > '9' {
		return line
	}
	end := len(line)
	if end > 4 {
		end = 4
	}
	dot := strings.Index(line[:end], ".")
	if dot < 0 {
		return line
	}
	return strings.TrimSpace(line[dot+1:])
}
