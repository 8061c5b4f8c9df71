package api

// Prefixes for text frames sent to the client over the speech websocket.
const (
	PrefixInterim = "[INTERIM]"
	PrefixFinal   = "[FINAL]"
	PrefixError   = "[ERROR] "
)

type GenerateRequest struct {
	JobDescription string `json:"job_description"`
}

type GenerateResponse struct {
	Questions []string `json:"questions"`
}

type EvaluateRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Evaluation is the model's assessment of one answer. Either the structured
// fields are set, or RawEvaluation carries the unparsed model output.
type Evaluation struct {
	Scores          map[string]int `json:"scores,omitempty"`
	Total           int            `json:"total,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	ImprovementTips []string       `json:"improvement_tips,omitempty"`
	RawEvaluation   string         `json:"raw_evaluation,omitempty"`
}

type EvaluateResponse struct {
	Evaluation *Evaluation `json:"evaluation"`
}

type Transcript struct {
	ID    string   `json:"id"`
	Texts []string `json:"texts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
