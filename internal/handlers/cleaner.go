package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/utils"
)

// Cleaner cleans transcript text before it is sent to the client
type Cleaner struct {
}

// NewCleaner creates a text cleaner
func NewCleaner() *Cleaner {
	res := Cleaner{}
	goapp.Log.Info().Msg("Cleaner")
	return &res
}

func (sp *Cleaner) Process(ctx context.Context, text string) (string, error) {
	defer utils.MeasureTime("cleaner", time.Now())
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "_", " ")
	return text, nil
}
