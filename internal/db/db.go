package db

import (
	"context"

	"github.com/augisz/interview-trainer/internal/api"
	"github.com/augisz/interview-trainer/internal/domain"
)

// Store is implemented by both the in memory and the Redis backed store.
type Store interface {
	SaveTranscript(ctx context.Context, tr *domain.Transcript) error
	GetTranscript(ctx context.Context, id string) (*domain.Transcript, error)
	SaveEvaluation(ctx context.Context, id string, ev *api.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (*api.Evaluation, error)
}
