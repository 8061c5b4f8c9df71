package db

import (
	"context"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/api"
	"github.com/augisz/interview-trainer/internal/domain"
)

// MemoryStore keeps transcripts and evaluations in process memory.
type MemoryStore struct {
	transcripts map[string]*domain.Transcript
	evaluations map[string]*api.Evaluation

	lock sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transcripts: make(map[string]*domain.Transcript),
		evaluations: make(map[string]*api.Evaluation),
	}
}

func (am *MemoryStore) SaveTranscript(ctx context.Context, tr *domain.Transcript) error {
	goapp.Log.Trace().Str("id", tr.ID).Msg("Save transcript")
	am.lock.Lock()
	defer am.lock.Unlock()

	cp := *tr
	cp.Texts = append([]string(nil), tr.Texts...)
	am.transcripts[tr.ID] = &cp
	return nil
}

func (am *MemoryStore) GetTranscript(ctx context.Context, id string) (*domain.Transcript, error) {
	am.lock.RLock()
	defer am.lock.RUnlock()

	tr, ok := am.transcripts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *tr
	cp.Texts = append([]string(nil), tr.Texts...)
	return &cp, nil
}

func (am *MemoryStore) SaveEvaluation(ctx context.Context, id string, ev *api.Evaluation) error {
	goapp.Log.Trace().Str("id", id).Msg("Save evaluation")
	am.lock.Lock()
	defer am.lock.Unlock()

	cp := *ev
	am.evaluations[id] = &cp
	return nil
}

func (am *MemoryStore) GetEvaluation(ctx context.Context, id string) (*api.Evaluation, error) {
	am.lock.RLock()
	defer am.lock.RUnlock()

	ev, ok := am.evaluations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}
