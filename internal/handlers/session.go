package handlers

import (
	"context"
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/domain"
	"github.com/oklog/ulid/v2"
)

type TranscriptSaver interface {
	SaveTranscript(ctx context.Context, tr *domain.Transcript) error
}

// RecordSession accumulates final transcripts of one speech connection.
type RecordSession struct {
	ID string

	lock   sync.Mutex
	finals []string
	saver  TranscriptSaver
}

// NewRecordSession creates a session with a fresh ID
func NewRecordSession(saver TranscriptSaver) *RecordSession {
	return &RecordSession{ID: ulid.Make().String(), saver: saver}
}

func (rs *RecordSession) KeepFinal(text string) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.finals = append(rs.finals, text)
}

// Save persists collected finals. Empty sessions are dropped.
func (rs *RecordSession) Save(ctx context.Context) error {
	rs.lock.Lock()
	finals := make([]string, len(rs.finals))
	copy(finals, rs.finals)
	rs.lock.Unlock()

	if len(finals) == 0 || rs.saver == nil {
		return nil
	}
	goapp.Log.Info().Str("id", rs.ID).Int("finals", len(finals)).Msg("Save transcript")
	return rs.saver.SaveTranscript(ctx, &domain.Transcript{ID: rs.ID, Texts: finals})
}
