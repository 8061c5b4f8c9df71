package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/airenas/go-app/pkg/goapp"
	"google.golang.org/api/option"
)

// GoogleRecognizer streams audio to the Google Cloud Speech-to-Text API.
type GoogleRecognizer struct {
	client *speech.Client
}

// NewGoogleRecognizer creates a recognizer from service account JSON.
func NewGoogleRecognizer(ctx context.Context, credsJSON []byte) (*GoogleRecognizer, error) {
	if len(credsJSON) == 0 {
		return nil, fmt.Errorf("no credentials")
	}
	client, err := speech.NewClient(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("init speech client: %w", err)
	}
	goapp.Log.Info().Msg("Google speech client")
	return &GoogleRecognizer{client: client}, nil
}

// StreamingRecognize opens one streaming call and sends the recognition config.
func (gr *GoogleRecognizer) StreamingRecognize(ctx context.Context) (Stream, error) {
	st, err := gr.client.StreamingRecognize(ctx)
	if err != nil {
		return nil, fmt.Errorf("open streaming call: %w", err)
	}
	if err := st.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: streamingConfig(),
		},
	}); err != nil {
		return nil, fmt.Errorf("send streaming config: %w", err)
	}
	return &googleStream{stream: st}, nil
}

func (gr *GoogleRecognizer) Close() error {
	return gr.client.Close()
}

// Fixed session config: browser mic audio in a WebM Opus container,
// raw base model, partial updates on, session open across utterances.
func streamingConfig() *speechpb.StreamingRecognitionConfig {
	return &speechpb.StreamingRecognitionConfig{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_WEBM_OPUS,
			SampleRateHertz:            48000,
			LanguageCode:               "en-US",
			EnableAutomaticPunctuation: false,
			UseEnhanced:                false,
			Model:                      "default",
		},
		InterimResults:  true,
		SingleUtterance: false,
	}
}

type googleStream struct {
	stream  speechpb.Speech_StreamingRecognizeClient
	pending []Event
}

func (gs *googleStream) Send(chunk []byte) error {
	return gs.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: chunk},
	})
}

func (gs *googleStream) CloseSend() error {
	return gs.stream.CloseSend()
}

// Recv flattens responses: one upstream message may carry several results.
func (gs *googleStream) Recv() (Event, error) {
	for len(gs.pending) == 0 {
		resp, err := gs.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		for _, res := range resp.GetResults() {
			alts := res.GetAlternatives()
			if len(alts) == 0 {
				continue
			}
			gs.pending = append(gs.pending, Event{Text: alts[0].GetTranscript(), Final: res.GetIsFinal()})
		}
	}
	ev := gs.pending[0]
	gs.pending = gs.pending[1:]
	return ev, nil
}
