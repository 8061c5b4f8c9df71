package recognizer

import "context"

// Event is a single recognition result.
type Event struct {
	Text  string
	Final bool
}

// Stream is one live recognition call. Send and CloseSend feed audio,
// Recv yields events until io.EOF.
type Stream interface {
	Send(chunk []byte) error
	CloseSend() error
	Recv() (Event, error)
}

// Recognizer opens streaming recognition sessions.
type Recognizer interface {
	StreamingRecognize(ctx context.Context) (Stream, error)
}
