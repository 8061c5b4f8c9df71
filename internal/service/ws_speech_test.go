package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/augisz/interview-trainer/internal/domain"
	"github.com/augisz/interview-trainer/internal/handlers"
	"github.com/augisz/interview-trainer/internal/recognizer"
	"github.com/gorilla/websocket"
)

type wsMsg struct {
	t    int
	data []byte
}

type testConn struct {
	msgs chan wsMsg
	done chan struct{}

	mu        sync.Mutex
	written   []string
	closed    int
	closeOnce sync.Once
}

// newTestConn preloads client frames, the connection reads as closed after them
func newTestConn(msgs ...wsMsg) *testConn {
	res := &testConn{msgs: make(chan wsMsg, len(msgs)), done: make(chan struct{})}
	for _, m := range msgs {
		res.msgs <- m
	}
	close(res.msgs)
	return res
}

func (c *testConn) ReadMessage() (int, []byte, error) {
	select {
	case m, ok := <-c.msgs:
		if !ok {
			return 0, nil, io.EOF
		}
		return m.t, m.data, nil
	case <-c.done:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (c *testConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, string(data))
	return nil
}

func (c *testConn) Close() error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *testConn) writtenFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

func (c *testConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeStream struct {
	recvErr error
	events  []recognizer.Event

	mu         sync.Mutex
	sent       [][]byte
	pos        int
	sendClosed chan struct{}
	closeOnce  sync.Once
}

func newFakeStream(recvErr error, events ...recognizer.Event) *fakeStream {
	return &fakeStream{recvErr: recvErr, events: events, sendClosed: make(chan struct{})}
}

func (s *fakeStream) Send(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, chunk)
	return nil
}

func (s *fakeStream) CloseSend() error {
	s.closeOnce.Do(func() { close(s.sendClosed) })
	return nil
}

// Recv yields preloaded events, then waits for the audio feed to end
// before reporting the stream end or a failure
func (s *fakeStream) Recv() (recognizer.Event, error) {
	s.mu.Lock()
	if s.pos < len(s.events) {
		ev := s.events[s.pos]
		s.pos++
		s.mu.Unlock()
		return ev, nil
	}
	s.mu.Unlock()
	<-s.sendClosed
	if s.recvErr != nil {
		return recognizer.Event{}, s.recvErr
	}
	return recognizer.Event{}, io.EOF
}

func (s *fakeStream) sentChunks() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}

type fakeRecognizer struct {
	stream *fakeStream
	err    error
}

func (f *fakeRecognizer) StreamingRecognize(_ context.Context) (recognizer.Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

type testSaver struct {
	mu    sync.Mutex
	saved []*domain.Transcript
}

func (f *testSaver) SaveTranscript(_ context.Context, tr *domain.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, tr)
	return nil
}

func TestHandleConnection_ForwardsInOrder(t *testing.T) {
	stream := newFakeStream(nil,
		recognizer.Event{Text: "tell", Final: false},
		recognizer.Event{Text: "tell me", Final: false},
		recognizer.Event{Text: "tell me more", Final: true},
		recognizer.Event{Text: "ok", Final: false},
		recognizer.Event{Text: "ok then", Final: true},
	)
	saver := &testSaver{}
	conn := newTestConn()
	kp := NewWSSpeechHandler(&fakeRecognizer{stream: stream}, saver, 0)

	if err := kp.HandleConnection(context.Background(), conn, ""); err != nil {
		t.Fatalf("HandleConnection() failed: %v", err)
	}
	want := []string{
		"[INTERIM]tell",
		"[INTERIM]tell me",
		"[FINAL]tell me more",
		"[INTERIM]ok",
		"[FINAL]ok then",
	}
	if got := conn.writtenFrames(); !reflect.DeepEqual(got, want) {
		t.Errorf("frames = %v, want %v", got, want)
	}
	if len(saver.saved) != 1 {
		t.Fatalf("saved = %d transcripts, want 1", len(saver.saved))
	}
	if want := []string{"tell me more", "ok then"}; !reflect.DeepEqual(saver.saved[0].Texts, want) {
		t.Errorf("saved finals = %v, want %v", saver.saved[0].Texts, want)
	}
}

func TestHandleConnection_AudioFIFO(t *testing.T) {
	stream := newFakeStream(nil)
	conn := newTestConn(
		wsMsg{t: websocket.BinaryMessage, data: []byte{1, 1, 1}},
		wsMsg{t: websocket.TextMessage, data: []byte("ignored")},
		wsMsg{t: websocket.BinaryMessage, data: []byte{2, 2}},
		wsMsg{t: websocket.BinaryMessage, data: []byte{3}},
	)
	kp := NewWSSpeechHandler(&fakeRecognizer{stream: stream}, nil, 0)

	if err := kp.HandleConnection(context.Background(), conn, ""); err != nil {
		t.Fatalf("HandleConnection() failed: %v", err)
	}
	want := [][]byte{{1, 1, 1}, {2, 2}, {3}}
	got := stream.sentChunks()
	if len(got) != len(want) {
		t.Fatalf("sent = %d chunks, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("chunk %d = %v, want %v", i, got[i], want[i])
		}
	}
	select {
	case <-stream.sendClosed:
	default:
		t.Error("send side not closed")
	}
}

func TestHandleConnection_UpstreamError(t *testing.T) {
	stream := newFakeStream(errors.New("quota exceeded"),
		recognizer.Event{Text: "partial", Final: false},
	)
	conn := newTestConn()
	kp := NewWSSpeechHandler(&fakeRecognizer{stream: stream}, nil, 0)

	if err := kp.HandleConnection(context.Background(), conn, ""); err != nil {
		t.Fatalf("HandleConnection() failed: %v", err)
	}
	frames := conn.writtenFrames()
	if len(frames) == 0 {
		t.Fatal("no frames written")
	}
	if got, want := frames[len(frames)-1], "[ERROR] Speech recognition error occurred."; got != want {
		t.Errorf("last frame = %q, want %q", got, want)
	}
	if got := conn.closeCount(); got != 1 {
		t.Errorf("close count = %d, want 1", got)
	}
}

func TestHandleConnection_DialError(t *testing.T) {
	conn := newTestConn()
	kp := NewWSSpeechHandler(&fakeRecognizer{err: errors.New("unavailable")}, nil, 0)

	if err := kp.HandleConnection(context.Background(), conn, ""); err == nil {
		t.Fatal("HandleConnection() succeeded unexpectedly")
	}
	frames := conn.writtenFrames()
	if len(frames) != 1 || frames[0] != "[ERROR] Speech recognition error occurred." {
		t.Errorf("frames = %v, want single error frame", frames)
	}
	if got := conn.closeCount(); got != 1 {
		t.Errorf("close count = %d, want 1", got)
	}
}

func TestHandleConnection_ClosesOnce(t *testing.T) {
	stream := newFakeStream(nil, recognizer.Event{Text: "done", Final: true})
	conn := newTestConn()
	kp := NewWSSpeechHandler(&fakeRecognizer{stream: stream}, nil, 0)

	if err := kp.HandleConnection(context.Background(), conn, ""); err != nil {
		t.Fatalf("HandleConnection() failed: %v", err)
	}
	if got := conn.closeCount(); got != 1 {
		t.Errorf("close count = %d, want 1", got)
	}
}

func TestHandleConnection_Middleware(t *testing.T) {
	stream := newFakeStream(nil, recognizer.Event{Text: " uh_huh ", Final: true})
	conn := newTestConn()
	kp := NewWSSpeechHandler(&fakeRecognizer{stream: stream}, nil, 0)
	lh, err := handlers.NewListHandler()
	if err != nil {
		t.Fatalf("could not construct middleware: %v", err)
	}
	lh.Add(handlers.NewCleaner())
	kp.Middleware = lh

	if err := kp.HandleConnection(context.Background(), conn, ""); err != nil {
		t.Fatalf("HandleConnection() failed: %v", err)
	}
	if want := []string{"[FINAL]uh huh"}; !reflect.DeepEqual(conn.writtenFrames(), want) {
		t.Errorf("frames = %v, want %v", conn.writtenFrames(), want)
	}
}
