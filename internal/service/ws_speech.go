package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/api"
	"github.com/augisz/interview-trainer/internal/handlers"
	"github.com/augisz/interview-trainer/internal/recognizer"
	"github.com/gorilla/websocket"
)

// audioQueueSize bounds audio buffered between the client read loop and the
// upstream feed. A full queue blocks the read loop, not the recognizer.
const audioQueueSize = 100

type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// WSSpeechHandler bridges one client audio connection and one streaming
// recognition call per session
type WSSpeechHandler struct {
	recognizer recognizer.Recognizer
	saver      handlers.TranscriptSaver
	timeOut    time.Duration
	Middleware handlers.Handler
}

// NewWSSpeechHandler creates the speech session handler. timeOut caps a
// session, zero keeps it open until the client disconnects.
func NewWSSpeechHandler(rec recognizer.Recognizer, saver handlers.TranscriptSaver, timeOut time.Duration) *WSSpeechHandler {
	res := &WSSpeechHandler{}
	res.recognizer = rec
	res.saver = saver
	res.timeOut = timeOut
	return res
}

// HandleConnection runs one recognition session: an ingest routine moves
// client audio into the queue, a feed routine moves the queue upstream, the
// drain loop forwards recognition events back in upstream order.
// The connection is closed on every exit path.
func (kp *WSSpeechHandler) HandleConnection(ctx context.Context, conn WsConn, query string) error {
	goapp.Log.Info().Str("query", query).Msg("got")
	defer conn.Close()

	if kp.timeOut > 0 {
		var cf context.CancelFunc
		ctx, cf = context.WithTimeout(ctx, kp.timeOut)
		defer cf()
	}
	closeCtx, cf := context.WithCancel(ctx)
	defer cf()

	stream, err := kp.recognizer.StreamingRecognize(closeCtx)
	if err != nil {
		goapp.Log.Error().Err(err).Msg("speech streaming error")
		kp.sendError(conn)
		return fmt.Errorf("can't start recognition: %w", err)
	}

	session := handlers.NewRecordSession(kp.saver)
	goapp.Log.Info().Str("id", session.ID).Msg("session start")

	audioCh := make(chan []byte, audioQueueSize)
	go ingest(closeCtx, conn, audioCh)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		feed(closeCtx, stream, audioCh)
	}()

	err = kp.drain(closeCtx, conn, stream, session)
	cf()
	wg.Wait()
	if err != nil {
		goapp.Log.Error().Err(err).Msg("speech streaming error")
		kp.sendError(conn)
	}
	if err := session.Save(context.WithoutCancel(ctx)); err != nil {
		goapp.Log.Error().Err(err).Msg("can't save transcript")
	}
	goapp.Log.Info().Str("id", session.ID).Msg("handleConnection finish")
	return nil
}

// ingest owns audioCh: it is closed when the client stops sending,
// that is the end of stream marker for the feed routine.
func ingest(ctx context.Context, conn WsConn, audioCh chan<- []byte) {
	defer close(audioCh)
	defer goapp.Log.Debug().Msg("ingest routine ended")
	for {
		mType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				goapp.Log.Info().Msg("connection closed")
				return
			}
			goapp.Log.Debug().Err(err).Msg("read ended")
			return
		}
		if mType != websocket.BinaryMessage {
			continue
		}
		select {
		case audioCh <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// feed sends queued chunks upstream in arrival order and closes the send
// side when the queue is closed.
func feed(ctx context.Context, stream recognizer.Stream, audioCh <-chan []byte) {
	defer func() {
		if err := stream.CloseSend(); err != nil {
			goapp.Log.Debug().Err(err).Msg("close send")
		}
	}()
	for {
		select {
		case chunk, ok := <-audioCh:
			if !ok {
				return
			}
			if err := stream.Send(chunk); err != nil {
				goapp.Log.Error().Err(err).Msg("send audio error")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (kp *WSSpeechHandler) drain(ctx context.Context, conn WsConn, stream recognizer.Stream, session *handlers.RecordSession) error {
	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("recv: %w", err)
		}
		text := ev.Text
		if kp.Middleware != nil {
			textNew, err := kp.Middleware.Process(ctx, text)
			if err != nil {
				goapp.Log.Error().Err(err).Msg("middleware err")
			} else {
				text = textNew
			}
		}
		prefix := api.PrefixInterim
		if ev.Final {
			prefix = api.PrefixFinal
			session.KeepFinal(text)
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(prefix+text)); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
}

// best effort, the connection may already be gone
func (kp *WSSpeechHandler) sendError(conn WsConn) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(api.PrefixError+"Speech recognition error occurred.")); err != nil {
		goapp.Log.Debug().Err(err).Msg("can't send error frame")
	}
}
