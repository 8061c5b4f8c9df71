package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/api"
	"github.com/augisz/interview-trainer/internal/domain"
	"github.com/augisz/interview-trainer/internal/handlers"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type QuestionGenerator interface {
	Generate(ctx context.Context, jobDescription string) ([]string, error)
}

type AnswerEvaluator interface {
	Evaluate(ctx context.Context, question, answer string) (*api.Evaluation, error)
}

type Store interface {
	GetTranscript(ctx context.Context, id string) (*domain.Transcript, error)
	SaveEvaluation(ctx context.Context, id string, ev *api.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (*api.Evaluation, error)
}

// Data keeps data required for service work
type Data struct {
	Port            int
	WSHandlerSpeech *WSSpeechHandler
	Questions       QuestionGenerator
	Evaluator       AnswerEvaluator
	Store           Store
	Ctx             context.Context
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) (<-chan struct{}, error) {
	goapp.Log.Info().Msgf("Starting interview trainer service at %d", data.Port)
	if err := validate(data); err != nil {
		return nil, err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	res := make(chan struct{}, 1)
	go func() {
		defer close(res)
		if err := gracehttp.Serve(e.Server); err != nil {
			goapp.Log.Error().Err(err).Msg("can't start web server")
		}
		goapp.Log.Info().Msg("exit http routine")
	}()
	return res, nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("interview", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.GET("/live", live(data))
	e.GET("/client/ws/speech", subscribe(data, data.WSHandlerSpeech))
	e.POST("/generate", generate(data))
	e.POST("/evaluate", evaluate(data))
	e.GET("/transcripts/:id", transcript(data))
	e.GET("/evaluations/:id", evaluation(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func generate(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		var req api.GenerateRequest
		if err := c.Bind(&req); err != nil {
			goapp.Log.Error().Err(err).Msg("can't bind request")
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "can't parse request"})
		}
		questions, err := data.Questions.Generate(c.Request().Context(), req.JobDescription)
		if err != nil {
			goapp.Log.Error().Err(err).Msg("generate failed")
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, api.GenerateResponse{Questions: questions})
	}
}

func evaluate(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		var req api.EvaluateRequest
		if err := c.Bind(&req); err != nil {
			goapp.Log.Error().Err(err).Msg("can't bind request")
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "can't parse request"})
		}
		ev, err := data.Evaluator.Evaluate(c.Request().Context(), req.Question, req.Answer)
		if err != nil {
			if errors.Is(err, handlers.ErrEmptyInput) {
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Missing question or answer"})
			}
			goapp.Log.Error().Err(err).Msg("evaluate failed")
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		}
		id := ulid.Make().String()
		if err := data.Store.SaveEvaluation(c.Request().Context(), id, ev); err != nil {
			goapp.Log.Error().Err(err).Str("id", id).Msg("can't save evaluation")
		}
		goapp.Log.Info().Str("id", id).Msg("evaluation done")
		return c.JSON(http.StatusOK, api.EvaluateResponse{Evaluation: ev})
	}
}

func transcript(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		tr, err := data.Store.GetTranscript(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "not found"})
			}
			goapp.Log.Error().Err(err).Msg("can't get transcript")
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "can't get transcript"})
		}
		return c.JSON(http.StatusOK, api.Transcript{ID: tr.ID, Texts: tr.Texts})
	}
}

func evaluation(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ev, err := data.Store.GetEvaluation(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "not found"})
			}
			goapp.Log.Error().Err(err).Msg("can't get evaluation")
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "can't get evaluation"})
		}
		return c.JSON(http.StatusOK, api.EvaluateResponse{Evaluation: ev})
	}
}

func validate(data *Data) error {
	if data.WSHandlerSpeech == nil {
		return fmt.Errorf("no WSHandlerSpeech")
	}
	if data.Questions == nil {
		return fmt.Errorf("no Questions")
	}
	if data.Evaluator == nil {
		return fmt.Errorf("no Evaluator")
	}
	if data.Store == nil {
		return fmt.Errorf("no Store")
	}
	return nil
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func subscribe(data *Data, handler *WSSpeechHandler) func(echo.Context) error {
	return func(c echo.Context) error {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()

		return handler.HandleConnection(data.Ctx, ws, c.Request().URL.RawQuery)
	}
}
