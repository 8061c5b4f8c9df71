package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/db"
	"github.com/augisz/interview-trainer/internal/handlers"
	"github.com/augisz/interview-trainer/internal/llm"
	"github.com/augisz/interview-trainer/internal/recognizer"
	"github.com/augisz/interview-trainer/internal/service"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	creds, err := loadCredentials(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't load speech credentials")
	}
	rec, err := recognizer.NewGoogleRecognizer(ctx, creds)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init speech recognizer")
	}
	defer rec.Close()

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init generation backend")
	}

	store, err := newStore(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init store")
	}

	data := &service.Data{}
	data.Ctx = ctx
	data.Port = cfg.GetInt("port")
	data.Store = store

	wsHandler := service.NewWSSpeechHandler(rec, store, cfg.GetDuration("session.timeout"))
	hList, err := handlers.NewListHandler()
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init list handler")
	}
	hList.Add(handlers.NewCleaner())
	wsHandler.Middleware = hList
	data.WSHandlerSpeech = wsHandler

	questions, err := handlers.NewQuestions(generator)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init questions handler")
	}
	data.Questions = questions

	evaluator, err := handlers.NewEvaluator(generator)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init evaluator")
	}
	data.Evaluator = evaluator

	doneCh, err := service.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}

	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func loadCredentials(cfg *viper.Viper) ([]byte, error) {
	credsB64 := cfg.GetString("google.credentials")
	if credsB64 == "" {
		return nil, fmt.Errorf("no google.credentials")
	}
	creds, err := base64.StdEncoding.DecodeString(credsB64)
	if err != nil {
		return nil, fmt.Errorf("decode google.credentials: %w", err)
	}
	return creds, nil
}

func newGenerator(ctx context.Context, cfg *viper.Viper) (llm.Generator, error) {
	backend := cfg.GetString("llm.backend")
	switch backend {
	case "", "gemini":
		return llm.NewGemini(ctx, cfg.GetString("gemini.key"), cfg.GetString("gemini.model"))
	case "openai":
		return llm.NewOpenAI(cfg.GetString("openai.key"), cfg.GetString("openai.url"), cfg.GetString("openai.model"))
	}
	return nil, fmt.Errorf("unknown llm backend '%s'", backend)
}

func newStore(cfg *viper.Viper) (db.Store, error) {
	if url := cfg.GetString("redis.url"); url != "" {
		return db.NewRedisStore(url, cfg.GetString("redis.key"))
	}
	goapp.Log.Info().Msg("No redis.url, using in memory store")
	return db.NewMemoryStore(), nil
}

var (
	version = "DEV"
)

func printBanner() {
	banner :=
		`
    INTERVIEW TRAINER v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/augisz/interview-trainer"))
}
