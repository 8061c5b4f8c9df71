package handlers

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
)

type Handler interface {
	Process(context.Context, string) (string, error)
}

// ListHandler passes text through a list of middleware. A failing
// middleware is skipped, the text continues unchanged.
type ListHandler struct {
	handlers []Handler
}

func NewListHandler() (*ListHandler, error) {
	res := &ListHandler{}
	return res, nil
}

func (sp *ListHandler) Process(ctx context.Context, text string) (string, error) {
	res := text
	for i, h := range sp.handlers {
		resNew, err := h.Process(ctx, res)
		if err != nil {
			goapp.Log.Error().Err(err).Int("handler", i).Msg("Can't process")
			continue
		}
		res = resNew
	}
	return res, nil
}

func (sp *ListHandler) Add(h Handler) {
	sp.handlers = append(sp.handlers, h)
}
