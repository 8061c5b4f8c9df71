package utils

import (
	"time"

	"github.com/airenas/go-app/pkg/goapp"
)

func MeasureTime(name string, start time.Time) {
	goapp.Log.Debug().Dur("elapsed", time.Since(start)).Str("func", name).Msg("time")
}
