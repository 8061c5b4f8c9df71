package domain

import "errors"

var ErrNotFound = errors.New("not found")

type Transcript struct {
	ID    string   `json:"id"`
	Texts []string `json:"texts"`
}
