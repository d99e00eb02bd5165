package ai

import (
	"errors"
	"fmt"
)

var ErrUnavailable = errors.New("ai provider is not configured")

type StageName string

const (
	StageScreen StageName = "screen"
	StageRank   StageName = "rank"
)

// MalformedOutputError reports a model reply that did not match the stage's response schema.
type MalformedOutputError struct {
	Stage StageName
	Raw   string
	Err   error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed %s output: %v", e.Stage, e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

func malformed(stage StageName, raw string, err error) error {
	return &MalformedOutputError{Stage: stage, Raw: raw, Err: err}
}
