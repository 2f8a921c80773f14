// Package llm talks to the hosted generative model.
package llm

import (
	"context"
	"errors"
)

// ErrUpstream wraps every failure that originates at the model provider.
var ErrUpstream = errors.New("upstream model error")

// Generator produces text for a prompt, either in one piece or as a stream
// of chunks delivered in arrival order.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, onChunk func(string) error) error
}

// Unconfigured stands in when no API key is set. Every call fails with
// ErrUpstream so the HTTP surface still starts and reports the cause.
type Unconfigured struct{}

var errNoAPIKey = errors.New("GEMINI_API_KEY is not set")

func (Unconfigured) Generate(context.Context, string) (string, error) {
	return "", errors.Join(ErrUpstream, errNoAPIKey)
}

func (Unconfigured) Stream(context.Context, string, func(string) error) error {
	return errors.Join(ErrUpstream, errNoAPIKey)
}
