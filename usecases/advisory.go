package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"crop-advisor/advisory"
	"crop-advisor/cache"
	"crop-advisor/llm"
	"crop-advisor/metrics"
)

// StreamRetryWarning is sent when a stream breaks and the answer is fetched
// again in one piece.
const StreamRetryWarning = "⚠️ stream interrupted, retrying without streaming"

type EventType string

const (
	EventChunk   EventType = "chunk"
	EventWarning EventType = "warning"
	EventResult  EventType = "result"
	EventError   EventType = "error"
)

// Event is one step of a streamed advisory.
type Event struct {
	Type   EventType        `json:"type"`
	Text   string           `json:"text,omitempty"`
	Result *advisory.Result `json:"result,omitempty"`
}

type AdvisoryUseCase struct {
	gen     llm.Generator
	cache   cache.Store
	metrics *metrics.Metrics
	region  string
	log     *slog.Logger
}

// NewAdvisoryUseCase takes a nil store to run without caching.
func NewAdvisoryUseCase(gen llm.Generator, store cache.Store, m *metrics.Metrics, region string, log *slog.Logger) *AdvisoryUseCase {
	return &AdvisoryUseCase{gen: gen, cache: store, metrics: m, region: region, log: log}
}

// Prompt normalizes raw input and renders the prompt for it.
func (uc *AdvisoryUseCase) Prompt(raw map[string]any) (advisory.Request, string) {
	req := advisory.Normalize(raw)
	prompt := advisory.BuildPrompt(req, uc.region)
	uc.log.Debug("prompt built", "prompt", prompt)
	return req, prompt
}

// Advise returns a cached result when there is one and otherwise asks the
// model, retrying a failed call once.
func (uc *AdvisoryUseCase) Advise(ctx context.Context, raw map[string]any) (advisory.Result, error) {
	_, prompt := uc.Prompt(raw)
	key := advisory.PromptKey(prompt)

	if res, ok := uc.lookup(ctx, key); ok {
		return res, nil
	}

	text, err := uc.generate(ctx, prompt)
	if err != nil {
		return advisory.Result{}, err
	}
	res, err := advisory.Parse(text)
	if err != nil {
		return advisory.Result{}, err
	}
	uc.remember(ctx, key, res)
	return res, nil
}

// Stream forwards model chunks to emit in arrival order and finishes with a
// result event. A broken stream gets a warning event and one non-streamed
// retry; if that fails too an error event is emitted and an *UpstreamError
// returned. Errors returned by emit end the call at once.
func (uc *AdvisoryUseCase) Stream(ctx context.Context, raw map[string]any, emit func(Event) error) error {
	_, prompt := uc.Prompt(raw)
	key := advisory.PromptKey(prompt)

	var (
		buf     strings.Builder
		emitErr error
	)
	err := uc.gen.Stream(ctx, prompt, func(chunk string) error {
		buf.WriteString(chunk)
		if err := emit(Event{Type: EventChunk, Text: chunk}); err != nil {
			emitErr = err
			return err
		}
		return nil
	})
	if emitErr != nil {
		return fmt.Errorf("emit chunk: %w", emitErr)
	}
	uc.metrics.UpstreamCall("stream", err)

	text := buf.String()
	if err != nil {
		uc.log.Warn("stream interrupted, retrying without streaming", "error", err, "received_bytes", len(text))
		if err := emit(Event{Type: EventWarning, Text: StreamRetryWarning}); err != nil {
			return fmt.Errorf("emit warning: %w", err)
		}

		text, err = uc.gen.Generate(ctx, prompt)
		uc.metrics.UpstreamCall("generate", err)
		if err != nil {
			uc.log.Error("model call failed after retry", "error", err)
			_ = emit(Event{Type: EventError, Text: "Internal Server Error: " + err.Error()})
			return &UpstreamError{Err: err}
		}
		if text != "" {
			if err := emit(Event{Type: EventChunk, Text: text}); err != nil {
				return fmt.Errorf("emit chunk: %w", err)
			}
		}
	}

	res, err := advisory.Parse(text)
	if errors.Is(err, advisory.ErrEmptyResponse) {
		return emit(Event{Type: EventWarning, Text: advisory.EmptyResponseWarning})
	}
	if err != nil {
		return err
	}
	uc.remember(ctx, key, res)
	return emit(Event{Type: EventResult, Result: &res})
}

func (uc *AdvisoryUseCase) generate(ctx context.Context, prompt string) (string, error) {
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		var text string
		text, err = uc.gen.Generate(ctx, prompt)
		uc.metrics.UpstreamCall("generate", err)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			break
		}
		uc.log.Warn("model call failed", "attempt", attempt, "error", err)
	}
	uc.log.Error("model call failed after retry", "error", err)
	return "", &UpstreamError{Err: err}
}

func (uc *AdvisoryUseCase) lookup(ctx context.Context, key string) (advisory.Result, bool) {
	if uc.cache == nil {
		return advisory.Result{}, false
	}
	res, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.log.Warn("cache lookup failed", "error", err)
	}
	uc.metrics.CacheLookup(ok)
	return res, ok
}

func (uc *AdvisoryUseCase) remember(ctx context.Context, key string, res advisory.Result) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, res); err != nil {
		uc.log.Warn("cache store failed", "error", err)
	}
}
