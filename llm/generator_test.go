package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnconfigured(t *testing.T) {
	var g Generator = Unconfigured{}

	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	called := false
	err = g.Stream(context.Background(), "p", func(string) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrUpstream)
	assert.False(t, called)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	g, err := NewGemini(context.Background(), "", "gemini-1.5-flash")
	assert.Error(t, err)
	assert.Nil(t, g)
}
