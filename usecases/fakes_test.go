package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crop-advisor/logging"
	"crop-advisor/repositories"
	"crop-advisor/security"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

// fakeGenerator replays scripted answers. Each Generate call consumes one
// entry of generate; Stream sends chunks and then returns streamErr.
type fakeGenerator struct {
	mu        sync.Mutex
	generate  []genReply
	chunks    []string
	streamErr error
	prompts   []string
	calls     int
}

type genReply struct {
	text string
	err  error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.calls++
	if len(f.generate) == 0 {
		return "", errBoom
	}
	r := f.generate[0]
	f.generate = f.generate[1:]
	return r.text, r.err
}

func (f *fakeGenerator) Stream(_ context.Context, prompt string, onChunk func(string) error) error {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	chunks := f.chunks
	f.mu.Unlock()

	for _, c := range chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return f.streamErr
}

func (f *fakeGenerator) generateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newAuth(t *testing.T) (*AuthUseCase, repositories.UserRepository, *security.TokenManager) {
	t.Helper()
	tokens, err := security.NewTokenManager("test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	repo := repositories.NewUserMemRepository()
	return NewAuthUseCase(repo, security.NewBcryptHasher(bcrypt.MinCost), tokens, logging.Discard()), repo, tokens
}
