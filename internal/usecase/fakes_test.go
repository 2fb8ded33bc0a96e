package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

// scriptedAI replays canned provider responses in order. A nil entry in errs
// means that call succeeds with the matching response.
type scriptedAI struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	systems   []string
	users     []string
}

func (f *scriptedAI) CompleteJSON(_ context.Context, systemPrompt, userPrompt string, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.systems = append(f.systems, systemPrompt)
	f.users = append(f.users, userPrompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("scripted ai exhausted")
}

// failingAI always errors, simulating a down provider.
type failingAI struct{}

func (failingAI) CompleteJSON(context.Context, string, string, int) (string, error) {
	return "", errors.New("provider unreachable")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Events() []domain.SessionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SessionEvent(nil), p.events...)
}

// newTestService wires an InterviewService over the in-memory store with the
// given AI client (nil disables AI) and a fixed RNG seed.
func newTestService(client domain.AIClient) (*usecase.InterviewService, *memory.Store, *recordingPublisher) {
	store := memory.New()
	assistant := usecase.NewAIAssistant(client, "test-model")
	bank := usecase.MustLoadQuestionBank()
	rng := rand.New(rand.NewSource(42))
	gen := usecase.NewGenerator(assistant, store.Templates(), *bank, rng, slog.Default())
	pub := &recordingPublisher{}
	svc := usecase.NewInterviewService(
		store.Candidates(), store.Sessions(), store.Questions(),
		store.Answers(), store.Messages(),
		gen, assistant, pub, nil, slog.Default(),
	)
	return svc, store, pub
}
