package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

const (
	aiQuestionAttempts = 2
	topicLabelMaxLen   = 80
)

// QuestionDraft is a candidate question produced by one of the sources before
// it is persisted as a domain.InterviewQuestion.
type QuestionDraft struct {
	Prompt          string
	ExpectedNote    string
	Topic           string
	TemplateID      *string
	Source          string
	Personalization string
}

// genState carries per-session generation bookkeeping shared by all sources.
type genState struct {
	resumeText      string
	insights        *Insights
	focusHints      []FocusArea
	askedTopics     []string
	usedTemplateIDs map[string]bool
	usedBankPrompts map[string]bool
	offsets         map[domain.Difficulty]int
	candidateName   string
}

func (st *genState) hintFor(slot int) *FocusArea {
	if len(st.focusHints) == 0 {
		return nil
	}
	h := st.focusHints[slot%len(st.focusHints)]
	return &h
}

func (st *genState) recordTopic(topic, prompt string) {
	label := strings.TrimSpace(topic)
	if label == "" {
		label = strings.TrimSpace(prompt)
		if len(label) > topicLabelMaxLen {
			label = label[:topicLabelMaxLen]
		}
	}
	if label != "" {
		st.askedTopics = append(st.askedTopics, label)
	}
}

// QuestionSource is one tier of the generation fallback chain. A (nil, nil)
// return means the source has nothing for this slot and the next tier runs.
type QuestionSource interface {
	TryProvide(ctx context.Context, d domain.Difficulty, slot int, st *genState) (*QuestionDraft, error)
}

// Generator produces the six scripted questions for a new session by walking
// its source chain in order for every slot.
type Generator struct {
	sources []QuestionSource
	rng     *rand.Rand
	log     *slog.Logger

	// Observe, when set, is called once per generated question with its source
	// tier and difficulty. Wiring installs the metrics recorder here.
	Observe func(source, difficulty string)
}

// NewGenerator wires the standard AI -> template pool -> static bank chain.
// rng drives the focus-hint shuffle and round-robin offsets; callers inject a
// seeded source in tests.
func NewGenerator(ai AIAssistant, templates domain.TemplateRepository, bank QuestionBank, rng *rand.Rand, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		sources: []QuestionSource{
			&aiSource{assistant: ai, log: log},
			&templateSource{repo: templates, bank: bank},
			&bankSource{bank: bank},
		},
		rng: rng,
		log: log,
	}
}

// GenerateQuestionsForSession builds all six questions for the session, in
// script order. It either returns a full set or fails without partial output.
func (g *Generator) GenerateQuestionsForSession(ctx context.Context, session domain.InterviewSession, candidateName, resumeText string, insights *Insights) ([]domain.InterviewQuestion, error) {
	st := &genState{
		resumeText:      resumeText,
		insights:        insights,
		candidateName:   candidateName,
		usedTemplateIDs: map[string]bool{},
		usedBankPrompts: map[string]bool{},
		offsets:         map[domain.Difficulty]int{},
	}
	if insights != nil && len(insights.FocusAreas) > 0 {
		st.focusHints = append([]FocusArea(nil), insights.FocusAreas...)
		g.rng.Shuffle(len(st.focusHints), func(i, j int) {
			st.focusHints[i], st.focusHints[j] = st.focusHints[j], st.focusHints[i]
		})
	}
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		st.offsets[d] = g.rng.Intn(64)
	}

	questions := make([]domain.InterviewQuestion, 0, len(domain.DifficultyScript))
	for slot, d := range domain.DifficultyScript {
		draft, err := g.provide(ctx, d, slot, st)
		if err != nil {
			return nil, err
		}
		st.recordTopic(draft.Topic, draft.Prompt)
		questions = append(questions, domain.InterviewQuestion{
			SessionID:    session.ID,
			Order:        slot,
			Difficulty:   d,
			Prompt:       draft.Prompt,
			ExpectedNote: draft.ExpectedNote,
			TemplateID:   draft.TemplateID,
		})
		if g.Observe != nil {
			g.Observe(draft.Source, string(d))
		}
		g.log.Debug("question generated",
			slog.String("session_id", session.ID),
			slog.Int("slot", slot),
			slog.String("difficulty", string(d)),
			slog.String("source", draft.Source))
	}
	return questions, nil
}

func (g *Generator) provide(ctx context.Context, d domain.Difficulty, slot int, st *genState) (*QuestionDraft, error) {
	for _, src := range g.sources {
		draft, err := src.TryProvide(ctx, d, slot, st)
		if err != nil {
			return nil, err
		}
		if draft != nil {
			return draft, nil
		}
	}
	return nil, fmt.Errorf("op=generator.provide difficulty=%s slot=%d: %w", d, slot, domain.ErrNoQuestions)
}

// aiSource attempts personalized generation, bounded to aiQuestionAttempts
// per slot. Any failure falls through to the next tier.
type aiSource struct {
	assistant AIAssistant
	log       *slog.Logger
}

func (s *aiSource) TryProvide(ctx context.Context, d domain.Difficulty, slot int, st *genState) (*QuestionDraft, error) {
	if !s.assistant.Enabled() {
		return nil, nil
	}
	in := GenerateQuestionInput{
		Difficulty:    d,
		ResumeText:    st.resumeText,
		AskedTopics:   st.askedTopics,
		CandidateName: st.candidateName,
		Insights:      st.insights,
		FocusHint:     st.hintFor(slot),
	}
	var lastErr error
	for attempt := 1; attempt <= aiQuestionAttempts; attempt++ {
		gq, err := s.assistant.GenerateQuestion(ctx, in)
		if err == nil {
			return &QuestionDraft{
				Prompt:          gq.Prompt,
				ExpectedNote:    gq.ExpectedNote,
				Topic:           gq.Topic,
				Source:          "ai",
				Personalization: gq.Personalization,
			}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
	}
	s.log.Warn("ai question generation failed, falling back",
		slog.String("difficulty", string(d)),
		slog.Int("slot", slot),
		slog.Any("error", lastErr))
	return nil, nil
}

// templateSource serves from the persisted QuestionTemplate pool, backfilling
// it from the static bank on first use per difficulty.
type templateSource struct {
	repo domain.TemplateRepository
	bank QuestionBank
}

func (s *templateSource) TryProvide(ctx context.Context, d domain.Difficulty, slot int, st *genState) (*QuestionDraft, error) {
	if s.repo == nil {
		return nil, nil
	}
	pool, err := s.ensurePool(ctx, d)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	chosen := pickTemplate(pool, st, d, slot)
	st.usedTemplateIDs[chosen.ID] = true
	id := chosen.ID
	return &QuestionDraft{
		Prompt:       chosen.Prompt,
		ExpectedNote: chosen.ExpectedNote,
		Topic:        chosen.Topic,
		TemplateID:   &id,
		Source:       "template",
	}, nil
}

func (s *templateSource) ensurePool(ctx context.Context, d domain.Difficulty) ([]domain.QuestionTemplate, error) {
	pool, err := s.repo.ListByDifficulty(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("op=generator.ensure_pool: %w", err)
	}
	want := domain.SlotsForDifficulty(d)
	if len(pool) >= want {
		return pool, nil
	}
	for _, bq := range s.bank.ForDifficulty(d) {
		if _, err := s.repo.Upsert(ctx, domain.QuestionTemplate{
			Difficulty:   d,
			Topic:        bq.Topic,
			Prompt:       bq.Prompt,
			ExpectedNote: bq.Expected,
			Category:     "bank",
		}); err != nil {
			return nil, fmt.Errorf("op=generator.ensure_pool: %w", err)
		}
	}
	pool, err = s.repo.ListByDifficulty(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("op=generator.ensure_pool: %w", err)
	}
	return pool, nil
}

func pickTemplate(pool []domain.QuestionTemplate, st *genState, d domain.Difficulty, slot int) domain.QuestionTemplate {
	if hint := st.hintFor(slot); hint != nil {
		needle := strings.ToLower(hint.Topic)
		for _, t := range pool {
			if st.usedTemplateIDs[t.ID] {
				continue
			}
			if templateMatches(t, needle) {
				return t
			}
		}
	}
	for _, t := range pool {
		if !st.usedTemplateIDs[t.ID] {
			return t
		}
	}
	return pool[(st.offsets[d]+slot)%len(pool)]
}

func templateMatches(t domain.QuestionTemplate, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(t.Prompt), needle) ||
		strings.Contains(strings.ToLower(t.ExpectedNote), needle) ||
		strings.Contains(strings.ToLower(t.Topic), needle)
}

// bankSource is the last-resort tier serving straight from the embedded bank,
// tracked by prompt text since bank entries carry no persisted id.
type bankSource struct {
	bank QuestionBank
}

func (s *bankSource) TryProvide(_ context.Context, d domain.Difficulty, slot int, st *genState) (*QuestionDraft, error) {
	entries := s.bank.ForDifficulty(d)
	if len(entries) == 0 {
		return nil, nil
	}
	chosen := pickBankQuestion(entries, st, d, slot)
	st.usedBankPrompts[chosen.Prompt] = true
	return &QuestionDraft{
		Prompt:       chosen.Prompt,
		ExpectedNote: chosen.Expected,
		Topic:        chosen.Topic,
		Source:       "bank",
	}, nil
}

func pickBankQuestion(entries []BankQuestion, st *genState, d domain.Difficulty, slot int) BankQuestion {
	if hint := st.hintFor(slot); hint != nil {
		needle := strings.ToLower(hint.Topic)
		for _, q := range entries {
			if st.usedBankPrompts[q.Prompt] {
				continue
			}
			if bankMatches(q, needle) {
				return q
			}
		}
	}
	if st.insights != nil {
		for _, skill := range st.insights.Skills {
			needle := strings.ToLower(skill)
			for _, q := range entries {
				if st.usedBankPrompts[q.Prompt] {
					continue
				}
				if bankMatches(q, needle) {
					return q
				}
			}
		}
	}
	for _, q := range entries {
		if !st.usedBankPrompts[q.Prompt] {
			return q
		}
	}
	return entries[(st.offsets[d]+slot)%len(entries)]
}

func bankMatches(q BankQuestion, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(q.Topic), needle) ||
		strings.Contains(strings.ToLower(q.Prompt), needle) ||
		strings.Contains(strings.ToLower(q.Expected), needle)
}
