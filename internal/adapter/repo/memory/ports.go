package memory

import (
	"context"
	"time"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// Per-port views over the shared store. The ports reuse method names
// (Create, Get, ListBySession) so one struct cannot satisfy them all.

type candidateRepo struct{ s *Store }
type sessionRepo struct{ s *Store }
type questionRepo struct{ s *Store }
type templateRepo struct{ s *Store }
type answerRepo struct{ s *Store }
type messageRepo struct{ s *Store }

func (s *Store) Candidates() domain.CandidateRepository { return candidateRepo{s} }
func (s *Store) Sessions() domain.SessionRepository     { return sessionRepo{s} }
func (s *Store) Questions() domain.QuestionRepository   { return questionRepo{s} }
func (s *Store) Templates() domain.TemplateRepository   { return templateRepo{s} }
func (s *Store) Answers() domain.AnswerRepository       { return answerRepo{s} }
func (s *Store) Messages() domain.MessageRepository     { return messageRepo{s} }

func (r candidateRepo) UpsertByEmail(ctx context.Context, c domain.Candidate) (domain.Candidate, error) {
	return r.s.UpsertByEmail(ctx, c)
}

func (r candidateRepo) Get(ctx context.Context, id string) (domain.Candidate, error) {
	return r.s.Get(ctx, id)
}

func (r candidateRepo) List(ctx context.Context, f domain.CandidateListFilter) ([]domain.Candidate, error) {
	return r.s.List(ctx, f)
}

func (r sessionRepo) Create(ctx context.Context, sess domain.InterviewSession) (string, error) {
	return r.s.Create(ctx, sess)
}

func (r sessionRepo) Get(ctx context.Context, id string) (domain.InterviewSession, error) {
	return r.s.GetSession(ctx, id)
}

func (r sessionRepo) Advance(ctx context.Context, id string, nextIndex int, status domain.SessionStatus, completedAt *time.Time) error {
	return r.s.Advance(ctx, id, nextIndex, status, completedAt)
}

func (r sessionRepo) Finalize(ctx context.Context, id string, score float64, summary string, completedAt time.Time) error {
	return r.s.Finalize(ctx, id, score, summary, completedAt)
}

func (r sessionRepo) ListByCandidate(ctx context.Context, candidateID string) ([]domain.InterviewSession, error) {
	return r.s.ListByCandidate(ctx, candidateID)
}

func (r questionRepo) Create(ctx context.Context, q domain.InterviewQuestion) (string, error) {
	return r.s.CreateQuestion(ctx, q)
}

func (r questionRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.InterviewQuestion, error) {
	return r.s.ListQuestions(ctx, sessionID)
}

func (r templateRepo) Upsert(ctx context.Context, t domain.QuestionTemplate) (domain.QuestionTemplate, error) {
	return r.s.UpsertTemplate(ctx, t)
}

func (r templateRepo) ListByDifficulty(ctx context.Context, d domain.Difficulty) ([]domain.QuestionTemplate, error) {
	return r.s.ListTemplates(ctx, d)
}

func (r answerRepo) Create(ctx context.Context, a domain.CandidateAnswer) (domain.CandidateAnswer, bool, error) {
	return r.s.CreateAnswer(ctx, a)
}

func (r answerRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.CandidateAnswer, error) {
	return r.s.ListAnswers(ctx, sessionID)
}

func (r answerRepo) GetByQuestion(ctx context.Context, questionID string) (domain.CandidateAnswer, error) {
	return r.s.GetAnswerByQuestion(ctx, questionID)
}

func (r messageRepo) Append(ctx context.Context, m domain.ChatMessage) (string, error) {
	return r.s.AppendMessage(ctx, m)
}

func (r messageRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	return r.s.ListMessages(ctx, sessionID)
}
