// Package memory provides an in-memory implementation of the repository
// ports. It backs unit tests and local development without Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// Store holds all interview state behind one mutex. Zero value is not usable;
// call New.
type Store struct {
	mu         sync.Mutex
	candidates map[string]domain.Candidate
	sessions   map[string]domain.InterviewSession
	questions  map[string]domain.InterviewQuestion
	templates  map[string]domain.QuestionTemplate
	answers    map[string]domain.CandidateAnswer
	messages   map[string]domain.ChatMessage
	seq        int
	now        func() time.Time
}

func New() *Store {
	return &Store{
		candidates: map[string]domain.Candidate{},
		sessions:   map[string]domain.InterviewSession{},
		questions:  map[string]domain.InterviewQuestion{},
		templates:  map[string]domain.QuestionTemplate{},
		answers:    map[string]domain.CandidateAnswer{},
		messages:   map[string]domain.ChatMessage{},
		now:        time.Now,
	}
}

// SetClock overrides the timestamp source, for deterministic tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// tick returns a strictly increasing timestamp so insertion order survives
// time-based sorts even within one wall-clock instant.
func (s *Store) tick() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Microsecond)
}

// CandidateRepository

func (s *Store) UpsertByEmail(_ context.Context, c domain.Candidate) (domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(c.Email)
	for id, existing := range s.candidates {
		if existing.Email == email {
			if c.Name != "" {
				existing.Name = c.Name
			}
			if c.Phone != "" {
				existing.Phone = c.Phone
			}
			if c.ResumeURL != "" {
				existing.ResumeURL = c.ResumeURL
			}
			if c.ResumeName != "" {
				existing.ResumeName = c.ResumeName
			}
			existing.UpdatedAt = s.tick()
			s.candidates[id] = existing
			return existing, nil
		}
	}
	c.ID = uuid.NewString()
	c.Email = email
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	s.candidates[c.ID] = c
	return c, nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return domain.Candidate{}, fmt.Errorf("candidate %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *Store) List(_ context.Context, f domain.CandidateListFilter) ([]domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(f.Search)
	var out []domain.Candidate
	for _, c := range s.candidates {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Email), needle) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		less := false
		switch f.SortField {
		case "name":
			less = out[i].Name < out[j].Name
		case "email":
			less = out[i].Email < out[j].Email
		case "createdAt":
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		default:
			less = out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		if f.SortAsc {
			return less
		}
		return !less
	})
	return out, nil
}

// SessionRepository

func (s *Store) Create(_ context.Context, sess domain.InterviewSession) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ID = uuid.NewString()
	sess.CreatedAt = s.tick()
	sess.UpdatedAt = sess.CreatedAt
	s.sessions[sess.ID] = sess
	return sess.ID, nil
}

func (s *Store) GetSession(_ context.Context, id string) (domain.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.InterviewSession{}, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

func (s *Store) Advance(_ context.Context, id string, nextIndex int, status domain.SessionStatus, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	sess.CurrentQuestionIndex = nextIndex
	sess.Status = status
	if completedAt != nil {
		t := *completedAt
		sess.CompletedAt = &t
	}
	sess.UpdatedAt = s.tick()
	s.sessions[id] = sess
	return nil
}

func (s *Store) Finalize(_ context.Context, id string, score float64, summary string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	sess.Status = domain.SessionCompleted
	sess.CompletedAt = &completedAt
	sess.FinalScore = &score
	sess.Summary = &summary
	sess.UpdatedAt = s.tick()
	s.sessions[id] = sess
	return nil
}

func (s *Store) ListByCandidate(_ context.Context, candidateID string) ([]domain.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.InterviewSession
	for _, sess := range s.sessions {
		if sess.CandidateID == candidateID {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// QuestionRepository

func (s *Store) CreateQuestion(_ context.Context, q domain.InterviewQuestion) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = uuid.NewString()
	q.CreatedAt = s.tick()
	s.questions[q.ID] = q
	return q.ID, nil
}

func (s *Store) ListQuestions(_ context.Context, sessionID string) ([]domain.InterviewQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.InterviewQuestion
	for _, q := range s.questions {
		if q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// TemplateRepository

func (s *Store) UpsertTemplate(_ context.Context, t domain.QuestionTemplate) (domain.QuestionTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.templates {
		if existing.Prompt == t.Prompt && existing.Difficulty == t.Difficulty {
			return existing, nil
		}
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.tick()
	s.templates[t.ID] = t
	return t, nil
}

func (s *Store) ListTemplates(_ context.Context, d domain.Difficulty) ([]domain.QuestionTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.QuestionTemplate
	for _, t := range s.templates {
		if t.Difficulty == d {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AnswerRepository

func (s *Store) CreateAnswer(_ context.Context, a domain.CandidateAnswer) (domain.CandidateAnswer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.answers {
		if existing.QuestionID == a.QuestionID {
			return existing, false, nil
		}
	}
	a.ID = uuid.NewString()
	a.CreatedAt = s.tick()
	s.answers[a.ID] = a
	return a, true, nil
}

func (s *Store) ListAnswers(_ context.Context, sessionID string) ([]domain.CandidateAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CandidateAnswer
	for _, a := range s.answers {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetAnswerByQuestion(_ context.Context, questionID string) (domain.CandidateAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			return a, nil
		}
	}
	return domain.CandidateAnswer{}, fmt.Errorf("answer for question %s: %w", questionID, domain.ErrNotFound)
}

// MessageRepository

func (s *Store) AppendMessage(_ context.Context, m domain.ChatMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = s.tick()
	s.messages[m.ID] = m
	return m.ID, nil
}

func (s *Store) ListMessages(_ context.Context, sessionID string) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
