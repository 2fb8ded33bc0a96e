package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAIUnavailable   = errors.New("ai unavailable")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrNoQuestions     = errors.New("no questions available")
	ErrInternal        = errors.New("internal error")
)

// Difficulty tiers for interview questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// DifficultyScript is the fixed six-slot interview script.
var DifficultyScript = [6]Difficulty{
	DifficultyEasy, DifficultyEasy,
	DifficultyMedium, DifficultyMedium,
	DifficultyHard, DifficultyHard,
}

// TimeLimitSeconds returns the per-question answer window for a difficulty.
func TimeLimitSeconds(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 20
	case DifficultyMedium:
		return 60
	case DifficultyHard:
		return 120
	default:
		return 60
	}
}

// SlotsForDifficulty reports how many script slots a difficulty occupies.
func SlotsForDifficulty(d Difficulty) int {
	n := 0
	for _, s := range DifficultyScript {
		if s == d {
			n++
		}
	}
	return n
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
)

// MessageSender enumerates transcript senders.
type MessageSender string

const (
	SenderSystem      MessageSender = "SYSTEM"
	SenderAI          MessageSender = "AI"
	SenderInterviewee MessageSender = "INTERVIEWEE"
)

// Candidate identity; Email is the unique key, stored lowercased.
type Candidate struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	ResumeURL  string
	ResumeName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// InterviewSession is the linear six-question interview state.
// Invariants: CurrentQuestionIndex increases by exactly 1 per accepted answer
// and never exceeds len(DifficultyScript); Status transitions ACTIVE→COMPLETED
// exactly once.
type InterviewSession struct {
	ID                   string
	CandidateID          string
	Status               SessionStatus
	CurrentQuestionIndex int
	StartedAt            time.Time
	CompletedAt          *time.Time
	FinalScore           *float64
	Summary              *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// InterviewQuestion is one slot of a session's script. Immutable after create.
// TemplateID is set when sourced from the template pool, nil when AI-generated
// or drawn from the raw bank.
type InterviewQuestion struct {
	ID           string
	SessionID    string
	Order        int
	Difficulty   Difficulty
	Prompt       string
	ExpectedNote string
	TemplateID   *string
	CreatedAt    time.Time
}

// QuestionTemplate is a persisted reusable prompt, upserted idempotently by
// (prompt, difficulty).
type QuestionTemplate struct {
	ID           string
	Difficulty   Difficulty
	Topic        string
	Prompt       string
	ExpectedNote string
	Category     string
	CreatedAt    time.Time
}

// CandidateAnswer is the single accepted answer for a question; first answer
// wins, duplicates return the existing record.
type CandidateAnswer struct {
	ID            string
	QuestionID    string
	SessionID     string
	ResponseText  string
	TimeTakenSecs int
	AutoSubmitted bool
	Score         float64
	Feedback      string
	CreatedAt     time.Time
}

// ChatMessage is an append-only transcript entry.
type ChatMessage struct {
	ID        string
	SessionID string
	Sender    MessageSender
	Content   string
	Meta      map[string]any
	CreatedAt time.Time
}

// SessionView aggregates a session with its ordered children for API reads.
type SessionView struct {
	Session   InterviewSession
	Candidate Candidate
	Questions []InterviewQuestion
	Answers   []CandidateAnswer
	Messages  []ChatMessage
}

// CandidateListItem joins a candidate with its most recent session.
type CandidateListItem struct {
	Candidate     Candidate
	LatestSession *InterviewSession
}

// CandidateDetail is a candidate with full interview history, newest first.
type CandidateDetail struct {
	Candidate Candidate
	Sessions  []SessionView
}

// CandidateListFilter controls candidate listing. SortField is one of name,
// email, createdAt, updatedAt, finalScore; the finalScore sort is applied in
// application code over the derived latest session, not pushed to the store.
type CandidateListFilter struct {
	Search    string
	SortField string
	SortAsc   bool
}

// Repositories (ports)

type CandidateRepository interface {
	UpsertByEmail(ctx context.Context, c Candidate) (Candidate, error)
	Get(ctx context.Context, id string) (Candidate, error)
	List(ctx context.Context, f CandidateListFilter) ([]Candidate, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s InterviewSession) (string, error)
	Get(ctx context.Context, id string) (InterviewSession, error)
	// Advance moves the pointer and status; completedAt is stamped when the
	// terminal index is reached.
	Advance(ctx context.Context, id string, nextIndex int, status SessionStatus, completedAt *time.Time) error
	// Finalize stamps status, completion time, final score and summary.
	Finalize(ctx context.Context, id string, score float64, summary string, completedAt time.Time) error
	ListByCandidate(ctx context.Context, candidateID string) ([]InterviewSession, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, q InterviewQuestion) (string, error)
	ListBySession(ctx context.Context, sessionID string) ([]InterviewQuestion, error)
}

type TemplateRepository interface {
	// Upsert inserts the template unless one with the same (prompt,
	// difficulty) exists, returning the stored row either way.
	Upsert(ctx context.Context, t QuestionTemplate) (QuestionTemplate, error)
	ListByDifficulty(ctx context.Context, d Difficulty) ([]QuestionTemplate, error)
}

type AnswerRepository interface {
	// Create persists the answer unless the question already has one; the
	// pre-existing answer is returned with created=false (first writer wins).
	Create(ctx context.Context, a CandidateAnswer) (stored CandidateAnswer, created bool, err error)
	ListBySession(ctx context.Context, sessionID string) ([]CandidateAnswer, error)
	GetByQuestion(ctx context.Context, questionID string) (CandidateAnswer, error)
}

type MessageRepository interface {
	Append(ctx context.Context, m ChatMessage) (string, error)
	ListBySession(ctx context.Context, sessionID string) ([]ChatMessage, error)
}

// AIClient (port). CompleteJSON returns the provider's raw message content;
// callers extract and validate the embedded JSON object.
type AIClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// TextExtractor (port)
// ExtractPath extracts plain text from a file at path with the provided
// original filename. Implementations may call external services (e.g. Tika).
type TextExtractor interface {
	ExtractPath(ctx context.Context, fileName, path string) (string, error)
}

// SessionEvent is a lifecycle notification for interviewer tooling.
type SessionEvent struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	CandidateID string    `json:"candidate_id,omitempty"`
	QuestionID  string    `json:"question_id,omitempty"`
	Score       float64   `json:"score,omitempty"`
	FinalScore  float64   `json:"final_score,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Session event types.
const (
	EventSessionStarted   = "session.started"
	EventAnswerRecorded   = "answer.recorded"
	EventSessionCompleted = "session.completed"
)

// EventPublisher (port). Publishing is best-effort: failures are logged by
// callers, never surfaced to the interviewee.
type EventPublisher interface {
	Publish(ctx context.Context, ev SessionEvent) error
}
