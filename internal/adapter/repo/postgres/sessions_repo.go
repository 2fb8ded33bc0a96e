package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// SessionRepo persists interview sessions.
type SessionRepo struct{ Pool PgxPool }

// NewSessionRepo constructs a SessionRepo with the given pool.
func NewSessionRepo(p PgxPool) *SessionRepo { return &SessionRepo{Pool: p} }

const sessionColumns = `id, candidate_id, status, current_question_index, started_at, completed_at, final_score, summary, created_at, updated_at`

// Create inserts a new session and returns its id.
func (r *SessionRepo) Create(ctx context.Context, s domain.InterviewSession) (string, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Create")
	defer span.End()

	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO sessions (id, candidate_id, status, current_question_index, started_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)`
	_, err := r.Pool.Exec(ctx, q, id, s.CandidateID, s.Status, s.CurrentQuestionIndex, s.StartedAt, now)
	if err != nil {
		return "", fmt.Errorf("op=session.create: %w", err)
	}
	return id, nil
}

// Get loads a session by id.
func (r *SessionRepo) Get(ctx context.Context, id string) (domain.InterviewSession, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Get")
	defer span.End()

	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE id=$1`
	s, err := scanSession(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.InterviewSession{}, fmt.Errorf("op=session.get: %w", domain.ErrNotFound)
		}
		return domain.InterviewSession{}, fmt.Errorf("op=session.get: %w", err)
	}
	return s, nil
}

// Advance moves the question pointer and status. completedAt is only written
// when provided so re-runs cannot clear the completion stamp.
func (r *SessionRepo) Advance(ctx context.Context, id string, nextIndex int, status domain.SessionStatus, completedAt *time.Time) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Advance")
	defer span.End()

	q := `UPDATE sessions SET current_question_index=$2, status=$3, completed_at=COALESCE($4, completed_at), updated_at=$5 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, nextIndex, status, completedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=session.advance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=session.advance: %w", domain.ErrNotFound)
	}
	return nil
}

// Finalize stamps the terminal state of a session.
func (r *SessionRepo) Finalize(ctx context.Context, id string, score float64, summary string, completedAt time.Time) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Finalize")
	defer span.End()

	q := `UPDATE sessions SET status=$2, completed_at=$3, final_score=$4, summary=$5, updated_at=$6 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, domain.SessionCompleted, completedAt, score, summary, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=session.finalize: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=session.finalize: %w", domain.ErrNotFound)
	}
	return nil
}

// ListByCandidate returns a candidate's sessions, newest first.
func (r *SessionRepo) ListByCandidate(ctx context.Context, candidateID string) ([]domain.InterviewSession, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.ListByCandidate")
	defer span.End()

	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE candidate_id=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, candidateID)
	if err != nil {
		return nil, fmt.Errorf("op=session.list_by_candidate: %w", err)
	}
	defer rows.Close()

	var out []domain.InterviewSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("op=session.list_by_candidate: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=session.list_by_candidate: %w", err)
	}
	return out, nil
}

func scanSession(row pgx.Row) (domain.InterviewSession, error) {
	var s domain.InterviewSession
	err := row.Scan(&s.ID, &s.CandidateID, &s.Status, &s.CurrentQuestionIndex, &s.StartedAt,
		&s.CompletedAt, &s.FinalScore, &s.Summary, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
