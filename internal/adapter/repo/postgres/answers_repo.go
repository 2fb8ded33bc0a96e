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

// AnswerRepo persists accepted answers, at most one per question.
type AnswerRepo struct{ Pool PgxPool }

// NewAnswerRepo constructs an AnswerRepo with the given pool.
func NewAnswerRepo(p PgxPool) *AnswerRepo { return &AnswerRepo{Pool: p} }

const answerColumns = `id, question_id, session_id, response_text, time_taken_secs, auto_submitted, score, feedback, created_at`

// Create inserts the answer unless the question already has one. The unique
// index on question_id decides the winner under concurrent submits; losers
// get the stored row back with created=false.
func (r *AnswerRepo) Create(ctx context.Context, a domain.CandidateAnswer) (domain.CandidateAnswer, bool, error) {
	tracer := otel.Tracer("repo.answers")
	ctx, span := tracer.Start(ctx, "answers.Create")
	defer span.End()

	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	ins := `INSERT INTO answers (id, question_id, session_id, response_text, time_taken_secs, auto_submitted, score, feedback, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (question_id) DO NOTHING`
	tag, err := r.Pool.Exec(ctx, ins, id, a.QuestionID, a.SessionID, a.ResponseText, a.TimeTakenSecs, a.AutoSubmitted, a.Score, a.Feedback, now)
	if err != nil {
		return domain.CandidateAnswer{}, false, fmt.Errorf("op=answer.create: %w", err)
	}
	if tag.RowsAffected() == 1 {
		a.ID = id
		a.CreatedAt = now
		return a, true, nil
	}

	stored, err := r.GetByQuestion(ctx, a.QuestionID)
	if err != nil {
		return domain.CandidateAnswer{}, false, fmt.Errorf("op=answer.create: %w", err)
	}
	return stored, false, nil
}

// ListBySession returns the session's answers in submission order.
func (r *AnswerRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.CandidateAnswer, error) {
	tracer := otel.Tracer("repo.answers")
	ctx, span := tracer.Start(ctx, "answers.ListBySession")
	defer span.End()

	q := `SELECT ` + answerColumns + ` FROM answers WHERE session_id=$1 ORDER BY created_at ASC`
	rows, err := r.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("op=answer.list_by_session: %w", err)
	}
	defer rows.Close()

	var out []domain.CandidateAnswer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("op=answer.list_by_session: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=answer.list_by_session: %w", err)
	}
	return out, nil
}

// GetByQuestion loads the accepted answer for a question.
func (r *AnswerRepo) GetByQuestion(ctx context.Context, questionID string) (domain.CandidateAnswer, error) {
	tracer := otel.Tracer("repo.answers")
	ctx, span := tracer.Start(ctx, "answers.GetByQuestion")
	defer span.End()

	q := `SELECT ` + answerColumns + ` FROM answers WHERE question_id=$1`
	a, err := scanAnswer(r.Pool.QueryRow(ctx, q, questionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.CandidateAnswer{}, fmt.Errorf("op=answer.get_by_question: %w", domain.ErrNotFound)
		}
		return domain.CandidateAnswer{}, fmt.Errorf("op=answer.get_by_question: %w", err)
	}
	return a, nil
}

func scanAnswer(row pgx.Row) (domain.CandidateAnswer, error) {
	var a domain.CandidateAnswer
	err := row.Scan(&a.ID, &a.QuestionID, &a.SessionID, &a.ResponseText, &a.TimeTakenSecs, &a.AutoSubmitted, &a.Score, &a.Feedback, &a.CreatedAt)
	return a, err
}
