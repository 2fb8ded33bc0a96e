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

// QuestionRepo persists the per-session question script.
type QuestionRepo struct{ Pool PgxPool }

// NewQuestionRepo constructs a QuestionRepo with the given pool.
func NewQuestionRepo(p PgxPool) *QuestionRepo { return &QuestionRepo{Pool: p} }

const questionColumns = `id, session_id, question_order, difficulty, prompt, expected_note, template_id, created_at`

// Create inserts one question slot and returns its id.
func (r *QuestionRepo) Create(ctx context.Context, q domain.InterviewQuestion) (string, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Create")
	defer span.End()

	id := q.ID
	if id == "" {
		id = uuid.New().String()
	}
	sql := `INSERT INTO questions (id, session_id, question_order, difficulty, prompt, expected_note, template_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.Pool.Exec(ctx, sql, id, q.SessionID, q.Order, q.Difficulty, q.Prompt, q.ExpectedNote, q.TemplateID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=question.create: %w", err)
	}
	return id, nil
}

// ListBySession returns the session's questions in script order.
func (r *QuestionRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.InterviewQuestion, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.ListBySession")
	defer span.End()

	sql := `SELECT ` + questionColumns + ` FROM questions WHERE session_id=$1 ORDER BY question_order ASC`
	rows, err := r.Pool.Query(ctx, sql, sessionID)
	if err != nil {
		return nil, fmt.Errorf("op=question.list_by_session: %w", err)
	}
	defer rows.Close()

	var out []domain.InterviewQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("op=question.list_by_session: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=question.list_by_session: %w", err)
	}
	return out, nil
}

func scanQuestion(row pgx.Row) (domain.InterviewQuestion, error) {
	var q domain.InterviewQuestion
	err := row.Scan(&q.ID, &q.SessionID, &q.Order, &q.Difficulty, &q.Prompt, &q.ExpectedNote, &q.TemplateID, &q.CreatedAt)
	return q, err
}
