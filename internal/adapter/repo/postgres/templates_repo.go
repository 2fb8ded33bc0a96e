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

// TemplateRepo persists the reusable question pool.
type TemplateRepo struct{ Pool PgxPool }

// NewTemplateRepo constructs a TemplateRepo with the given pool.
func NewTemplateRepo(p PgxPool) *TemplateRepo { return &TemplateRepo{Pool: p} }

const templateColumns = `id, difficulty, topic, prompt, expected_note, category, created_at`

// Upsert stores the template once per (prompt, difficulty), returning the
// stored row whether this call inserted it or an earlier one did.
func (r *TemplateRepo) Upsert(ctx context.Context, t domain.QuestionTemplate) (domain.QuestionTemplate, error) {
	tracer := otel.Tracer("repo.templates")
	ctx, span := tracer.Start(ctx, "templates.Upsert")
	defer span.End()

	id := t.ID
	if id == "" {
		id = uuid.New().String()
	}
	ins := `INSERT INTO question_templates (id, difficulty, topic, prompt, expected_note, category, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (prompt, difficulty) DO NOTHING`
	if _, err := r.Pool.Exec(ctx, ins, id, t.Difficulty, t.Topic, t.Prompt, t.ExpectedNote, t.Category, time.Now().UTC()); err != nil {
		return domain.QuestionTemplate{}, fmt.Errorf("op=template.upsert: %w", err)
	}

	sel := `SELECT ` + templateColumns + ` FROM question_templates WHERE prompt=$1 AND difficulty=$2`
	stored, err := scanTemplate(r.Pool.QueryRow(ctx, sel, t.Prompt, t.Difficulty))
	if err != nil {
		return domain.QuestionTemplate{}, fmt.Errorf("op=template.upsert: %w", err)
	}
	return stored, nil
}

// ListByDifficulty returns the pool for a difficulty, oldest first so slot
// arithmetic in the generator is stable.
func (r *TemplateRepo) ListByDifficulty(ctx context.Context, d domain.Difficulty) ([]domain.QuestionTemplate, error) {
	tracer := otel.Tracer("repo.templates")
	ctx, span := tracer.Start(ctx, "templates.ListByDifficulty")
	defer span.End()

	q := `SELECT ` + templateColumns + ` FROM question_templates WHERE difficulty=$1 ORDER BY created_at ASC`
	rows, err := r.Pool.Query(ctx, q, d)
	if err != nil {
		return nil, fmt.Errorf("op=template.list_by_difficulty: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("op=template.list_by_difficulty: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=template.list_by_difficulty: %w", err)
	}
	return out, nil
}

func scanTemplate(row pgx.Row) (domain.QuestionTemplate, error) {
	var t domain.QuestionTemplate
	err := row.Scan(&t.ID, &t.Difficulty, &t.Topic, &t.Prompt, &t.ExpectedNote, &t.Category, &t.CreatedAt)
	return t, err
}
