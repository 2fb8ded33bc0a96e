package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// CandidateRepo persists candidates keyed by lowercased email.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

const candidateColumns = `id, name, email, phone, resume_url, resume_name, created_at, updated_at`

// UpsertByEmail inserts a candidate or refreshes an existing row with the same
// email. Empty incoming fields leave the stored values untouched.
func (r *CandidateRepo) UpsertByEmail(ctx context.Context, c domain.Candidate) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.UpsertByEmail")
	defer span.End()

	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO candidates (id, name, email, phone, resume_url, resume_name, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name,''), candidates.name),
			phone = COALESCE(NULLIF(EXCLUDED.phone,''), candidates.phone),
			resume_url = COALESCE(NULLIF(EXCLUDED.resume_url,''), candidates.resume_url),
			resume_name = COALESCE(NULLIF(EXCLUDED.resume_name,''), candidates.resume_name),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + candidateColumns
	row := r.Pool.QueryRow(ctx, q, id, c.Name, strings.ToLower(c.Email), c.Phone, c.ResumeURL, c.ResumeName, now)
	stored, err := scanCandidate(row)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("op=candidate.upsert: %w", err)
	}
	return stored, nil
}

// Get loads a candidate by id.
func (r *CandidateRepo) Get(ctx context.Context, id string) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Get")
	defer span.End()

	q := `SELECT ` + candidateColumns + ` FROM candidates WHERE id=$1`
	stored, err := scanCandidate(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", domain.ErrNotFound)
		}
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", err)
	}
	return stored, nil
}

// List returns candidates matching the filter. Name, email and timestamp
// sorts happen here; finalScore ordering is applied by the caller over the
// derived latest session.
func (r *CandidateRepo) List(ctx context.Context, f domain.CandidateListFilter) ([]domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.List")
	defer span.End()

	column := "updated_at"
	switch f.SortField {
	case "name":
		column = "name"
	case "email":
		column = "email"
	case "createdAt":
		column = "created_at"
	}
	direction := "DESC"
	if f.SortAsc {
		direction = "ASC"
	}

	q := `SELECT ` + candidateColumns + ` FROM candidates
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR email ILIKE '%'||$1||'%')
		ORDER BY ` + column + ` ` + direction
	rows, err := r.Pool.Query(ctx, q, f.Search)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.list: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("op=candidate.list: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=candidate.list: %w", err)
	}
	return out, nil
}

func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.ResumeURL, &c.ResumeName, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
