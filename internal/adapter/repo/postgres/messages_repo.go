package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// MessageRepo persists the append-only session transcript. Meta is stored as
// JSONB.
type MessageRepo struct{ Pool PgxPool }

// NewMessageRepo constructs a MessageRepo with the given pool.
func NewMessageRepo(p PgxPool) *MessageRepo { return &MessageRepo{Pool: p} }

// Append inserts one transcript entry and returns its id.
func (r *MessageRepo) Append(ctx context.Context, m domain.ChatMessage) (string, error) {
	tracer := otel.Tracer("repo.messages")
	ctx, span := tracer.Start(ctx, "messages.Append")
	defer span.End()

	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	var meta []byte
	if m.Meta != nil {
		var err error
		meta, err = json.Marshal(m.Meta)
		if err != nil {
			return "", fmt.Errorf("op=message.append: marshal meta: %w", err)
		}
	}
	q := `INSERT INTO messages (id, session_id, sender, content, meta, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.Pool.Exec(ctx, q, id, m.SessionID, m.Sender, m.Content, meta, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=message.append: %w", err)
	}
	return id, nil
}

// ListBySession returns the transcript in insertion order.
func (r *MessageRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	tracer := otel.Tracer("repo.messages")
	ctx, span := tracer.Start(ctx, "messages.ListBySession")
	defer span.End()

	q := `SELECT id, session_id, sender, content, meta, created_at FROM messages WHERE session_id=$1 ORDER BY created_at ASC`
	rows, err := r.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("op=message.list_by_session: %w", err)
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("op=message.list_by_session: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=message.list_by_session: %w", err)
	}
	return out, nil
}

func scanMessage(row pgx.Row) (domain.ChatMessage, error) {
	var m domain.ChatMessage
	var meta []byte
	if err := row.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Content, &meta, &m.CreatedAt); err != nil {
		return domain.ChatMessage{}, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &m.Meta); err != nil {
			return domain.ChatMessage{}, fmt.Errorf("unmarshal meta: %w", err)
		}
	}
	return m, nil
}
