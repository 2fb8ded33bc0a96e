package redpanda

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

func TestNewPublisher_RequiresBrokers(t *testing.T) {
	t.Parallel()
	p, err := NewPublisher(nil, "")
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "no seed brokers")
}

func TestEnsureTopic_RejectsEmptyName(t *testing.T) {
	t.Parallel()
	err := ensureTopic(nil, "", 1, 1)
	require.Error(t, err)
}

func TestSessionEventWireShape(t *testing.T) {
	t.Parallel()
	ev := domain.SessionEvent{
		Type:       domain.EventAnswerRecorded,
		SessionID:  "sess-1",
		QuestionID: "q-3",
		Score:      7.25,
		OccurredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "answer.recorded", decoded["type"])
	assert.Equal(t, "sess-1", decoded["session_id"])
	assert.Equal(t, 7.25, decoded["score"])
	assert.NotContains(t, decoded, "candidate_id", "empty optional fields are omitted")
}

func TestPublisher_Close_NilClient(t *testing.T) {
	t.Parallel()
	p := &Publisher{}
	assert.NoError(t, p.Close())
}
