package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/ai/openai"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		AppEnv:        "test",
		OpenAIAPIKey:  "test-key",
		OpenAIBaseURL: baseURL,
		OpenAIModel:   "gpt-4o-mini",
		AITimeout:     5 * time.Second,
	}
}

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestCompleteJSON_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])
		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse(`{"score":8}`)))
	}))
	defer srv.Close()

	c := openai.New(testConfig(srv.URL))
	out, err := c.CompleteJSON(context.Background(), "sys", "user", 100)
	require.NoError(t, err)
	assert.Equal(t, `{"score":8}`, out)
}

func TestCompleteJSON_RetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(chatResponse("ok")))
	}))
	defer srv.Close()

	c := openai.New(testConfig(srv.URL))
	out, err := c.CompleteJSON(context.Background(), "sys", "user", 100)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestCompleteJSON_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := openai.New(testConfig(srv.URL))
	_, err := c.CompleteJSON(context.Background(), "sys", "user", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAIUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not retry")
}

func TestCompleteJSON_EmptyChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := openai.New(testConfig(srv.URL))
	_, err := c.CompleteJSON(context.Background(), "sys", "user", 100)
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
}

func TestCompleteJSON_MissingKey(t *testing.T) {
	t.Parallel()
	cfg := testConfig("http://unused")
	cfg.OpenAIAPIKey = ""
	c := openai.New(cfg)
	_, err := c.CompleteJSON(context.Background(), "sys", "user", 100)
	assert.ErrorIs(t, err, domain.ErrAIUnavailable)
}
