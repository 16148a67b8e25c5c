package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) Config {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.TimeoutMs = 2000
	cfg.MaxRetries = 0
	return cfg
}

func TestChatClient_GenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3.2","choices":[{"message":{"role":"assistant","content":"{\"task_priorities\":{}}"}}]}`))
	}))
	defer srv.Close()

	client := NewChatClient(testConfig(srv.URL), nil)
	resp, err := client.Generate(context.Background(), GenerateRequest{
		SystemPrompt: "score tasks",
		UserPrompt:   "context",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"task_priorities":{}}`, resp.Text)
	assert.Equal(t, "llama3.2", resp.Model)
}

func TestChatClient_AuthFailureNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3
	client := NewChatClient(cfg, nil)

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, 1, calls)
}

func TestChatClient_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewChatClient(testConfig(srv.URL), nil)
	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestChatClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.TimeoutMs = 50
	client := NewChatClient(cfg, nil)

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestChatClient_ServerErrorExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2
	client := NewChatClient(cfg, nil)

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 3, calls)
}

func TestChatClient_ObserverSeesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var got CallEvent
	obs := observerFunc(func(e CallEvent) { got = e })
	client := NewChatClient(testConfig(srv.URL), obs)

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "x"})

	require.Error(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "RATE_LIMITED", got.ErrorCode)
}

func TestChatClient_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewChatClient(testConfig(srv.URL), nil)
	assert.True(t, client.Available(context.Background()))

	srv.Close()
	assert.False(t, client.Available(context.Background()))
}

type observerFunc func(CallEvent)

func (f observerFunc) OnCallComplete(e CallEvent) { f(e) }
