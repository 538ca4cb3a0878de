package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assistantServer(t *testing.T, reply string, rateLimitFirst int32) *httptest.Server {
	t.Helper()
	var hits int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= rateLimitFirst {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads":
			assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))
			json.NewEncoder(w).Encode(map[string]string{"id": "thread_1"})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/runs"):
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "completed"})
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/runs/"):
			json.NewEncoder(w).Encode(map[string]string{"id": "run_1", "status": "completed"})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/messages"):
			w.Write([]byte(`{"data":[{"role":"assistant","content":[{"type":"text","text":{"value":` +
				encodeJSONString(reply) + `}}]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func encodeJSONString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func TestEnrich(t *testing.T) {
	reply := `{"dimensions":"28.1/21.5/0.6","weight":"0.68","vendor":"Apple","categoryId":"3","name":"Apple iPad Pro 12.9","description":"Планшет Apple iPad Pro"}`
	server := assistantServer(t, reply, 0)
	defer server.Close()

	client := NewClient(Config{
		BaseURL:      server.URL,
		APIKey:       "test",
		AssistantID:  "asst_1",
		PollInterval: time.Millisecond,
	})

	details, err := client.Enrich(context.Background(), "Apple iPad Pro 12.9 M2 128Gb")
	require.NoError(t, err)
	assert.Equal(t, "Apple", details.Vendor)
	assert.Equal(t, "3", details.CategoryID)
	assert.Equal(t, "Apple iPad Pro 12.9", details.Name)
	assert.Equal(t, "0.68", details.Weight)
}

func TestEnrichRetriesOnRateLimit(t *testing.T) {
	reply := `{"vendor":"Apple"}`
	server := assistantServer(t, reply, 1)
	defer server.Close()

	client := NewClient(Config{
		BaseURL:      server.URL,
		APIKey:       "test",
		AssistantID:  "asst_1",
		MaxAttempts:  3,
		PollInterval: time.Millisecond,
	})

	start := time.Now()
	details, err := client.Enrich(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "Apple", details.Vendor)
	assert.GreaterOrEqual(t, time.Since(start), time.Second, "must back off before retrying")
}

func TestEnrichGivesUpAfterMaxAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:      server.URL,
		APIKey:       "test",
		AssistantID:  "asst_1",
		MaxAttempts:  2,
		PollInterval: time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.Enrich(ctx, "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestEnrichTerminalErrorNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:      server.URL,
		APIKey:       "test",
		AssistantID:  "asst_1",
		MaxAttempts:  5,
		PollInterval: time.Millisecond,
	})

	_, err := client.Enrich(context.Background(), "anything")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}
