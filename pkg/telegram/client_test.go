package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.Form.Get("chat_id"))
		assert.Equal(t, "Получить Excel-файл", r.Form.Get("text"))
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, BotToken: "token123", ChatID: "42"})
	require.NoError(t, client.SendMessage(context.Background(), "Получить Excel-файл"))
}

func TestSendMessageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, BotToken: "token123", ChatID: "42"})
	err := client.SendMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestWaitForDocument(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottoken123/getUpdates", r.URL.Path)
		calls++
		switch calls {
		case 1:
			// Text-only update first; the poller must keep going.
			fmt.Fprint(w, `{"ok":true,"result":[{"update_id":10,"message":{"chat":{"id":42}}}]}`)
		default:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "11", r.Form.Get("offset"))
			fmt.Fprint(w, `{"ok":true,"result":[{"update_id":11,"message":{"chat":{"id":42},"document":{"file_id":"f1","file_name":"products.xlsx"}}}]}`)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, BotToken: "token123", ChatID: "42"})
	doc, offset, err := client.WaitForDocument(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "f1", doc.FileID)
	assert.Equal(t, "products.xlsx", doc.FileName)
	assert.EqualValues(t, 12, offset)
}

func TestWaitForDocumentSkipsOtherChats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":[`+
			`{"update_id":1,"message":{"chat":{"id":99},"document":{"file_id":"wrong"}}},`+
			`{"update_id":2,"message":{"chat":{"id":42},"document":{"file_id":"right"}}}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, BotToken: "token123", ChatID: "42"})
	doc, _, err := client.WaitForDocument(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "right", doc.FileID)
}

func TestWaitForDocumentContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(Config{BaseURL: server.URL, BotToken: "token123", ChatID: "42"})
	_, _, err := client.WaitForDocument(ctx, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDownloadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/bottoken123/getFile":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "f1", r.Form.Get("file_id"))
			fmt.Fprint(w, `{"ok":true,"result":{"file_path":"documents/products.xlsx"}}`)
		case strings.HasPrefix(r.URL.Path, "/file/bottoken123/"):
			assert.Equal(t, "/file/bottoken123/documents/products.xlsx", r.URL.Path)
			fmt.Fprint(w, "xlsx-bytes")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, BotToken: "token123", ChatID: "42"})
	data, err := client.DownloadFile(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx-bytes"), data)
}

func TestDownloadFileMissingPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, BotToken: "token123", ChatID: "42"})
	_, err := client.DownloadFile(context.Background(), "f1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no download path")
}
