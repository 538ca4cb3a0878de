// Package telegram is a small bot API client used to pull the latest price
// list out of a supplier's Telegram chat: the bot asks for the file, waits
// for the document reply and downloads it.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the Telegram bot API root.
const DefaultBaseURL = "https://api.telegram.org"

// Config carries the bot credentials and target chat.
type Config struct {
	BaseURL  string
	BotToken string
	ChatID   string
	Timeout  time.Duration
}

// Client talks to the bot API for one chat.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
	chatID     string
}

// Document identifies a file attached to a chat message.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Document *Document `json:"document"`
	} `json:"message"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// NewClient constructs a Client with sane defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
	}
}

// SendMessage posts a plain text message to the configured chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", c.chatID)
	form.Set("text", text)

	_, err := c.call(ctx, "sendMessage", form)
	return err
}

// WaitForDocument long-polls chat updates until a message with an attached
// document arrives or the context expires. offset must be the value returned
// by the previous call (zero on first use) so updates are consumed once.
func (c *Client) WaitForDocument(ctx context.Context, offset int64) (*Document, int64, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, offset, ctx.Err()
		default:
		}

		form := url.Values{}
		form.Set("timeout", "30")
		if offset > 0 {
			form.Set("offset", strconv.FormatInt(offset, 10))
		}

		result, err := c.call(ctx, "getUpdates", form)
		if err != nil {
			return nil, offset, err
		}

		var updates []update
		if err := json.Unmarshal(result, &updates); err != nil {
			return nil, offset, fmt.Errorf("decode updates: %w", err)
		}

		for _, upd := range updates {
			offset = upd.UpdateID + 1
			if upd.Message == nil || upd.Message.Document == nil {
				continue
			}
			if c.chatID != "" && strconv.FormatInt(upd.Message.Chat.ID, 10) != c.chatID {
				continue
			}
			return upd.Message.Document, offset, nil
		}
	}
}

// DownloadFile fetches the document content by its file id.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	form := url.Values{}
	form.Set("file_id", fileID)

	result, err := c.call(ctx, "getFile", form)
	if err != nil {
		return nil, err
	}

	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(result, &file); err != nil {
		return nil, fmt.Errorf("decode file info: %w", err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("file %s has no download path", fileID)
	}

	endpoint := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.botToken, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download error: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) call(ctx context.Context, method string, form url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram error: %s", resp.Status)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram rejected %s: %s", method, parsed.Description)
	}
	return parsed.Result, nil
}
