package imagesearch

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	maxURLLength = 512
	maxImageSize = 10 << 20 // 10 MiB
	minDimension = 300
)

var allowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Validator checks that an image URL points at a picture worth putting on a
// product card: reachable, a supported format, not oversized and not a
// thumbnail.
type Validator struct {
	httpClient *http.Client
}

// NewValidator wraps the given HTTP client.
func NewValidator(client *http.Client) *Validator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Validator{httpClient: client}
}

// Validate returns nil when the URL passes every check. Failures carry the
// first violated rule.
func (v *Validator) Validate(ctx context.Context, rawURL string) error {
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("url longer than %d characters", maxURLLength)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	if err := v.checkHead(ctx, rawURL); err != nil {
		return err
	}
	return v.checkDimensions(ctx, rawURL)
}

func (v *Validator) checkHead(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("head request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("head returned %s", resp.Status)
	}

	mimeType := resp.Header.Get("Content-Type")
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if _, ok := allowedMIMETypes[mimeType]; !ok {
		return fmt.Errorf("unsupported content type %q", mimeType)
	}

	if resp.ContentLength > maxImageSize {
		return fmt.Errorf("image is %d bytes, limit is %d", resp.ContentLength, maxImageSize)
	}
	return nil
}

func (v *Validator) checkDimensions(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get returned %s", resp.Status)
	}

	cfg, _, err := image.DecodeConfig(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width < minDimension || cfg.Height < minDimension {
		return fmt.Errorf("image is %dx%d, need at least %dx%d", cfg.Width, cfg.Height, minDimension, minDimension)
	}
	return nil
}
