// Package imagesearch finds product photos by scraping Bing image search
// results and filtering out links that do not resolve to a usable picture.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/errs"
)

const (
	// DefaultBaseURL is the Bing image search endpoint.
	DefaultBaseURL = "https://www.bing.com/images/search"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"
)

// Config carries the searcher settings.
type Config struct {
	BaseURL string
	// MaxResults caps how many validated URLs Search returns.
	MaxResults int
	Timeout    time.Duration
}

// Searcher scrapes image URLs for a text query.
type Searcher struct {
	httpClient *http.Client
	baseURL    string
	maxResults int
	validator  *Validator
}

// NewSearcher constructs a Searcher with sane defaults.
func NewSearcher(cfg Config) *Searcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &Searcher{
		httpClient: client,
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		validator:  NewValidator(client),
	}
}

// resultMeta is the JSON blob Bing embeds in the m attribute of each result
// anchor. Only the full-size URL matters here.
type resultMeta struct {
	MediaURL string `json:"murl"`
}

// Search returns up to MaxResults image URLs that passed validation, in the
// order the search engine ranked them. An empty slice with a nil error means
// the query produced no usable images.
func (s *Searcher) Search(ctx context.Context, query string) ([]string, error) {
	candidates, err := s.fetchCandidates(ctx, query)
	if err != nil {
		return nil, &errs.ImageSearchError{Query: query, Err: err}
	}

	urls := make([]string, 0, s.maxResults)
	for _, candidate := range candidates {
		if len(urls) >= s.maxResults {
			break
		}
		if err := s.validator.Validate(ctx, candidate); err != nil {
			log.Debug().Str("url", candidate).Err(err).Msg("image candidate rejected")
			continue
		}
		urls = append(urls, candidate)
	}
	return urls, nil
}

func (s *Searcher) fetchCandidates(ctx context.Context, query string) ([]string, error) {
	endpoint := s.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var candidates []string
	seen := make(map[string]struct{})
	doc.Find("a.iusc").Each(func(_ int, sel *goquery.Selection) {
		raw, ok := sel.Attr("m")
		if !ok {
			return
		}
		var meta resultMeta
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return
		}
		mediaURL := strings.TrimSpace(meta.MediaURL)
		if mediaURL == "" {
			return
		}
		if _, dup := seen[mediaURL]; dup {
			return
		}
		seen[mediaURL] = struct{}{}
		candidates = append(candidates, mediaURL)
	})
	return candidates, nil
}
