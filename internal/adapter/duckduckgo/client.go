// Package duckduckgo implements visuals.ImageSearcher against the
// DuckDuckGo image search endpoints.
package duckduckgo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/couchcryptid/disaster-hotspots/internal/visuals"
)

const (
	defaultBaseURL = "https://duckduckgo.com"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) disaster-hotspots/1.0"
	maxPageBytes   = 2 << 20
)

// ErrNoToken is returned when the search page carries no vqd token.
var ErrNoToken = errors.New("duckduckgo: vqd token not found")

var vqdPattern = regexp.MustCompile(`vqd=["']?([0-9-]+)["']?`)

// Client implements visuals.ImageSearcher. A search is two requests: the
// HTML search page, which carries the vqd session token, then the i.js
// JSON endpoint that returns the image results.
type Client struct {
	httpClient *http.Client
	baseURL    string
	region     string
	logger     *slog.Logger
}

// NewClient creates an image search client. region is a DuckDuckGo locale
// such as "in-en"; an empty region searches worldwide.
func NewClient(region string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		region:     region,
		logger:     logger,
	}
}

// WithBaseURL points the client at another host, used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// SearchImages returns up to limit photo results with safe search on.
func (c *Client) SearchImages(ctx context.Context, query string, limit int) ([]visuals.SearchResult, error) {
	token, err := c.token(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"l":   {c.regionOrDefault()},
		"o":   {"json"},
		"q":   {query},
		"vqd": {token},
		"f":   {",size:Large,type:photo,,"},
		"p":   {"1"},
	}
	body, err := c.get(ctx, c.baseURL+"/i.js?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("image results: %w", err)
	}

	var resp imageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode image results: %w", err)
	}

	out := make([]visuals.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Image == "" {
			continue
		}
		out = append(out, visuals.SearchResult{
			ImageURL:  r.Image,
			Thumbnail: r.Thumbnail,
			Title:     r.Title,
			Source:    r.URL,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	c.logger.Debug("image search complete", "query", query, "results", len(out))
	return out, nil
}

func (c *Client) regionOrDefault() string {
	if c.region == "" {
		return "wt-wt"
	}
	return c.region
}

func (c *Client) token(ctx context.Context, query string) (string, error) {
	params := url.Values{"q": {query}, "iax": {"images"}, "ia": {"images"}}
	page, err := c.get(ctx, c.baseURL+"/?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("search page: %w", err)
	}
	token := extractToken(page)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

// extractToken finds the vqd token in the search page: a hidden input named
// vqd first, then any script that assigns it.
func extractToken(page []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(page))
	inScript := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "script":
				inScript = tt == html.StartTagToken
			case "input":
				if v := vqdInputValue(token); v != "" {
					return v
				}
			}
		case html.EndTagToken:
			if tokenizer.Token().Data == "script" {
				inScript = false
			}
		case html.TextToken:
			if !inScript {
				continue
			}
			if m := vqdPattern.FindSubmatch(tokenizer.Text()); m != nil {
				return string(m[1])
			}
		}
	}
}

func vqdInputValue(token html.Token) string {
	var name, value string
	for _, attr := range token.Attr {
		switch attr.Key {
		case "name":
			name = attr.Val
		case "value":
			value = attr.Val
		}
	}
	if name == "vqd" {
		return value
	}
	return ""
}

// DuckDuckGo i.js response types.

type imageResponse struct {
	Results []imageResult `json:"results"`
	Next    string        `json:"next"`
}

type imageResult struct {
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}
