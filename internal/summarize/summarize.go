// Package summarize is the client for the summarization collaborator: a
// pure, possibly slow, possibly failing request/response call.
//
// Responses are cached by a content+page fingerprint for five minutes, and
// concurrent requests for an identical fingerprint share one in-flight call.
// Failures are surfaced with the underlying message; nothing here retries.
package summarize

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/anchorlight/anchorlight/pkg/types"
)

// Client configuration
const (
	EnvEndpoint = "ANCHORLIGHT_SUMMARY_URL"
	EnvAPIKey   = "ANCHORLIGHT_SUMMARY_API_KEY"

	DefaultTimeout = 30 * time.Second
	CacheTTL       = 5 * time.Minute
	CacheSize      = 256
)

// ErrNoEndpoint is returned when no summarization endpoint is configured.
var ErrNoEndpoint = errors.New("summarization endpoint not configured")

// Request carries the text to summarize plus context metadata the endpoint
// may use (page title, language, capture time).
type Request struct {
	Text     string            `json:"text"`
	PageURL  string            `json:"page_url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// response is the collaborator's wire shape.
type response struct {
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// cacheEntry holds a summary with its expiration time.
type cacheEntry struct {
	summary   string
	expiresAt time.Time
}

// Client calls the summarization endpoint with caching and in-flight
// deduplication.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	cache      *lru.Cache[string, *cacheEntry]
	group      singleflight.Group
	ttl        time.Duration
	now        func() time.Time
}

// New creates a client for the given endpoint.
func New(endpoint, apiKey string) (*Client, error) {
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	cache, err := lru.New[string, *cacheEntry](CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create summary cache: %w", err)
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		cache:      cache,
		ttl:        CacheTTL,
		now:        time.Now,
	}, nil
}

// NewFromEnv creates a client from ANCHORLIGHT_SUMMARY_URL and
// ANCHORLIGHT_SUMMARY_API_KEY.
func NewFromEnv() (*Client, error) {
	return New(os.Getenv(EnvEndpoint), os.Getenv(EnvAPIKey))
}

// Summarize returns a summary for the request, from cache when fresh.
// Concurrent calls with the same fingerprint share a single HTTP request.
func (c *Client) Summarize(ctx context.Context, req Request) (string, error) {
	if req.Text == "" {
		return "", fmt.Errorf("%w: empty text", types.ErrCollaboratorFailure)
	}
	fp := Fingerprint(req.Text, req.PageURL)

	if entry, ok := c.cache.Get(fp); ok {
		if c.now().Before(entry.expiresAt) {
			return entry.summary, nil
		}
		c.cache.Remove(fp)
	}

	v, err, _ := c.group.Do(fp, func() (any, error) {
		summary, err := c.call(ctx, req)
		if err != nil {
			return "", err
		}
		c.cache.Add(fp, &cacheEntry{summary: summary, expiresAt: c.now().Add(c.ttl)})
		return summary, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// call performs the HTTP exchange. One attempt only.
func (c *Client) call(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrCollaboratorFailure, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrCollaboratorFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrCollaboratorFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", types.ErrCollaboratorFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", types.ErrCollaboratorFailure, resp.StatusCode, truncate(string(data), 200))
	}

	var parsed response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", types.ErrCollaboratorFailure, err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("%w: %s", types.ErrCollaboratorFailure, parsed.Error)
	}
	if parsed.Summary == "" {
		return "", fmt.Errorf("%w: empty summary", types.ErrCollaboratorFailure)
	}
	return parsed.Summary, nil
}

// Fingerprint derives the cache and dedup key from content plus page.
func Fingerprint(text, pageURL string) string {
	h := sha256.Sum256([]byte(pageURL + "\x00" + text))
	return hex.EncodeToString(h[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
