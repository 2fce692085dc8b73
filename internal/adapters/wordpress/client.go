package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sitepub/internal/core/ports"
)

const (
	defaultTimeout = 30 * time.Second
	// Cap on how much of an error body ends up in an error message.
	maxErrorBody = 512
)

// Config holds the connection settings for one WordPress site.
type Config struct {
	// BaseURL is the REST root, e.g. https://example.com/wp-json/wp/v2
	BaseURL     string
	Username    string
	AppPassword string
	Timeout     time.Duration
}

// Client implements ports.CMS against the WordPress REST pages endpoint.
type Client struct {
	baseURL string
	auth    string
	client  *http.Client
}

// NewClient creates a new Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wordpress base URL not set")
	}
	if cfg.Username == "" || cfg.AppPassword == "" {
		return nil, fmt.Errorf("wordpress username and application password must be set")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid wordpress base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.AppPassword))
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    "Basic " + creds,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type wpPage struct {
	ID     int64  `json:"id"`
	Slug   string `json:"slug"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

func (p wpPage) toRemote() *ports.RemotePage {
	return &ports.RemotePage{
		ID:     strconv.FormatInt(p.ID, 10),
		Slug:   p.Slug,
		Link:   p.Link,
		Status: p.Status,
	}
}

// FindPageBySlug looks up a page by slug in any status.
func (c *Client) FindPageBySlug(ctx context.Context, slug string) (*ports.RemotePage, error) {
	q := url.Values{}
	q.Set("slug", slug)
	q.Set("status", "any")
	q.Set("per_page", "1")

	var found []wpPage
	if err := c.do(ctx, http.MethodGet, "/pages?"+q.Encode(), nil, &found); err != nil {
		return nil, fmt.Errorf("lookup page %q: %w", slug, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0].toRemote(), nil
}

// CreatePage creates a draft page.
func (c *Client) CreatePage(ctx context.Context, draft ports.PageDraft) (*ports.RemotePage, error) {
	body := map[string]string{
		"title":   draft.Title,
		"slug":    draft.Slug,
		"status":  "draft",
		"content": draft.Content,
	}
	var created wpPage
	if err := c.do(ctx, http.MethodPost, "/pages", body, &created); err != nil {
		return nil, fmt.Errorf("create page %q: %w", draft.Slug, err)
	}
	return created.toRemote(), nil
}

// UpdatePage replaces title and content of page id.
func (c *Client) UpdatePage(ctx context.Context, id string, draft ports.PageDraft) (*ports.RemotePage, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("update page: invalid wordpress page id %q", id)
	}
	body := map[string]string{
		"title":   draft.Title,
		"content": draft.Content,
	}
	var updated wpPage
	if err := c.do(ctx, http.MethodPost, "/pages/"+id, body, &updated); err != nil {
		return nil, fmt.Errorf("update page %s: %w", id, err)
	}
	return updated.toRemote(), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

// statusError turns a non-2xx response into an error, preferring the
// {"code","message"} body WordPress sends.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &wpErr) == nil && wpErr.Message != "" {
		return fmt.Errorf("status %d: %s (%s)", resp.StatusCode, wpErr.Message, wpErr.Code)
	}
	return fmt.Errorf("status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
