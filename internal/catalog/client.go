package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPageSize = 8
	DefaultTimeout  = 10 * time.Second

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 1 << 20
)

// ErrPlantNotFound is returned by GetPlant when the API answers 404.
var ErrPlantNotFound = errors.New("plant not found in catalog")

// HTTPError is a non-2xx response from the catalog API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("catalog http error: status=%d body=%s", e.StatusCode, e.Body)
}

// Client talks to the catalog REST API.
type Client struct {
	http     *http.Client
	baseURL  string
	pageSize int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPageSize sets the number of plants requested per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base url: %w", err)
	}

	c := &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PageSize returns the number of plants requested per page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// ListPlants fetches one page of plants sorted by name. Pages start at 1.
func (c *Client) ListPlants(ctx context.Context, page int) ([]Plant, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", page)
	}
	path := "/plants?_sort=name&_order=asc&_page=" + strconv.Itoa(page) + "&_limit=" + strconv.Itoa(c.pageSize)

	var plants []Plant
	if err := c.getJSON(ctx, path, &plants); err != nil {
		return nil, fmt.Errorf("listing plants page %d: %w", page, err)
	}
	return plants, nil
}

// ListEnvironments fetches the environment tags sorted by title.
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	var envs []Environment
	if err := c.getJSON(ctx, "/plants_environments?_sort=title&_order=asc", &envs); err != nil {
		return nil, fmt.Errorf("listing environments: %w", err)
	}
	return envs, nil
}

// GetPlant fetches a single plant.
func (c *Client) GetPlant(ctx context.Context, id string) (Plant, error) {
	if strings.TrimSpace(id) == "" {
		return Plant{}, errors.New("plant id required")
	}

	var p Plant
	err := c.getJSON(ctx, "/plants/"+url.PathEscape(id), &p)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return Plant{}, fmt.Errorf("%w: %s", ErrPlantNotFound, id)
		}
		return Plant{}, fmt.Errorf("getting plant %s: %w", id, err)
	}
	return p, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
