package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/bizwire/internal/record"
)

const (
	DefaultBaseURL  = "https://newsapi.org/v2"
	DefaultPageSize = 70
	category        = "business"
)

var (
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("newsapi: api key not configured")
	// ErrMalformedArticle is returned when an article lacks a required field.
	ErrMalformedArticle = errors.New("newsapi: malformed article")
)

// APIError reports a non-2xx response or a non-"ok" status payload.
type APIError struct {
	StatusCode int
	Status     string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "newsapi: HTTP %d", e.StatusCode)
	if e.Status != "" {
		fmt.Fprintf(&b, ", status %q", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ", code %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey   string
	BaseURL  string
	Language string
	Country  string
	PageSize int
	Timeout  time.Duration
}

// Client fetches business top headlines from NewsAPI.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	country  string
	pageSize int
	client   *http.Client
}

// NewClient creates a new NewsAPI client.
func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:   opts.APIKey,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		language: opts.Language,
		country:  opts.Country,
		pageSize: opts.PageSize,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.language == "" {
		c.language = "en"
	}
	if c.country == "" {
		c.country = "us"
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c.client = &http.Client{Timeout: timeout}
	return c
}

// IsConfigured returns whether the API key is available.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type apiResponse struct {
	Status   string       `json:"status"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Articles []apiArticle `json:"articles"`
}

type apiArticle struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	PublishedAt *string `json:"publishedAt"`
}

// TopHeadlines makes a single request for the current business headlines.
// It does not retry.
func (c *Client) TopHeadlines(ctx context.Context) ([]record.Article, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	params := url.Values{
		"category": {category},
		"language": {c.language},
		"country":  {c.country},
		"pageSize": {strconv.Itoa(c.pageSize)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/top-headlines?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting top headlines: %w", err)
	}
	defer resp.Body.Close()

	var result apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     result.Status,
			Code:       result.Code,
			Message:    result.Message,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	if result.Status != "ok" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     result.Status,
			Code:       result.Code,
			Message:    result.Message,
		}
	}

	articles := make([]record.Article, 0, len(result.Articles))
	for i, a := range result.Articles {
		if a.Title == nil {
			return nil, fmt.Errorf("%w: article %d has no title", ErrMalformedArticle, i)
		}
		if a.URL == nil {
			return nil, fmt.Errorf("%w: article %d has no url", ErrMalformedArticle, i)
		}
		if a.PublishedAt == nil {
			return nil, fmt.Errorf("%w: article %d has no publishedAt", ErrMalformedArticle, i)
		}
		articles = append(articles, record.Article{
			Title:       *a.Title,
			Description: deref(a.Description),
			URL:         *a.URL,
			PublishedAt: *a.PublishedAt,
		})
	}
	return articles, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
