// Package api is the typed client for the news REST API consumed by the frontend.
package api

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

	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/mediafront/internal/config"
	"github.com/debemdeboas/mediafront/internal/model"
)

var apiLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

// Client is every call the page controller makes against the API.
type Client interface {
	FetchPosts(ctx context.Context, category string, page int) (*model.Page[model.Post], error)
	FetchFeaturedPost(ctx context.Context, category string) (*model.Page[model.Post], error)
	FetchPost(ctx context.Context, slug string) (*model.Post, error)
	FetchCategories(ctx context.Context) (*model.Page[model.Category], error)
	IncrementPostViews(ctx context.Context, slug, csrfToken string) (*model.ViewCount, error)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

var ErrInvalidPayload = errors.New("invalid API payload")

type HTTPClient struct {
	baseURL  *url.URL
	http     *http.Client
	validate *validator.Validate
}

// NewHTTPClient targets baseURL, e.g. "http://localhost:8000/api".
// A zero timeout leaves requests unbounded.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host required", baseURL)
	}

	return &HTTPClient{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		validate: validator.New(),
	}, nil
}

func (c *HTTPClient) postsQuery(category string, page int) url.Values {
	q := url.Values{}
	q.Set("status", "published")
	q.Set("page", strconv.Itoa(page))
	if category != "" && category != model.AllCategories {
		q.Set("category__slug", category)
	}
	return q
}

func (c *HTTPClient) FetchPosts(ctx context.Context, category string, page int) (*model.Page[model.Post], error) {
	var out model.Page[model.Post]
	if err := c.do(ctx, endpointPosts, http.MethodGet, c.endpoint("posts/"), c.postsQuery(category, page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchFeaturedPost(ctx context.Context, category string) (*model.Page[model.Post], error) {
	q := c.postsQuery(category, 1)
	q.Set("is_featured", "true")

	var out model.Page[model.Post]
	if err := c.do(ctx, endpointFeatured, http.MethodGet, c.endpoint("posts/"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchPost(ctx context.Context, slug string) (*model.Post, error) {
	var out model.Post
	if err := c.do(ctx, endpointPost, http.MethodGet, c.endpoint("posts", slug, ""), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchCategories(ctx context.Context) (*model.Page[model.Category], error) {
	var out model.Page[model.Category]
	if err := c.do(ctx, endpointCategories, http.MethodGet, c.endpoint("categories/"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IncrementPostViews calls the hit endpoint. An empty csrfToken is sent as-is.
func (c *HTTPClient) IncrementPostViews(ctx context.Context, slug, csrfToken string) (*model.ViewCount, error) {
	headers := http.Header{}
	headers.Set(config.HCType, config.CTypeJSON)
	headers.Set(config.HCSRFToken, csrfToken)
	if csrfToken != "" {
		headers.Set("Cookie", (&http.Cookie{Name: config.CookieCSRF, Value: csrfToken}).String())
	}

	var out model.ViewCount
	if err := c.do(ctx, endpointHit, http.MethodPost, c.endpoint("posts", slug, "hit", ""), nil, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// endpoint joins path segments under the base URL, escaping each one.
// A trailing empty segment keeps the trailing slash the API expects.
func (c *HTTPClient) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		if strings.HasSuffix(s, "/") {
			escaped[i] = url.PathEscape(strings.TrimSuffix(s, "/")) + "/"
		} else {
			escaped[i] = url.PathEscape(s)
		}
	}
	return c.baseURL.String() + "/" + strings.Join(escaped, "/")
}

func (c *HTTPClient) do(ctx context.Context, endpoint, method, rawURL string, query url.Values, headers http.Header, out any) error {
	start := time.Now()
	status := "error"
	defer func() {
		observe(endpoint, status, time.Since(start))
	}()

	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", config.CTypeJSON)
	for k, v := range headers {
		req.Header[k] = v
	}

	apiLogger.Debug().Str("method", method).Str("url", rawURL).Msg("API request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrInvalidPayload, endpoint, err)
	}

	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %s response: %v", ErrInvalidPayload, endpoint, err)
	}

	return nil
}
