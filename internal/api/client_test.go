package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordedRequest struct {
	Method string
	Path   string
	Raw    string
	Query  url.Values
	Header http.Header
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newFakeAPI(t *testing.T, status int, body string) (*fakeAPI, *HTTPClient) {
	t.Helper()
	SetLogger(zerolog.Nop())

	f := &fakeAPI{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Raw:    r.URL.EscapedPath(),
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		w.Write([]byte(f.body))
	}))
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL+"/api/", time.Second)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return f, client
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("Expected at least one request")
	}
	return f.requests[len(f.requests)-1]
}

const postJSON = `{"slug":"my-post","title":"T","excerpt":"E","rendered_body":"<p>B</p>","published_at":"2026-03-01T12:00:00Z","views":5,"category":{"slug":"news","name":"Новости"},"tags":[]}`

func TestNewHTTPClient(t *testing.T) {
	testCases := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "Valid", baseURL: "http://localhost:8000/api"},
		{name: "Trailing slash", baseURL: "http://localhost:8000/api/"},
		{name: "Relative", baseURL: "/api", wantErr: true},
		{name: "Garbage", baseURL: "://", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewHTTPClient(tc.baseURL, 0)
			if tc.wantErr != (err != nil) {
				t.Errorf("Expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFetchPosts(t *testing.T) {
	testCases := []struct {
		name         string
		category     string
		page         int
		wantCategory string
	}{
		{name: "All categories", category: "all", page: 1},
		{name: "Filtered", category: "sport", page: 3, wantCategory: "sport"},
		{name: "Empty category", category: "", page: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, client := newFakeAPI(t, http.StatusOK, `{"count":20,"results":[`+postJSON+`]}`)

			page, err := client.FetchPosts(context.Background(), tc.category, tc.page)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if page.Count != 20 || len(page.Results) != 1 {
				t.Errorf("Unexpected page: %+v", page)
			}

			req := f.last(t)
			if req.Method != http.MethodGet || req.Path != "/api/posts/" {
				t.Errorf("Unexpected request %s %s", req.Method, req.Path)
			}
			if req.Query.Get("status") != "published" {
				t.Errorf("Expected status=published, got %q", req.Query.Get("status"))
			}
			if req.Query.Get("page") != strconv.Itoa(tc.page) {
				t.Errorf("Expected page=%d, got %q", tc.page, req.Query.Get("page"))
			}
			if req.Query.Get("category__slug") != tc.wantCategory {
				t.Errorf("Expected category__slug=%q, got %q", tc.wantCategory, req.Query.Get("category__slug"))
			}
			if req.Query.Has("is_featured") {
				t.Error("Did not expect is_featured on the posts listing")
			}
		})
	}
}

func TestFetchFeaturedPost(t *testing.T) {
	f, client := newFakeAPI(t, http.StatusOK, `{"count":1,"results":[`+postJSON+`]}`)

	page, err := client.FetchFeaturedPost(context.Background(), "news")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first := page.First(); first == nil || first.Slug != "my-post" {
		t.Errorf("Expected featured post 'my-post', got %+v", first)
	}

	req := f.last(t)
	if req.Query.Get("is_featured") != "true" || req.Query.Get("page") != "1" || req.Query.Get("status") != "published" {
		t.Errorf("Unexpected featured query: %v", req.Query)
	}
	if req.Query.Get("category__slug") != "news" {
		t.Errorf("Expected category filter, got %v", req.Query)
	}
}

func TestFetchPost(t *testing.T) {
	f, client := newFakeAPI(t, http.StatusOK, postJSON)

	post, err := client.FetchPost(context.Background(), "my-post")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if post.Views != 5 {
		t.Errorf("Expected 5 views, got %d", post.Views)
	}

	if path := f.last(t).Path; path != "/api/posts/my-post/" {
		t.Errorf("Expected /api/posts/my-post/, got %s", path)
	}
}

func TestFetchPostEscapesSlug(t *testing.T) {
	f, client := newFakeAPI(t, http.StatusOK, postJSON)

	if _, err := client.FetchPost(context.Background(), "../categories"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if raw := f.last(t).Raw; raw != "/api/posts/..%2Fcategories/" {
		t.Errorf("Expected slug to stay a single escaped segment, got %s", raw)
	}
}

func TestFetchCategories(t *testing.T) {
	f, client := newFakeAPI(t, http.StatusOK, `{"count":2,"results":[{"slug":"news","name":"Новости"},{"slug":"sport","name":"Спорт"}]}`)

	cats, err := client.FetchCategories(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cats.Results) != 2 || cats.Results[1].Slug != "sport" {
		t.Errorf("Unexpected categories: %+v", cats)
	}
	if path := f.last(t).Path; path != "/api/categories/" {
		t.Errorf("Expected /api/categories/, got %s", path)
	}
}

func TestIncrementPostViews(t *testing.T) {
	t.Run("With token", func(t *testing.T) {
		f, client := newFakeAPI(t, http.StatusOK, `{"views":6}`)

		res, err := client.IncrementPostViews(context.Background(), "my-post", "tok123")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if res.Views != 6 {
			t.Errorf("Expected 6 views, got %d", res.Views)
		}

		req := f.last(t)
		if req.Method != http.MethodPost || req.Path != "/api/posts/my-post/hit/" {
			t.Errorf("Unexpected request %s %s", req.Method, req.Path)
		}
		if req.Header.Get("X-CSRFToken") != "tok123" {
			t.Errorf("Expected CSRF header, got %q", req.Header.Get("X-CSRFToken"))
		}
		if !strings.Contains(req.Header.Get("Cookie"), "csrftoken=tok123") {
			t.Errorf("Expected csrftoken cookie forwarded, got %q", req.Header.Get("Cookie"))
		}
		if req.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %q", req.Header.Get("Content-Type"))
		}
	})

	t.Run("Without token sends empty header", func(t *testing.T) {
		f, client := newFakeAPI(t, http.StatusOK, `{"views":6}`)

		if _, err := client.IncrementPostViews(context.Background(), "my-post", ""); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		req := f.last(t)
		values, ok := req.Header["X-Csrftoken"]
		if !ok || len(values) != 1 || values[0] != "" {
			t.Errorf("Expected empty X-CSRFToken header, got %v (present=%v)", values, ok)
		}
		if req.Header.Get("Cookie") != "" {
			t.Errorf("Expected no cookie, got %q", req.Header.Get("Cookie"))
		}
	})
}

func TestStatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			_, client := newFakeAPI(t, status, `{"detail":"nope"}`)

			_, err := client.FetchPosts(context.Background(), "all", 1)

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("Expected StatusError, got %v", err)
			}
			if statusErr.StatusCode != status {
				t.Errorf("Expected status %d, got %d", status, statusErr.StatusCode)
			}
			if err.Error() != "HTTP error! status: "+strconv.Itoa(status) {
				t.Errorf("Unexpected message %q", err.Error())
			}
		})
	}
}

func TestMissingEnvelopeFields(t *testing.T) {
	_, client := newFakeAPI(t, http.StatusOK, `{}`)

	page, err := client.FetchPosts(context.Background(), "all", 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if page.Count != 0 || len(page.Items()) != 0 {
		t.Errorf("Expected empty page, got %+v", page)
	}
}

func TestInvalidPayloads(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "Not JSON", body: `<html>oops</html>`},
		{name: "Post without slug", body: `{"count":1,"results":[{"title":"T","category":{"slug":"a","name":"A"}}]}`},
		{name: "Category without name", body: `{"count":1,"results":[{"title":"T","slug":"s","category":{"slug":"a"}}]}`},
		{name: "Negative count", body: `{"count":-1,"results":[]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, client := newFakeAPI(t, http.StatusOK, tc.body)

			_, err := client.FetchPosts(context.Background(), "all", 1)
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("Expected ErrInvalidPayload, got %v", err)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	SetLogger(zerolog.Nop())
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewHTTPClient(base+"/api", time.Second)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.FetchCategories(context.Background())
	if err == nil {
		t.Fatal("Expected transport error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("Did not expect a StatusError for a transport failure, got %v", err)
	}
}
