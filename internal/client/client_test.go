// ABOUTME: Tests for the Samar Blogs API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samarblogs/blogcli/internal/tokenstore"
)

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := New(url, opts...)
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	for _, bad := range []string{"", "localhost:5000", "ftp://example.com"} {
		if _, err := New(bad); err == nil {
			t.Errorf("expected error for base URL %q, got nil", bad)
		}
	}
}

func TestRequest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Errorf("expected path /auth/me, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		if r.Header.Get("Content-Type") != "" {
			t.Error("expected no Content-Type without a body")
		}
		w.Write([]byte(`{"user":{"id":1,"name":"Test User"},"extra":true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	raw, err := c.Request(context.Background(), http.MethodGet, "/auth/me", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"user":{"id":1,"name":"Test User"},"extra":true}` {
		t.Errorf("expected body verbatim, got %s", raw)
	}
}

func TestRequest_SendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"email":"a@b.co","password":"pw"}` {
			t.Errorf("unexpected body %s", body)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Request(context.Background(), http.MethodPost, "/auth/login", LoginRequest{Email: "a@b.co", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequest_BearerFallback(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	c := newTestClient(t, server.URL, WithTokenStore(store))

	c.Request(context.Background(), http.MethodGet, "/auth/me", nil)
	if gotAuth != "" {
		t.Errorf("expected no Authorization header without token, got %q", gotAuth)
	}

	store.Save("fallback-token")
	c.Request(context.Background(), http.MethodGet, "/auth/me", nil)
	if gotAuth != "Bearer fallback-token" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestRequest_UnauthorizedClearsToken(t *testing.T) {
	calls := 0
	var auths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		auths = append(auths, r.Header.Get("Authorization"))
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Invalid token"}`))
			return
		}
		w.Write([]byte(`{"user":null}`))
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	store.Save("stale-token")
	c := newTestClient(t, server.URL, WithTokenStore(store))

	_, err := c.Request(context.Background(), http.MethodGet, "/auth/me", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.Unauthorized() || apiErr.Message != "Invalid token" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if tok, _ := store.Load(); tok != "" {
		t.Errorf("expected token to be cleared, got %q", tok)
	}

	c.Request(context.Background(), http.MethodGet, "/auth/me", nil)
	if auths[1] != "" {
		t.Errorf("expected next request without bearer, got %q", auths[1])
	}
}

func TestRequest_ForbiddenKeepsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"not your post"}`))
	}))
	defer server.Close()

	store := tokenstore.NewMemory()
	store.Save("good-token")
	c := newTestClient(t, server.URL, WithTokenStore(store))

	_, err := c.Request(context.Background(), http.MethodDelete, "/posts/1", nil)
	if err == nil || err.Error() != "not your post" {
		t.Errorf("expected server error field as message, got %v", err)
	}
	if tok, _ := store.Load(); tok != "good-token" {
		t.Error("expected token to survive a non-401 failure")
	}
}

func TestRequest_UnparseableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Request(context.Background(), http.MethodGet, "/posts", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "502") {
		t.Errorf("expected generic message with status, got %q", apiErr.Message)
	}
}

func TestRequest_InvalidSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Request(context.Background(), http.MethodGet, "/auth/me", nil)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestRequest_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	raw, err := c.Request(context.Background(), http.MethodDelete, "/posts/1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "null" {
		t.Errorf("expected null for empty body, got %s", raw)
	}
}

func TestRequest_ConnectionError(t *testing.T) {
	c := newTestClient(t, "http://localhost:99999")
	_, err := c.Request(context.Background(), http.MethodGet, "/auth/me", nil)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestRequest_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Request(ctx, http.MethodGet, "/auth/me", nil)
	if !errors.Is(err, ErrCanceled) {
		t.Errorf("expected ErrCanceled, got %v", err)
	}
}

func TestRequest_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Request(ctx, http.MethodGet, "/auth/me", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestRequest_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithRateLimit(1, 1))
	c.Request(context.Background(), http.MethodGet, "/auth/me", nil)

	// The second request has to wait about a second for a token
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Request(ctx, http.MethodGet, "/auth/me", nil); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected throttled request to time out, got %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api", &APIError{Status: 400, Message: "Email already taken"}, "Email already taken"},
		{"network", errors.Join(ErrNetwork), "Unable to reach the server. Please check your connection and try again."},
		{"invalid", ErrInvalidResponse, "The server sent an unexpected response. Please try again later."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorMessage(tc.err); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestID_UnmarshalNumberAndString(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":1,"b":"abc","c":null}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.A != "1" || v.B != "abc" || v.C != "" {
		t.Errorf("unexpected ids %+v", v)
	}

	out, _ := json.Marshal(v)
	if string(out) != `{"a":1,"b":"abc","c":""}` {
		t.Errorf("unexpected marshal %s", out)
	}
}
