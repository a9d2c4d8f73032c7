package issues

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok", WithRateLimit(rate.Inf, 1))
}

func TestCreateIssue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/app/issues", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		var req CreateIssueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Set up repo", req.Title)
		assert.Equal(t, []string{"priority:high"}, req.Labels)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":7,"title":"Set up repo","state":"open","html_url":"https://github.com/acme/app/issues/7"}`))
	})

	issue, err := c.CreateIssue(context.Background(), "acme", "app", CreateIssueRequest{
		Title:  "Set up repo",
		Labels: []string{"priority:high"},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, issue.Number)
	assert.Equal(t, "https://github.com/acme/app/issues/7", issue.HTMLURL)
}

func TestDo_RetriesWhenRateLimited(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header string
		value  string
	}{
		{"primary 429", http.StatusTooManyRequests, "Retry-After", "0"},
		{"secondary 403", http.StatusForbidden, "Retry-After", "0"},
		{"quota exhausted", http.StatusForbidden, "X-RateLimit-Remaining", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.Header().Set(tt.header, tt.value)
					if tt.header == "X-RateLimit-Remaining" {
						w.Header().Set("X-RateLimit-Reset", "0")
					}
					w.WriteHeader(tt.status)
					return
				}
				_, _ = w.Write([]byte(`{"number":3,"state":"closed"}`))
			})

			issue, err := c.GetIssue(context.Background(), "acme", "app", 3)
			require.NoError(t, err)
			assert.Equal(t, "closed", issue.State)
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithRateLimit(rate.Inf, 1), WithMaxRetries(2))
	_, err := c.GetIssue(context.Background(), "acme", "app", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_AuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.ValidateConnection(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestDo_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := c.GetIssue(context.Background(), "acme", "app", 99)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "Not Found")
}

func TestValidateConnection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		_, _ = w.Write([]byte(`{"login":"octocat","id":1}`))
	})

	user, err := c.ValidateConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
}
